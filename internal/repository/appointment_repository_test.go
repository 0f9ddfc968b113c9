package repository

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rosadoagency/appointment-api/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAppointment(name string) *model.Appointment {
	return &model.Appointment{
		Name:   name,
		Phone:  "2545484815",
		Email:  "client@example.com",
		Reason: "Life insurance review",
	}
}

func confirmedOn(t *testing.T, repo *AppointmentRepository, name string, at time.Time) *model.Appointment {
	t.Helper()
	ctx := context.Background()
	a, err := repo.Create(ctx, newAppointment(name))
	require.NoError(t, err)
	status := model.AppointmentStatusConfirmed
	a, err = repo.Update(ctx, a.ID, model.AppointmentPatch{Status: &status, AppointmentDate: &at})
	require.NoError(t, err)
	return a
}

func TestAppointmentRepository_CreateAndGet(t *testing.T) {
	repo := NewAppointmentRepository(NewTestDB(t))
	ctx := context.Background()

	created, err := repo.Create(ctx, newAppointment("Jane Doe"))
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.Equal(t, model.AppointmentStatusPending, created.Status)
	assert.False(t, created.ReminderSent)
	assert.Nil(t, created.AppointmentDate)
	assert.Nil(t, created.ZoomLink)
	assert.False(t, created.CreatedAt.IsZero())

	got, err := repo.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "Jane Doe", got.Name)
	assert.Equal(t, "2545484815", got.Phone)
	assert.Equal(t, "client@example.com", got.Email)
	assert.Equal(t, "Life insurance review", got.Reason)
	assert.Equal(t, model.AppointmentStatusPending, got.Status)
}

func TestAppointmentRepository_GetNotFound(t *testing.T) {
	repo := NewAppointmentRepository(NewTestDB(t))

	_, err := repo.Get(context.Background(), 99999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAppointmentRepository_ListNewestFirst(t *testing.T) {
	repo := NewAppointmentRepository(NewTestDB(t))
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	tick := 0
	repo.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}

	first, err := repo.Create(ctx, newAppointment("first"))
	require.NoError(t, err)
	second, err := repo.Create(ctx, newAppointment("second"))
	require.NoError(t, err)

	// same created_at falls back to id
	repo.now = func() time.Time { return base.Add(time.Hour) }
	third, err := repo.Create(ctx, newAppointment("third"))
	require.NoError(t, err)
	fourth, err := repo.Create(ctx, newAppointment("fourth"))
	require.NoError(t, err)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 4)
	assert.Equal(t, []int64{fourth.ID, third.ID, second.ID, first.ID},
		[]int64{list[0].ID, list[1].ID, list[2].ID, list[3].ID})
}

func TestAppointmentRepository_UpdateIsSparse(t *testing.T) {
	repo := NewAppointmentRepository(NewTestDB(t))
	ctx := context.Background()

	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return created }
	a, err := repo.Create(ctx, newAppointment("Jane Doe"))
	require.NoError(t, err)

	link := "https://zoom.us/j/123"
	repo.now = func() time.Time { return created.Add(time.Minute) }
	updated, err := repo.Update(ctx, a.ID, model.AppointmentPatch{ZoomLink: &link})
	require.NoError(t, err)

	require.NotNil(t, updated.ZoomLink)
	assert.Equal(t, link, *updated.ZoomLink)
	assert.Equal(t, model.AppointmentStatusPending, updated.Status)
	assert.Nil(t, updated.AppointmentDate)
	assert.False(t, updated.ReminderSent)
	assert.True(t, updated.UpdatedAt.After(a.UpdatedAt))
	assert.True(t, updated.CreatedAt.Equal(a.CreatedAt))

	t.Run("empty patch only touches updated_at", func(t *testing.T) {
		repo.now = func() time.Time { return created.Add(2 * time.Minute) }
		again, err := repo.Update(ctx, a.ID, model.AppointmentPatch{})
		require.NoError(t, err)
		assert.True(t, again.UpdatedAt.After(updated.UpdatedAt))
		require.NotNil(t, again.ZoomLink)
		assert.Equal(t, link, *again.ZoomLink)
	})

	t.Run("missing id", func(t *testing.T) {
		_, err := repo.Update(ctx, 99999, model.AppointmentPatch{ZoomLink: &link})
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestAppointmentRepository_UpdateFromStatus(t *testing.T) {
	repo := NewAppointmentRepository(NewTestDB(t))
	ctx := context.Background()

	a, err := repo.Create(ctx, newAppointment("Jane Doe"))
	require.NoError(t, err)

	scheduled := model.AppointmentStatusScheduled
	updated, err := repo.UpdateFromStatus(ctx, a.ID, model.AppointmentStatusPending, model.AppointmentPatch{Status: &scheduled})
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusScheduled, updated.Status)

	cancelled := model.AppointmentStatusCancelled
	_, err = repo.UpdateFromStatus(ctx, a.ID, model.AppointmentStatusPending, model.AppointmentPatch{Status: &cancelled})
	assert.ErrorIs(t, err, ErrStatusChanged)

	got, err := repo.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusScheduled, got.Status)

	_, err = repo.UpdateFromStatus(ctx, 99999, model.AppointmentStatusPending, model.AppointmentPatch{Status: &cancelled})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAppointmentRepository_Delete(t *testing.T) {
	repo := NewAppointmentRepository(NewTestDB(t))
	ctx := context.Background()

	a, err := repo.Create(ctx, newAppointment("Jane Doe"))
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, a.ID))

	_, err = repo.Get(ctx, a.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, repo.Delete(ctx, a.ID), ErrNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, 99999), ErrNotFound)
}

func TestAppointmentRepository_FindDueOn(t *testing.T) {
	repo := NewAppointmentRepository(NewTestDB(t))
	ctx := context.Background()

	loc, err := time.LoadLocation("America/Chicago")
	require.NoError(t, err)
	day := time.Date(2026, 3, 10, 0, 0, 0, 0, loc)
	start, end := model.DayBounds(day, loc)

	morning := confirmedOn(t, repo, "morning", day.Add(9*time.Hour))
	lateEvening := confirmedOn(t, repo, "late evening", day.Add(23*time.Hour+30*time.Minute))
	confirmedOn(t, repo, "tomorrow", end)
	confirmedOn(t, repo, "yesterday", start.Add(-time.Minute))

	sent := confirmedOn(t, repo, "already sent", day.Add(10*time.Hour))
	_, err = repo.MarkReminderSent(ctx, sent.ID)
	require.NoError(t, err)

	pending, err := repo.Create(ctx, newAppointment("pending"))
	require.NoError(t, err)
	at := day.Add(11 * time.Hour)
	_, err = repo.Update(ctx, pending.ID, model.AppointmentPatch{AppointmentDate: &at})
	require.NoError(t, err)

	_, err = repo.Create(ctx, newAppointment("no date"))
	require.NoError(t, err)

	due, err := repo.FindDueOn(ctx, start, end)
	require.NoError(t, err)
	require.Len(t, due, 2)
	assert.Equal(t, morning.ID, due[0].ID)
	assert.Equal(t, lateEvening.ID, due[1].ID)
}

func TestAppointmentRepository_MarkReminderSent(t *testing.T) {
	repo := NewAppointmentRepository(NewTestDB(t))
	ctx := context.Background()

	a, err := repo.Create(ctx, newAppointment("Jane Doe"))
	require.NoError(t, err)

	marked, err := repo.MarkReminderSent(ctx, a.ID)
	require.NoError(t, err)
	assert.True(t, marked)

	marked, err = repo.MarkReminderSent(ctx, a.ID)
	require.NoError(t, err)
	assert.False(t, marked)

	got, err := repo.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.True(t, got.ReminderSent)

	_, err = repo.MarkReminderSent(ctx, 99999)
	assert.ErrorIs(t, err, ErrNotFound)

	t.Run("explicit reset", func(t *testing.T) {
		reset := false
		got, err := repo.Update(ctx, a.ID, model.AppointmentPatch{ReminderSent: &reset})
		require.NoError(t, err)
		assert.False(t, got.ReminderSent)

		marked, err := repo.MarkReminderSent(ctx, a.ID)
		require.NoError(t, err)
		assert.True(t, marked)
	})
}

func TestAppointmentRepository_MarkReminderSentConcurrent(t *testing.T) {
	repo := NewAppointmentRepository(NewTestDB(t))
	ctx := context.Background()

	a, err := repo.Create(ctx, newAppointment("Jane Doe"))
	require.NoError(t, err)

	var winners atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := repo.MarkReminderSent(ctx, a.ID)
			assert.NoError(t, err)
			if ok {
				winners.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), winners.Load())
}
