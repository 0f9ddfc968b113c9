package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppointmentStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from, to AppointmentStatus
		want     bool
	}{
		{AppointmentStatusPending, AppointmentStatusConfirmed, true},
		{AppointmentStatusPending, AppointmentStatusScheduled, true},
		{AppointmentStatusPending, AppointmentStatusCompleted, false},
		{AppointmentStatusScheduled, AppointmentStatusConfirmed, true},
		{AppointmentStatusConfirmed, AppointmentStatusCompleted, true},
		{AppointmentStatusConfirmed, AppointmentStatusPending, false},
		{AppointmentStatusCancelled, AppointmentStatusPending, true},
		{AppointmentStatusCancelled, AppointmentStatusConfirmed, false},
		{AppointmentStatusCompleted, AppointmentStatusPending, false},
		{AppointmentStatusCompleted, AppointmentStatusCompleted, true},
		{AppointmentStatusPending, AppointmentStatus("archived"), false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestParseAppointmentStatus(t *testing.T) {
	st, err := ParseAppointmentStatus(" Confirmed ")
	require.NoError(t, err)
	assert.Equal(t, AppointmentStatusConfirmed, st)

	_, err = ParseAppointmentStatus("archived")
	assert.ErrorIs(t, err, ErrUnknownStatus)
}

func TestParseAppointmentDate(t *testing.T) {
	loc, err := time.LoadLocation("America/Chicago")
	require.NoError(t, err)

	t.Run("rfc3339 keeps its offset", func(t *testing.T) {
		got, err := ParseAppointmentDate("2026-10-15T14:00:00Z", loc)
		require.NoError(t, err)
		assert.True(t, got.Equal(time.Date(2026, 10, 15, 14, 0, 0, 0, time.UTC)))
	})

	t.Run("datetime-local is read in the agency zone", func(t *testing.T) {
		got, err := ParseAppointmentDate("2026-10-15T09:30", loc)
		require.NoError(t, err)
		assert.True(t, got.Equal(time.Date(2026, 10, 15, 9, 30, 0, 0, loc)))
	})

	t.Run("date only is midnight in the agency zone", func(t *testing.T) {
		got, err := ParseAppointmentDate("2026-03-10", loc)
		require.NoError(t, err)
		assert.True(t, got.Equal(time.Date(2026, 3, 10, 0, 0, 0, 0, loc)))
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := ParseAppointmentDate("tomorrow-ish", loc)
		assert.Error(t, err)
	})
}

func TestDayBounds(t *testing.T) {
	loc, err := time.LoadLocation("America/Chicago")
	require.NoError(t, err)

	// 03:00 UTC on the 16th is still the 15th in Chicago
	start, end := DayBounds(time.Date(2026, 10, 16, 3, 0, 0, 0, time.UTC), loc)
	assert.True(t, start.Equal(time.Date(2026, 10, 15, 0, 0, 0, 0, loc)))
	assert.True(t, end.Equal(time.Date(2026, 10, 16, 0, 0, 0, 0, loc)))
}

func TestAppointmentPatch_IsEmpty(t *testing.T) {
	assert.True(t, AppointmentPatch{}.IsEmpty())
	sent := false
	assert.False(t, AppointmentPatch{ReminderSent: &sent}.IsEmpty())
}

func TestAppointmentUpdateRequest_Normalize(t *testing.T) {
	status := "  confirmed "
	empty := "   "
	sent := false

	got := AppointmentUpdateRequest{
		Status:       &status,
		ZoomLink:     &empty,
		ReminderSent: &sent,
	}.Normalize()

	require.NotNil(t, got.Status)
	assert.Equal(t, "confirmed", *got.Status)
	assert.Nil(t, got.ZoomLink)
	assert.Nil(t, got.AppointmentDate)
	require.NotNil(t, got.ReminderSent)
	assert.False(t, *got.ReminderSent)
	assert.Equal(t, "  confirmed ", status, "input is not modified")
}
