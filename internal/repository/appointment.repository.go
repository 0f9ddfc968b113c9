package repository

import (
	"context"
	"errors"
	"time"

	"github.com/rosadoagency/appointment-api/internal/model"
	"github.com/rosadoagency/appointment-api/pkg/pg"
	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned when an appointment does not exist.
	ErrNotFound = errors.New("appointment not found")
	// ErrStatusChanged is returned by UpdateFromStatus when the stored status
	// no longer matches the expected one.
	ErrStatusChanged = errors.New("appointment status changed concurrently")
)

type AppointmentRepository struct {
	*pg.DB
	now func() time.Time
}

func NewAppointmentRepository(db *pg.DB) *AppointmentRepository {
	return &AppointmentRepository{
		DB:  db,
		now: func() time.Time { return time.Now().UTC() },
	}
}

func (r *AppointmentRepository) Create(ctx context.Context, a *model.Appointment) (*model.Appointment, error) {
	entity := toAppointmentEntity(a)
	entity.ID = 0
	if entity.Status == "" {
		entity.Status = string(model.AppointmentStatusPending)
	}
	now := r.now()
	entity.CreatedAt = now
	entity.UpdatedAt = now

	if err := r.Write(ctx).Create(entity).Error; err != nil {
		return nil, err
	}

	return toAppointmentModel(entity), nil
}

func (r *AppointmentRepository) Get(ctx context.Context, id int64) (*model.Appointment, error) {
	var entity AppointmentEntity
	err := r.Read(ctx).Where("id = ?", id).First(&entity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return toAppointmentModel(&entity), nil
}

// List returns every appointment, newest first.
func (r *AppointmentRepository) List(ctx context.Context) ([]*model.Appointment, error) {
	var entities []*AppointmentEntity
	if err := r.Read(ctx).Order("created_at DESC").Order("id DESC").Find(&entities).Error; err != nil {
		return nil, err
	}
	return toAppointmentModels(entities), nil
}

// Update applies the non-nil fields of patch and always refreshes updated_at.
func (r *AppointmentRepository) Update(ctx context.Context, id int64, patch model.AppointmentPatch) (*model.Appointment, error) {
	res := r.Write(ctx).
		Model(&AppointmentEntity{}).
		Where("id = ?", id).
		Updates(r.patchColumns(patch))
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return r.Get(ctx, id)
}

// UpdateFromStatus is Update guarded by the current status, the row only
// changes while its status still equals from.
func (r *AppointmentRepository) UpdateFromStatus(ctx context.Context, id int64, from model.AppointmentStatus, patch model.AppointmentPatch) (*model.Appointment, error) {
	res := r.Write(ctx).
		Model(&AppointmentEntity{}).
		Where("id = ? AND status = ?", id, string(from)).
		Updates(r.patchColumns(patch))
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		if _, err := r.Get(ctx, id); err != nil {
			return nil, err
		}
		return nil, ErrStatusChanged
	}
	return r.Get(ctx, id)
}

func (r *AppointmentRepository) patchColumns(patch model.AppointmentPatch) map[string]interface{} {
	cols := map[string]interface{}{
		"updated_at": r.now(),
	}
	if patch.Status != nil {
		cols["status"] = string(*patch.Status)
	}
	if patch.AppointmentDate != nil {
		cols["appointment_date"] = patch.AppointmentDate.UTC()
	}
	if patch.ZoomLink != nil {
		cols["zoom_link"] = *patch.ZoomLink
	}
	if patch.ReminderSent != nil {
		cols["reminder_sent"] = *patch.ReminderSent
	}
	return cols
}

func (r *AppointmentRepository) Delete(ctx context.Context, id int64) error {
	res := r.Write(ctx).Where("id = ?", id).Delete(&AppointmentEntity{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// FindDueOn returns confirmed appointments without a reminder whose
// appointment_date falls in [from, to), earliest first.
func (r *AppointmentRepository) FindDueOn(ctx context.Context, from, to time.Time) ([]*model.Appointment, error) {
	var entities []*AppointmentEntity
	err := r.Read(ctx).
		Where("status = ?", string(model.AppointmentStatusConfirmed)).
		Where("reminder_sent = ?", false).
		Where("appointment_date >= ? AND appointment_date < ?", from.UTC(), to.UTC()).
		Order("appointment_date ASC").
		Order("id ASC").
		Find(&entities).Error
	if err != nil {
		return nil, err
	}
	return toAppointmentModels(entities), nil
}

// MarkReminderSent flips reminder_sent false -> true in one conditional
// statement. It reports false when the flag was already set.
func (r *AppointmentRepository) MarkReminderSent(ctx context.Context, id int64) (bool, error) {
	res := r.Write(ctx).
		Model(&AppointmentEntity{}).
		Where("id = ? AND reminder_sent = ?", id, false).
		Updates(map[string]interface{}{
			"reminder_sent": true,
			"updated_at":    r.now(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 1 {
		return true, nil
	}
	if _, err := r.Get(ctx, id); err != nil {
		return false, err
	}
	return false, nil
}
