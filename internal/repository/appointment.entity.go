package repository

import (
	"time"

	"github.com/rosadoagency/appointment-api/internal/model"
)

type AppointmentEntity struct {
	ID              int64      `db:"id"               gorm:"primaryKey;autoIncrement;column:id"`
	Name            string     `db:"name"             gorm:"column:name;size:255;not null"`
	Phone           string     `db:"phone"            gorm:"column:phone;size:20;not null"`
	Email           string     `db:"email"            gorm:"column:email;size:255;not null"`
	Reason          string     `db:"reason"           gorm:"column:reason;type:text;not null"`
	Status          string     `db:"status"           gorm:"column:status;size:50;not null;default:pending"`
	AppointmentDate *time.Time `db:"appointment_date" gorm:"column:appointment_date;index"`
	ZoomLink        *string    `db:"zoom_link"        gorm:"column:zoom_link;type:text"`
	ReminderSent    bool       `db:"reminder_sent"    gorm:"column:reminder_sent;not null;default:false"`
	CreatedAt       time.Time  `db:"created_at"       gorm:"column:created_at;not null;index"`
	UpdatedAt       time.Time  `db:"updated_at"       gorm:"column:updated_at;not null"`
}

func (AppointmentEntity) TableName() string {
	return "appointments"
}

func toAppointmentEntity(a *model.Appointment) *AppointmentEntity {
	if a == nil {
		return nil
	}
	return &AppointmentEntity{
		ID:              a.ID,
		Name:            a.Name,
		Phone:           a.Phone,
		Email:           a.Email,
		Reason:          a.Reason,
		Status:          string(a.Status),
		AppointmentDate: utcPtr(a.AppointmentDate),
		ZoomLink:        a.ZoomLink,
		ReminderSent:    a.ReminderSent,
		CreatedAt:       a.CreatedAt,
		UpdatedAt:       a.UpdatedAt,
	}
}

func toAppointmentModel(e *AppointmentEntity) *model.Appointment {
	if e == nil {
		return nil
	}
	return &model.Appointment{
		ID:              e.ID,
		Name:            e.Name,
		Phone:           e.Phone,
		Email:           e.Email,
		Reason:          e.Reason,
		Status:          model.AppointmentStatus(e.Status),
		AppointmentDate: e.AppointmentDate,
		ZoomLink:        e.ZoomLink,
		ReminderSent:    e.ReminderSent,
		CreatedAt:       e.CreatedAt,
		UpdatedAt:       e.UpdatedAt,
	}
}

func toAppointmentModels(entities []*AppointmentEntity) []*model.Appointment {
	models := make([]*model.Appointment, len(entities))
	for i, e := range entities {
		models[i] = toAppointmentModel(e)
	}
	return models
}

// times are stored in UTC so range filters compare consistently on every driver
func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
