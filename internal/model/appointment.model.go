package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// AppointmentStatus is the lifecycle state of an appointment.
type AppointmentStatus string

const (
	AppointmentStatusPending   AppointmentStatus = "pending"
	AppointmentStatusScheduled AppointmentStatus = "scheduled"
	AppointmentStatusConfirmed AppointmentStatus = "confirmed"
	AppointmentStatusCancelled AppointmentStatus = "cancelled"
	AppointmentStatusCompleted AppointmentStatus = "completed"
)

var ErrUnknownStatus = errors.New("unknown appointment status")

// transitions lists the statuses reachable from each status. Staying in the
// same status is always allowed and is not listed.
var transitions = map[AppointmentStatus][]AppointmentStatus{
	AppointmentStatusPending:   {AppointmentStatusScheduled, AppointmentStatusConfirmed, AppointmentStatusCancelled},
	AppointmentStatusScheduled: {AppointmentStatusPending, AppointmentStatusConfirmed, AppointmentStatusCancelled},
	AppointmentStatusConfirmed: {AppointmentStatusScheduled, AppointmentStatusCompleted, AppointmentStatusCancelled},
	AppointmentStatusCancelled: {AppointmentStatusPending},
	AppointmentStatusCompleted: {},
}

func (s AppointmentStatus) Valid() bool {
	_, ok := transitions[s]
	return ok
}

func ParseAppointmentStatus(s string) (AppointmentStatus, error) {
	st := AppointmentStatus(strings.ToLower(strings.TrimSpace(s)))
	if !st.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownStatus, s)
	}
	return st, nil
}

// CanTransitionTo reports whether an appointment in s may move to next.
func (s AppointmentStatus) CanTransitionTo(next AppointmentStatus) bool {
	if s == next {
		return next.Valid()
	}
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type Appointment struct {
	ID              int64             `json:"id"`
	Name            string            `json:"name"`
	Phone           string            `json:"phone"`
	Email           string            `json:"email"`
	Reason          string            `json:"reason"`
	Status          AppointmentStatus `json:"status"`
	AppointmentDate *time.Time        `json:"appointment_date"`
	ZoomLink        *string           `json:"zoom_link"`
	ReminderSent    bool              `json:"reminder_sent"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

// AppointmentCreateRequest is the public appointment request form.
type AppointmentCreateRequest struct {
	Name   string `json:"name"   validate:"required"`
	Phone  string `json:"phone"  validate:"required,us_phone"`
	Email  string `json:"email"  validate:"required,contact_email"`
	Reason string `json:"reason" validate:"required"`
}

// Normalize trims every field, lower-cases the email and reduces the phone
// to its digits. Call it after validation succeeded.
func (r AppointmentCreateRequest) Normalize() AppointmentCreateRequest {
	return AppointmentCreateRequest{
		Name:   strings.TrimSpace(r.Name),
		Phone:  NormalizePhone(r.Phone),
		Email:  NormalizeEmail(r.Email),
		Reason: strings.TrimSpace(r.Reason),
	}
}

// AppointmentUpdateRequest is the body of the update and schedule
// endpoints. Empty strings count as absent.
type AppointmentUpdateRequest struct {
	Status          *string `json:"status"           validate:"omitempty,appointment_status"`
	AppointmentDate *string `json:"appointment_date"`
	ZoomLink        *string `json:"zoom_link"        validate:"omitempty,url"`
	ReminderSent    *bool   `json:"reminder_sent"`
}

// Normalize trims the string fields and drops the empty ones.
func (r AppointmentUpdateRequest) Normalize() AppointmentUpdateRequest {
	return AppointmentUpdateRequest{
		Status:          trimmedOrNil(r.Status),
		AppointmentDate: trimmedOrNil(r.AppointmentDate),
		ZoomLink:        trimmedOrNil(r.ZoomLink),
		ReminderSent:    r.ReminderSent,
	}
}

func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

// AppointmentPatch carries a sparse update: nil fields are left untouched.
type AppointmentPatch struct {
	Status          *AppointmentStatus
	AppointmentDate *time.Time
	ZoomLink        *string
	ReminderSent    *bool
}

func (p AppointmentPatch) IsEmpty() bool {
	return p.Status == nil && p.AppointmentDate == nil && p.ZoomLink == nil && p.ReminderSent == nil
}

// AppointmentDateLayouts are tried in order for dates without an offset,
// which are read in the agency time zone.
var AppointmentDateLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseAppointmentDate accepts RFC3339 or one of AppointmentDateLayouts.
func ParseAppointmentDate(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	for _, layout := range AppointmentDateLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid appointment_date %q, expected RFC3339, YYYY-MM-DDTHH:MM or YYYY-MM-DD", s)
}

// DayBounds returns [start of day, start of next day) of t in loc.
func DayBounds(t time.Time, loc *time.Location) (time.Time, time.Time) {
	t = t.In(loc)
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 0, 1)
}
