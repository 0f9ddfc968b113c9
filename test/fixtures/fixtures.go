package fixtures

import (
	"time"

	"github.com/rosadoagency/appointment-api/internal/model"
)

var (
	MariaRequest = model.AppointmentCreateRequest{
		Name:   "Maria Lopez",
		Phone:  "(254) 548-4815",
		Email:  "maria@example.com",
		Reason: "Auto insurance quote",
	}

	JamesRequest = model.AppointmentCreateRequest{
		Name:   "James Carter",
		Phone:  "254.555.0199",
		Email:  "james.carter@example.com",
		Reason: "Home insurance renewal",
	}

	InvalidPhoneRequest = model.AppointmentCreateRequest{
		Name:   "Ana Ruiz",
		Phone:  "12345",
		Email:  "ana@example.com",
		Reason: "Life insurance",
	}
)

func NewTestAppointment(name, email, phone string) *model.Appointment {
	return &model.Appointment{
		Name:   name,
		Phone:  phone,
		Email:  email,
		Reason: "Insurance review",
	}
}

// NewConfirmedAppointment is due on the given day at 14:30 local time.
func NewConfirmedAppointment(name string, day time.Time, zoom *string) *model.Appointment {
	at := time.Date(day.Year(), day.Month(), day.Day(), 14, 30, 0, 0, day.Location())
	return &model.Appointment{
		Name:            name,
		Phone:           "2545484815",
		Email:           "client@example.com",
		Reason:          "Insurance review",
		Status:          model.AppointmentStatusConfirmed,
		AppointmentDate: &at,
		ZoomLink:        zoom,
	}
}
