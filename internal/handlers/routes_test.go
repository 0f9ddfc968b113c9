package handlers

import (
	"testing"

	"github.com/rosadoagency/appointment-api/internal/model"
	xhttp "github.com/rosadoagency/appointment-api/pkg/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestRoutes(t *testing.T) {
	appointments := new(MockAppointmentService)
	reminders := new(MockReminderService)
	sweep := new(MockSweepService)

	r := xhttp.CreateDefaultRouter()
	g := r.Group("/api")
	RegisterAppointmentRoutes(g, NewAppointmentHandler(appointments))
	RegisterReminderRoutes(g, NewReminderHandler(reminders, sweep))

	appointments.On("Schedule", mock.Anything, int64(12), mock.Anything).Return(sampleAppointment(12), nil)
	appointments.On("Get", mock.Anything, int64(12)).Return(sampleAppointment(12), nil)
	reminders.On("Preview", mock.Anything, int64(12)).Return(&model.ReminderPreview{Appointment: sampleAppointment(12)}, nil)
	sweep.On("Run", mock.Anything).Return(&model.SweepResult{Results: []model.SweepItem{}}, nil)

	tests := []struct {
		method string
		path   string
		status int
	}{
		{"PUT", "/api/appointments/12/schedule", 200},
		{"GET", "/api/appointments/12", 200},
		{"POST", "/api/reminders/test/12", 200},
		{"POST", "/api/reminders/daily", 200},
		{"GET", "/api/unknown", 404},
		{"PATCH", "/api/appointments/12", 405},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			ctx := setupTestContext(tt.method, tt.path, nil)
			r.Handler(ctx)
			assert.Equal(t, tt.status, ctx.Response.StatusCode())
		})
	}

	appointments.AssertExpectations(t)
	reminders.AssertExpectations(t)
	sweep.AssertExpectations(t)
}
