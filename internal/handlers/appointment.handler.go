package handlers

import (
	"context"

	"github.com/rosadoagency/appointment-api/internal/model"
	xhttp "github.com/rosadoagency/appointment-api/pkg/http"
)

type AppointmentService interface {
	Create(ctx context.Context, req model.AppointmentCreateRequest) (*model.Appointment, error)
	Get(ctx context.Context, id int64) (*model.Appointment, error)
	List(ctx context.Context) ([]*model.Appointment, error)
	Update(ctx context.Context, id int64, req model.AppointmentUpdateRequest) (*model.Appointment, error)
	Schedule(ctx context.Context, id int64, req model.AppointmentUpdateRequest) (*model.Appointment, error)
	Delete(ctx context.Context, id int64) error
}

type AppointmentHandler struct {
	svc AppointmentService
}

func RegisterAppointmentRoutes(e *xhttp.Group, h *AppointmentHandler) {
	e.POST("/appointments", h.CreateAppointment)
	e.GET("/appointments", h.ListAppointments)
	e.GET("/appointments/{id}", h.GetAppointment)
	e.PUT("/appointments/{id}", h.UpdateAppointment)
	e.DELETE("/appointments/{id}", h.DeleteAppointment)
	e.PUT("/appointments/{id}/schedule", h.ScheduleAppointment)
}

func NewAppointmentHandler(svc AppointmentService) *AppointmentHandler {
	return &AppointmentHandler{svc: svc}
}

type appointmentResponse struct {
	Message     string             `json:"message,omitempty"`
	Appointment *model.Appointment `json:"appointment"`
}

type appointmentListResponse struct {
	Appointments []*model.Appointment `json:"appointments"`
}

func (h *AppointmentHandler) CreateAppointment(ctx *xhttp.RequestCtx) {
	var req model.AppointmentCreateRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, xhttp.StatusBadRequest, CodeValidation, "invalid JSON: "+err.Error())
		return
	}

	a, err := h.svc.Create(ctx, req)
	if err != nil {
		writeServiceError(ctx, err, "An error occurred while processing your request")
		return
	}
	writeJSON(ctx, xhttp.StatusCreated, appointmentResponse{
		Message:     "Appointment request submitted successfully",
		Appointment: a,
	})
}

func (h *AppointmentHandler) ListAppointments(ctx *xhttp.RequestCtx) {
	list, err := h.svc.List(ctx)
	if err != nil {
		writeServiceError(ctx, err, "An error occurred while fetching appointments")
		return
	}
	if list == nil {
		list = []*model.Appointment{}
	}
	writeJSON(ctx, xhttp.StatusOK, appointmentListResponse{Appointments: list})
}

func (h *AppointmentHandler) GetAppointment(ctx *xhttp.RequestCtx) {
	withID(ctx, func(id int64) {
		a, err := h.svc.Get(ctx, id)
		if err != nil {
			writeServiceError(ctx, err, "An error occurred while fetching the appointment")
			return
		}
		writeJSON(ctx, xhttp.StatusOK, appointmentResponse{Appointment: a})
	})
}

func (h *AppointmentHandler) UpdateAppointment(ctx *xhttp.RequestCtx) {
	withID(ctx, func(id int64) {
		var req model.AppointmentUpdateRequest
		if err := readJSON(ctx, &req); err != nil {
			writeError(ctx, xhttp.StatusBadRequest, CodeValidation, "invalid JSON: "+err.Error())
			return
		}

		a, err := h.svc.Update(ctx, id, req)
		if err != nil {
			writeServiceError(ctx, err, "An error occurred while updating the appointment")
			return
		}
		writeJSON(ctx, xhttp.StatusOK, appointmentResponse{
			Message:     "Appointment updated successfully",
			Appointment: a,
		})
	})
}

func (h *AppointmentHandler) ScheduleAppointment(ctx *xhttp.RequestCtx) {
	withID(ctx, func(id int64) {
		var req model.AppointmentUpdateRequest
		if err := readJSON(ctx, &req); err != nil {
			writeError(ctx, xhttp.StatusBadRequest, CodeValidation, "invalid JSON: "+err.Error())
			return
		}

		a, err := h.svc.Schedule(ctx, id, req)
		if err != nil {
			writeServiceError(ctx, err, "An error occurred while scheduling the appointment")
			return
		}
		writeJSON(ctx, xhttp.StatusOK, appointmentResponse{
			Message:     "Appointment scheduled successfully",
			Appointment: a,
		})
	})
}

func (h *AppointmentHandler) DeleteAppointment(ctx *xhttp.RequestCtx) {
	withID(ctx, func(id int64) {
		if err := h.svc.Delete(ctx, id); err != nil {
			writeServiceError(ctx, err, "An error occurred while deleting the appointment")
			return
		}
		writeJSON(ctx, xhttp.StatusOK, messageResponse{Message: "Appointment deleted successfully"})
	})
}
