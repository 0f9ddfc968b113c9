package handlers

import (
	"context"
	"fmt"

	"github.com/rosadoagency/appointment-api/internal/model"
	xhttp "github.com/rosadoagency/appointment-api/pkg/http"
)

type ReminderService interface {
	Send(ctx context.Context, id int64) (*model.DispatchResult, error)
	Preview(ctx context.Context, id int64) (*model.ReminderPreview, error)
}

type SweepService interface {
	Run(ctx context.Context) (*model.SweepResult, error)
}

type ReminderHandler struct {
	reminders ReminderService
	sweep     SweepService
}

func RegisterReminderRoutes(e *xhttp.Group, h *ReminderHandler) {
	e.POST("/reminders/send/{id}", h.SendReminder)
	e.POST("/reminders/test/{id}", h.TestReminder)
	e.POST("/reminders/daily", h.RunDailyReminders)
}

func NewReminderHandler(reminders ReminderService, sweep SweepService) *ReminderHandler {
	return &ReminderHandler{
		reminders: reminders,
		sweep:     sweep,
	}
}

type sendReminderResponse struct {
	Message string                `json:"message"`
	Details string                `json:"details"`
	Result  *model.DispatchResult `json:"result"`
}

type previewResponse struct {
	Message string `json:"message"`
	*model.ReminderPreview
}

func (h *ReminderHandler) SendReminder(ctx *xhttp.RequestCtx) {
	withID(ctx, func(id int64) {
		res, err := h.reminders.Send(ctx, id)
		if err != nil {
			writeServiceError(ctx, err, "An error occurred")
			return
		}
		writeJSON(ctx, xhttp.StatusOK, sendReminderResponse{
			Message: "Reminders sent successfully",
			Details: fmt.Sprintf("Email: %t, SMS: %t", res.EmailOK, res.SMSOK),
			Result:  res,
		})
	})
}

func (h *ReminderHandler) TestReminder(ctx *xhttp.RequestCtx) {
	withID(ctx, func(id int64) {
		preview, err := h.reminders.Preview(ctx, id)
		if err != nil {
			writeServiceError(ctx, err, "An error occurred")
			return
		}
		writeJSON(ctx, xhttp.StatusOK, previewResponse{
			Message:         "Test reminder simulation completed",
			ReminderPreview: preview,
		})
	})
}

func (h *ReminderHandler) RunDailyReminders(ctx *xhttp.RequestCtx) {
	res, err := h.sweep.Run(ctx)
	if err != nil {
		writeServiceError(ctx, err, "An error occurred")
		return
	}
	writeJSON(ctx, xhttp.StatusOK, res)
}
