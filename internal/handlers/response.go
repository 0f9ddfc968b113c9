package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/rosadoagency/appointment-api/internal/services"
	xhttp "github.com/rosadoagency/appointment-api/pkg/http"
	"github.com/rosadoagency/appointment-api/pkg/logger"
)

const (
	CodeValidation         = "validation_error"
	CodeInvalidID          = "invalid_id"
	CodeNotFound           = "not_found"
	CodeInvalidTransition  = "invalid_transition"
	CodeAlreadySent        = "already_sent"
	CodeDispatchInProgress = "dispatch_in_progress"
	CodeNotificationFailed = "notification_failed"
	CodeStore              = "store_error"
	CodeUnavailable        = "unavailable"
)

type errorResponse struct {
	Error  string `json:"error"`
	Code   string `json:"code"`
	Result any    `json:"result,omitempty"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// readJSON treats an empty body as an empty object.
func readJSON(ctx *xhttp.RequestCtx, dst any) error {
	body := bytes.TrimSpace(ctx.PostBody())
	if len(body) == 0 {
		return nil
	}
	return json.Unmarshal(body, dst)
}

func writeJSON(ctx *xhttp.RequestCtx, status int, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		logger.Error("failed to encode response", "error", err)
		status = xhttp.StatusInternalServerError
		b = []byte(`{"error":"internal error","code":"internal_error"}`)
	}
	ctx.Response.Header.Set("Content-Type", "application/json; charset=utf-8")
	ctx.Response.SetStatusCode(status)
	ctx.Response.SetBodyRaw(b)
}

func writeError(ctx *xhttp.RequestCtx, status int, code, msg string) {
	writeJSON(ctx, status, errorResponse{Error: msg, Code: code})
}

// pathID reads the {id} route parameter as a positive integer.
func pathID(ctx *xhttp.RequestCtx) (int64, error) {
	raw := fmt.Sprint(ctx.UserValue("id"))
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid appointment id %q", raw)
	}
	return id, nil
}

func withID(ctx *xhttp.RequestCtx, next func(id int64)) {
	id, err := pathID(ctx)
	if err != nil {
		writeError(ctx, xhttp.StatusBadRequest, CodeInvalidID, "Invalid appointment id")
		return
	}
	next(id)
}

// writeServiceError maps service errors to status and code. storeMsg is
// the client message for unexpected failures, internals stay in the log.
func writeServiceError(ctx *xhttp.RequestCtx, err error, storeMsg string) {
	var verr *services.ValidationError
	var nerr *services.NotificationError

	switch {
	case errors.As(err, &verr):
		writeError(ctx, xhttp.StatusBadRequest, CodeValidation, verr.Message)
	case errors.Is(err, services.ErrValidation):
		writeError(ctx, xhttp.StatusBadRequest, CodeValidation, err.Error())
	case errors.Is(err, services.ErrNotFound):
		writeError(ctx, xhttp.StatusNotFound, CodeNotFound, "Appointment not found")
	case errors.Is(err, services.ErrInvalidTransition):
		writeError(ctx, xhttp.StatusConflict, CodeInvalidTransition, err.Error())
	case errors.Is(err, services.ErrAlreadySent):
		writeError(ctx, xhttp.StatusBadRequest, CodeAlreadySent, "Reminder already sent")
	case errors.Is(err, services.ErrDispatchInProgress):
		writeError(ctx, xhttp.StatusConflict, CodeDispatchInProgress, "Reminder dispatch already in progress")
	case errors.As(err, &nerr):
		writeJSON(ctx, xhttp.StatusInternalServerError, errorResponse{
			Error:  "Failed to send reminders",
			Code:   CodeNotificationFailed,
			Result: nerr.Result,
		})
	default:
		logger.Error("request failed", "path", string(ctx.Path()), "request_id", xhttp.RequestID(ctx), "error", err)
		writeError(ctx, xhttp.StatusInternalServerError, CodeStore, storeMsg)
	}
}
