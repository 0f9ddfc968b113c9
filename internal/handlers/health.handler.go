package handlers

import (
	"context"

	"github.com/rosadoagency/appointment-api/internal/services"
	xhttp "github.com/rosadoagency/appointment-api/pkg/http"
	"github.com/rosadoagency/appointment-api/pkg/logger"
)

type HealthService interface {
	Check(ctx context.Context) (services.HealthStatus, error)
}

type HealthHandler struct {
	svc HealthService
}

func RegisterHealthRoutes(e *xhttp.Group, h *HealthHandler) {
	e.GET("/health", h.GetHealth)
}

func NewHealthHandler(svc HealthService) *HealthHandler {
	return &HealthHandler{svc: svc}
}

func (h *HealthHandler) GetHealth(ctx *xhttp.RequestCtx) {
	status, err := h.svc.Check(ctx)
	if err != nil {
		logger.Warn("health check failed", "error", err)
		writeJSON(ctx, xhttp.StatusServiceUnavailable, status)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, status)
}
