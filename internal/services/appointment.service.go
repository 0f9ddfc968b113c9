package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rosadoagency/appointment-api/internal/model"
	"github.com/rosadoagency/appointment-api/internal/repository"
	"github.com/rosadoagency/appointment-api/pkg/logger"
	"github.com/rosadoagency/appointment-api/pkg/prom"
)

// transitionAttempts bounds the re-reads when a concurrent writer changes
// the status between the check and the guarded update.
const transitionAttempts = 3

type AppointmentRepository interface {
	Create(ctx context.Context, a *model.Appointment) (*model.Appointment, error)
	Get(ctx context.Context, id int64) (*model.Appointment, error)
	List(ctx context.Context) ([]*model.Appointment, error)
	Update(ctx context.Context, id int64, patch model.AppointmentPatch) (*model.Appointment, error)
	UpdateFromStatus(ctx context.Context, id int64, from model.AppointmentStatus, patch model.AppointmentPatch) (*model.Appointment, error)
	Delete(ctx context.Context, id int64) error
}

type AppointmentService struct {
	repo     AppointmentRepository
	validate *validator.Validate
	loc      *time.Location
}

func NewAppointmentService(repo AppointmentRepository, validate *validator.Validate, loc *time.Location) *AppointmentService {
	if validate == nil {
		validate = model.NewValidator()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &AppointmentService{
		repo:     repo,
		validate: validate,
		loc:      loc,
	}
}

func (s *AppointmentService) Create(ctx context.Context, req model.AppointmentCreateRequest) (*model.Appointment, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Phone = strings.TrimSpace(req.Phone)
	req.Email = strings.TrimSpace(req.Email)
	req.Reason = strings.TrimSpace(req.Reason)

	if err := s.validate.Struct(req); err != nil {
		return nil, translateValidation(err)
	}
	req = req.Normalize()

	created, err := s.repo.Create(ctx, &model.Appointment{
		Name:   req.Name,
		Phone:  req.Phone,
		Email:  req.Email,
		Reason: req.Reason,
		Status: model.AppointmentStatusPending,
	})
	if err != nil {
		return nil, storeError("create appointment", err)
	}

	logger.Info("appointment created", "appointment_id", created.ID)
	return created, nil
}

func (s *AppointmentService) Get(ctx context.Context, id int64) (*model.Appointment, error) {
	a, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, mapRepoError("get appointment", err)
	}
	return a, nil
}

func (s *AppointmentService) List(ctx context.Context) ([]*model.Appointment, error) {
	list, err := s.repo.List(ctx)
	if err != nil {
		return nil, storeError("list appointments", err)
	}
	return list, nil
}

// Update applies status, appointment_date, zoom_link and reminder_sent.
// Absent fields are kept, updated_at always advances.
func (s *AppointmentService) Update(ctx context.Context, id int64, req model.AppointmentUpdateRequest) (*model.Appointment, error) {
	patch, err := s.buildPatch(req)
	if err != nil {
		return nil, err
	}
	return s.apply(ctx, id, patch)
}

// Schedule sets appointment_date, zoom_link and status, reminder_sent is
// not reachable from here.
func (s *AppointmentService) Schedule(ctx context.Context, id int64, req model.AppointmentUpdateRequest) (*model.Appointment, error) {
	req.ReminderSent = nil
	patch, err := s.buildPatch(req)
	if err != nil {
		return nil, err
	}
	return s.apply(ctx, id, patch)
}

func (s *AppointmentService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return mapRepoError("delete appointment", err)
	}
	logger.Info("appointment deleted", "appointment_id", id)
	return nil
}

func (s *AppointmentService) buildPatch(req model.AppointmentUpdateRequest) (model.AppointmentPatch, error) {
	req = req.Normalize()
	if err := s.validate.Struct(req); err != nil {
		return model.AppointmentPatch{}, translateValidation(err)
	}

	var patch model.AppointmentPatch
	if req.Status != nil {
		status, err := model.ParseAppointmentStatus(*req.Status)
		if err != nil {
			return patch, newValidationError("status", err.Error())
		}
		patch.Status = &status
	}
	if req.AppointmentDate != nil {
		at, err := model.ParseAppointmentDate(*req.AppointmentDate, s.loc)
		if err != nil {
			return patch, newValidationError("appointment_date", err.Error())
		}
		patch.AppointmentDate = &at
	}
	patch.ZoomLink = req.ZoomLink
	patch.ReminderSent = req.ReminderSent
	return patch, nil
}

func (s *AppointmentService) apply(ctx context.Context, id int64, patch model.AppointmentPatch) (*model.Appointment, error) {
	if patch.Status == nil {
		if patch.IsEmpty() {
			logger.Debug("update without field changes, touching updated_at", "appointment_id", id)
		}
		updated, err := s.repo.Update(ctx, id, patch)
		if err != nil {
			return nil, mapRepoError("update appointment", err)
		}
		return updated, nil
	}

	next := *patch.Status
	for attempt := 0; attempt < transitionAttempts; attempt++ {
		current, err := s.repo.Get(ctx, id)
		if err != nil {
			return nil, mapRepoError("update appointment", err)
		}
		if !current.Status.CanTransitionTo(next) {
			return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current.Status, next)
		}

		updated, err := s.repo.UpdateFromStatus(ctx, id, current.Status, patch)
		if errors.Is(err, repository.ErrStatusChanged) {
			logger.Debug("status changed concurrently, re-checking", "appointment_id", id, "attempt", attempt+1)
			continue
		}
		if err != nil {
			return nil, mapRepoError("update appointment", err)
		}

		if current.Status != next {
			prom.IncAppointmentTransition(string(next))
			logger.Info("appointment status changed", "appointment_id", id, "from", string(current.Status), "to", string(next))
		}
		return updated, nil
	}
	return nil, fmt.Errorf("%w: status of appointment %d keeps changing", ErrInvalidTransition, id)
}

func mapRepoError(op string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound
	}
	return storeError(op, err)
}

func translateValidation(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return newValidationError("", err.Error())
	}

	for _, fe := range verrs {
		if fe.Tag() == "required" {
			return newValidationError(strings.ToLower(fe.Field()), "All fields are required")
		}
	}

	fe := verrs[0]
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "contact_email":
		return newValidationError("email", "Invalid email format")
	case "us_phone":
		return newValidationError("phone", "Invalid phone number format. Please use a 10-digit US phone number.")
	case "appointment_status":
		return newValidationError("status", fmt.Sprintf("Unknown status %q", fmt.Sprint(fe.Value())))
	case "url":
		return newValidationError("zoom_link", "Invalid zoom_link, expected a URL")
	}
	return newValidationError(field, fmt.Sprintf("Invalid %s", field))
}
