package services

import (
	"errors"
	"fmt"

	"github.com/rosadoagency/appointment-api/internal/model"
)

var (
	ErrValidation         = errors.New("validation failed")
	ErrNotFound           = errors.New("appointment not found")
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrStore              = errors.New("store error")
	ErrAlreadySent        = errors.New("reminder already sent")
	ErrNotificationFailed = errors.New("failed to send reminders")
	ErrDispatchInProgress = errors.New("reminder dispatch already in progress")
)

// ValidationError names the offending field, errors.Is matches ErrValidation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

func newValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// NotificationError carries the per-channel outcome of a dispatch where
// every channel failed.
type NotificationError struct {
	Result model.DispatchResult
}

func (e *NotificationError) Error() string {
	return fmt.Sprintf("%s: email: %s, sms: %s", ErrNotificationFailed, e.Result.EmailError, e.Result.SMSError)
}

func (e *NotificationError) Unwrap() error {
	return ErrNotificationFailed
}

func storeError(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrStore, op, err)
}
