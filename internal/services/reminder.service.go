package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	gateway "github.com/rosadoagency/appointment-api/internal/gateways"
	"github.com/rosadoagency/appointment-api/internal/idempotency"
	"github.com/rosadoagency/appointment-api/internal/model"
	"github.com/rosadoagency/appointment-api/pkg/logger"
	"github.com/rosadoagency/appointment-api/pkg/prom"
)

const (
	TriggerManual = "manual"
	TriggerSweep  = "sweep"
)

type ReminderRepository interface {
	Get(ctx context.Context, id int64) (*model.Appointment, error)
	MarkReminderSent(ctx context.Context, id int64) (bool, error)
}

type ReminderConfig struct {
	Message MessageConfig
	// ChannelTimeout bounds each gateway call, a call that runs out counts
	// as a failed channel.
	ChannelTimeout time.Duration
}

type ReminderService struct {
	repo   ReminderRepository
	email  gateway.EmailSender
	sms    gateway.SMSSender
	locker idempotency.Locker
	config ReminderConfig
}

func NewReminderService(repo ReminderRepository, email gateway.EmailSender, sms gateway.SMSSender, locker idempotency.Locker, config ReminderConfig) *ReminderService {
	if locker == nil {
		locker = idempotency.NewLocalLocker()
	}
	if config.ChannelTimeout <= 0 {
		config.ChannelTimeout = 5 * time.Second
	}
	return &ReminderService{
		repo:   repo,
		email:  email,
		sms:    sms,
		locker: locker,
		config: config,
	}
}

// Send delivers the reminder of one appointment over email and SMS. The
// appointment is marked as reminded when at least one channel delivered.
func (s *ReminderService) Send(ctx context.Context, id int64) (*model.DispatchResult, error) {
	return s.dispatch(ctx, id, TriggerManual)
}

func (s *ReminderService) dispatch(ctx context.Context, id int64, trigger string) (result *model.DispatchResult, err error) {
	defer func() {
		prom.IncReminderDispatch(trigger, dispatchOutcome(err))
	}()

	lease, err := s.locker.Acquire(ctx, id)
	if err != nil {
		if errors.Is(err, idempotency.ErrLockHeld) {
			return nil, ErrDispatchInProgress
		}
		return nil, storeError("acquire dispatch lock", err)
	}
	defer func() {
		// the request context may already be done, release regardless
		_ = lease.Release(context.WithoutCancel(ctx))
	}()

	a, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, mapRepoError("load appointment", err)
	}
	if a.ReminderSent {
		return nil, ErrAlreadySent
	}

	res := s.deliver(ctx, a)
	if !res.Success() {
		logger.Warn("reminder failed on every channel",
			"appointment_id", id,
			"trigger", trigger,
			"email_error", res.EmailError,
			"sms_error", res.SMSError)
		return &res, &NotificationError{Result: res}
	}

	marked, err := s.repo.MarkReminderSent(ctx, id)
	if err != nil {
		return &res, mapRepoError("mark reminder sent", err)
	}
	if !marked {
		return &res, ErrAlreadySent
	}

	logger.Info("reminder sent",
		"appointment_id", id,
		"trigger", trigger,
		"email", res.EmailOK,
		"sms", res.SMSOK)
	return &res, nil
}

// deliver attempts both channels, each under its own timeout.
func (s *ReminderService) deliver(ctx context.Context, a *model.Appointment) model.DispatchResult {
	res := model.DispatchResult{AppointmentID: a.ID}

	if err := s.sendEmail(ctx, a); err != nil {
		res.EmailError = err.Error()
	} else {
		res.EmailOK = true
	}
	prom.IncReminderChannel(model.ChannelEmail, res.EmailOK)

	if err := s.sendSMS(ctx, a); err != nil {
		res.SMSError = err.Error()
	} else {
		res.SMSOK = true
	}
	prom.IncReminderChannel(model.ChannelSMS, res.SMSOK)

	return res
}

func (s *ReminderService) sendEmail(ctx context.Context, a *model.Appointment) error {
	if s.email == nil {
		return errors.New("email gateway is not configured")
	}
	msg, err := ComposeEmail(a, s.config.Message)
	if err != nil {
		return fmt.Errorf("compose email: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, s.config.ChannelTimeout)
	defer cancel()
	_, err = s.email.SendEmail(ctx, msg)
	if err != nil {
		logger.Warn("email reminder failed", "appointment_id", a.ID, "error", err)
	}
	return err
}

func (s *ReminderService) sendSMS(ctx context.Context, a *model.Appointment) error {
	if s.sms == nil {
		return errors.New("sms gateway is not configured")
	}
	msg := ComposeSMS(a, s.config.Message)
	ctx, cancel := context.WithTimeout(ctx, s.config.ChannelTimeout)
	defer cancel()
	_, err := s.sms.SendSMS(ctx, msg)
	if err != nil {
		logger.Warn("sms reminder failed", "appointment_id", a.ID, "error", err)
	}
	return err
}

// Preview composes the reminder of one appointment without sending it.
func (s *ReminderService) Preview(ctx context.Context, id int64) (*model.ReminderPreview, error) {
	a, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, mapRepoError("load appointment", err)
	}

	email, err := ComposeEmail(a, s.config.Message)
	if err != nil {
		return nil, fmt.Errorf("compose email: %w", err)
	}
	sms := ComposeSMS(a, s.config.Message)

	return &model.ReminderPreview{
		Appointment:    a,
		Email:          email,
		SMS:            sms,
		ReminderSent:   a.ReminderSent,
		EmailSimulated: "Email would be sent to: " + email.To,
		SMSSimulated:   "SMS would be sent to: " + sms.To,
	}, nil
}

func dispatchOutcome(err error) string {
	switch {
	case err == nil:
		return "sent"
	case errors.Is(err, ErrAlreadySent):
		return "already_sent"
	case errors.Is(err, ErrDispatchInProgress):
		return "busy"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	default:
		return "failed"
	}
}
