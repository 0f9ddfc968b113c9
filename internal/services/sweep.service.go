package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rosadoagency/appointment-api/internal/model"
	"github.com/rosadoagency/appointment-api/pkg/logger"
	"github.com/rosadoagency/appointment-api/pkg/prom"
	"github.com/rosadoagency/appointment-api/pkg/worker"
)

type DueAppointmentFinder interface {
	FindDueOn(ctx context.Context, from, to time.Time) ([]*model.Appointment, error)
}

type SweepConfig struct {
	Location    *time.Location
	Concurrency int
	// Timeout bounds a whole run, zero means no bound.
	Timeout time.Duration
}

// SweepService sends the reminders of every confirmed appointment due
// today that has not been reminded yet.
type SweepService struct {
	finder    DueAppointmentFinder
	reminders *ReminderService
	config    SweepConfig
	now       func() time.Time
}

func NewSweepService(finder DueAppointmentFinder, reminders *ReminderService, config SweepConfig) *SweepService {
	if config.Location == nil {
		config.Location = time.UTC
	}
	if config.Concurrency < 1 {
		config.Concurrency = 1
	}
	return &SweepService{
		finder:    finder,
		reminders: reminders,
		config:    config,
		now:       time.Now,
	}
}

// Run processes today's due appointments. A failing appointment is
// reported in its result item and never stops the others.
func (s *SweepService) Run(ctx context.Context) (*model.SweepResult, error) {
	if s.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.Timeout)
		defer cancel()
	}

	started := s.now()
	from, to := model.DayBounds(started, s.config.Location)

	due, err := s.finder.FindDueOn(ctx, from, to)
	if err != nil {
		return nil, storeError("find due appointments", err)
	}

	logger.Info("daily reminder sweep started", "date", from.Format(time.DateOnly), "due", len(due), "concurrency", s.config.Concurrency)

	items := s.process(ctx, due)

	successful := 0
	for _, item := range items {
		if item.Success {
			successful++
		}
	}

	finished := s.now()
	prom.ObserveSweepDuration(finished.Sub(started).Seconds())

	result := &model.SweepResult{
		Message:    fmt.Sprintf("Daily reminders processed: %d/%d successful", successful, len(items)),
		Date:       from.Format(time.DateOnly),
		Processed:  len(items),
		Successful: successful,
		Results:    items,
		StartedAt:  started,
		FinishedAt: finished,
	}
	logger.Info("daily reminder sweep finished", "processed", result.Processed, "successful", result.Successful)
	return result, nil
}

type sweepJob struct {
	index       int
	appointment *model.Appointment
}

func (s *SweepService) process(ctx context.Context, due []*model.Appointment) []model.SweepItem {
	items := make([]model.SweepItem, len(due))
	if len(due) == 0 {
		return items
	}

	if s.config.Concurrency == 1 {
		for i, a := range due {
			items[i] = s.processOne(ctx, a)
		}
		return items
	}

	var mu sync.Mutex
	pool := worker.NewWorkerManager(len(due), s.config.Concurrency, nil)
	pool.SetWorker(func(_ int, job interface{}) {
		j := job.(sweepJob)
		item := s.processOne(ctx, j.appointment)
		mu.Lock()
		items[j.index] = item
		mu.Unlock()
	})
	if err := pool.Start(); err != nil {
		logger.Error("sweep worker pool failed to start, running sequentially", "error", err)
		for i, a := range due {
			items[i] = s.processOne(ctx, a)
		}
		return items
	}
	for i, a := range due {
		if err := pool.Enqueue(sweepJob{index: i, appointment: a}); err != nil {
			items[i] = failedItem(a, err)
		}
	}
	pool.Close()

	return items
}

func (s *SweepService) processOne(ctx context.Context, a *model.Appointment) (item model.SweepItem) {
	item = failedItem(a, nil)
	defer func() {
		if r := recover(); r != nil {
			logger.Error("reminder dispatch panicked", "appointment_id", a.ID, "panic", r)
			item = failedItem(a, fmt.Errorf("panic: %v", r))
		}
	}()

	res, err := s.reminders.dispatch(ctx, a.ID, TriggerSweep)
	if res != nil {
		item.EmailOK = res.EmailOK
		item.SMSOK = res.SMSOK
	}
	item.Message = fmt.Sprintf("Email: %t, SMS: %t", item.EmailOK, item.SMSOK)
	if err != nil {
		item.Error = err.Error()
		logger.Warn("sweep reminder failed", "appointment_id", a.ID, "error", err)
		return item
	}
	item.Success = true
	return item
}

func failedItem(a *model.Appointment, err error) model.SweepItem {
	item := model.SweepItem{
		AppointmentID: a.ID,
		Name:          a.Name,
		Message:       "Email: false, SMS: false",
	}
	if err != nil {
		item.Error = err.Error()
	}
	return item
}
