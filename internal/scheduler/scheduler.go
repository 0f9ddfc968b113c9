package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rosadoagency/appointment-api/internal/model"
	"github.com/rosadoagency/appointment-api/pkg/logger"
)

const DefaultSpec = "0 9 * * *"

type Sweeper interface {
	Run(ctx context.Context) (*model.SweepResult, error)
}

// ReminderScheduler triggers the daily reminder sweep in-process. A run
// still in progress makes the next trigger skip.
type ReminderScheduler struct {
	cronEngine *cron.Cron
	sweeper    Sweeper
	spec       string
	timeout    time.Duration
	entryID    cron.EntryID
}

func NewReminderScheduler(sweeper Sweeper, spec string, loc *time.Location, timeout time.Duration) *ReminderScheduler {
	if spec == "" {
		spec = DefaultSpec
	}
	if loc == nil {
		loc = time.Local
	}
	cl := cronLogger{log: logger.GetLogger().With("component", "reminder-scheduler")}
	return &ReminderScheduler{
		cronEngine: cron.New(
			cron.WithLocation(loc),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		sweeper: sweeper,
		spec:    spec,
		timeout: timeout,
	}
}

// cronLogger feeds cron's structured log calls into zap.
type cronLogger struct {
	log *logger.ZapLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error(msg, append(keysAndValues, "error", err)...)
}

func (s *ReminderScheduler) Start() error {
	id, err := s.cronEngine.AddFunc(s.spec, s.runSweep)
	if err != nil {
		return fmt.Errorf("invalid reminder cron spec %q: %w", s.spec, err)
	}
	s.entryID = id
	s.cronEngine.Start()

	logger.Info("reminder scheduler started", "spec", s.spec, "next_run", s.NextRun())
	return nil
}

// NextRun is zero until Start succeeded.
func (s *ReminderScheduler) NextRun() time.Time {
	if s.entryID == 0 {
		return time.Time{}
	}
	return s.cronEngine.Entry(s.entryID).Next
}

func (s *ReminderScheduler) runSweep() {
	logger.Info("daily reminder job triggered")

	ctx := context.Background()
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	res, err := s.sweeper.Run(ctx)
	if err != nil {
		logger.Error("daily reminder job failed", "error", err)
		return
	}
	logger.Info("daily reminder job finished", "result", res.Message)
}

// Stop stops triggering new runs and waits for a running sweep to finish
// or ctx to end.
func (s *ReminderScheduler) Stop(ctx context.Context) {
	logger.Info("stopping reminder scheduler")
	done := s.cronEngine.Stop()
	select {
	case <-done.Done():
		logger.Info("reminder scheduler stopped")
	case <-ctx.Done():
		logger.Warn("reminder scheduler stop timed out, a sweep is still running")
	}
}
