package idempotency

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rosadoagency/appointment-api/pkg/logger"
	"github.com/rosadoagency/appointment-api/pkg/redis"
)

var (
	ErrLockHeld          = errors.New("dispatch lock is held by another worker")
	ErrLockAcquireFailed = errors.New("failed to acquire dispatch lock")
)

type Config struct {
	LockTTL time.Duration

	LockKeyPrefix string
}

func DefaultConfig() Config {
	return Config{
		LockTTL:       30 * time.Second,
		LockKeyPrefix: "reminder:lock:",
	}
}

// Locker serializes reminder dispatches of one appointment.
type Locker interface {
	Acquire(ctx context.Context, appointmentID int64) (*Lease, error)
}

// Lease is a held lock. Release is safe to call more than once.
type Lease struct {
	AppointmentID int64
	once          sync.Once
	release       func(ctx context.Context) error
}

func (l *Lease) Release(ctx context.Context) error {
	if l == nil {
		return nil
	}
	var err error
	l.once.Do(func() {
		err = l.release(ctx)
	})
	return err
}

// RedisLocker holds a SETNX key per appointment with a TTL so a crashed
// holder cannot block dispatches forever. Release only deletes the key while
// it still carries this holder's token.
type RedisLocker struct {
	redis  redis.RedisAdapter
	config Config
}

func NewRedisLocker(redisAdapter redis.RedisAdapter, config Config) *RedisLocker {
	return &RedisLocker{
		redis:  redisAdapter,
		config: config,
	}
}

func (s *RedisLocker) key(appointmentID int64) string {
	return fmt.Sprintf("%s%d", s.config.LockKeyPrefix, appointmentID)
}

func (s *RedisLocker) Acquire(ctx context.Context, appointmentID int64) (*Lease, error) {
	key := s.key(appointmentID)
	token := []byte(uuid.NewString())

	acquired, err := s.redis.SetNX(ctx, key, token, s.config.LockTTL)
	if err != nil {
		logger.Error("failed to acquire dispatch lock", "appointment_id", appointmentID, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrLockAcquireFailed, err)
	}
	if !acquired {
		logger.Info("dispatch lock already held", "appointment_id", appointmentID)
		return nil, ErrLockHeld
	}

	logger.Debug("dispatch lock acquired", "appointment_id", appointmentID, "lock_ttl", s.config.LockTTL)

	return &Lease{
		AppointmentID: appointmentID,
		release: func(ctx context.Context) error {
			deleted, err := s.redis.DelIfEqual(ctx, key, token)
			if err != nil {
				logger.Warn("failed to release dispatch lock", "appointment_id", appointmentID, "error", err)
				return err
			}
			if !deleted {
				logger.Warn("dispatch lock expired before release", "appointment_id", appointmentID)
			}
			return nil
		},
	}, nil
}

// LocalLocker is the single-process Locker used when no Redis is configured.
type LocalLocker struct {
	mu   sync.Mutex
	held map[int64]struct{}
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{held: make(map[int64]struct{})}
}

func (s *LocalLocker) Acquire(ctx context.Context, appointmentID int64) (*Lease, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.held[appointmentID]; ok {
		return nil, ErrLockHeld
	}
	s.held[appointmentID] = struct{}{}

	return &Lease{
		AppointmentID: appointmentID,
		release: func(context.Context) error {
			s.mu.Lock()
			delete(s.held, appointmentID)
			s.mu.Unlock()
			return nil
		},
	}, nil
}
