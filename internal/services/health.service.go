package services

import (
	"context"
	"time"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthStatus struct {
	Status    string    `json:"status"`
	Message   string    `json:"message"`
	Database  string    `json:"database"`
	LockStore string    `json:"lock_store,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type HealthService struct {
	db      Pinger
	redis   Pinger
	message string
	timeout time.Duration
}

func NewHealthService(db Pinger, agencyName string) *HealthService {
	return &HealthService{
		db:      db,
		message: agencyName + " Insurance Broker API is running",
		timeout: 2 * time.Second,
	}
}

// WithRedis adds the dispatch lock store to the check.
func (s *HealthService) WithRedis(p Pinger) *HealthService {
	s.redis = p
	return s
}

// Check reports OK with every dependency reachable, otherwise DEGRADED and
// the first ping error.
func (s *HealthService) Check(ctx context.Context) (HealthStatus, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	status := HealthStatus{
		Status:    "OK",
		Message:   s.message,
		Database:  "PostgreSQL",
		Timestamp: time.Now().UTC(),
	}
	var firstErr error
	if err := s.db.Ping(ctx); err != nil {
		status.Database = "unreachable"
		firstErr = err
	}
	if s.redis != nil {
		status.LockStore = "Redis"
		if err := s.redis.Ping(ctx); err != nil {
			status.LockStore = "unreachable"
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	if firstErr != nil {
		status.Status = "DEGRADED"
	}
	return status, firstErr
}
