package repository

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"namozvaqti/internal/domain"

	"github.com/rs/zerolog"
)

const recoveryInterval = time.Minute

// FailoverStateRepository uses primary (Redis) while it answers and the in-memory fallback otherwise.
// After recoveryInterval the primary is tried again.
type FailoverStateRepository struct {
	primary  domain.StateRepository
	fallback domain.StateRepository
	logger   *zerolog.Logger
	isDown   atomic.Bool

	mu        sync.Mutex
	lastCheck time.Time
	now       func() time.Time
}

func NewFailoverStateRepository(primary, fallback domain.StateRepository, logger *zerolog.Logger) *FailoverStateRepository {
	return &FailoverStateRepository{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
		now:      time.Now,
	}
}

// usePrimary reports whether the primary should be tried for this call.
func (r *FailoverStateRepository) usePrimary() bool {
	if !r.isDown.Load() {
		return true
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.now().Sub(r.lastCheck) > recoveryInterval {
		r.lastCheck = r.now()
		return true
	}
	return false
}

func (r *FailoverStateRepository) markDown(err error) {
	if !r.isDown.Swap(true) {
		r.logger.Error().Err(err).Msg("Primary state repository failed, falling back to memory")
	}
	r.mu.Lock()
	r.lastCheck = r.now()
	r.mu.Unlock()
}

func (r *FailoverStateRepository) markUp() {
	if r.isDown.Swap(false) {
		r.logger.Info().Msg("Primary state repository recovered")
	}
}

func (r *FailoverStateRepository) CheckRateLimit(ctx context.Context, userID int64, limit int, window time.Duration) (bool, error) {
	if r.usePrimary() {
		allowed, err := r.primary.CheckRateLimit(ctx, userID, limit, window)
		if err == nil {
			r.markUp()
			return allowed, nil
		}
		r.markDown(err)
	}

	return r.fallback.CheckRateLimit(ctx, userID, limit, window)
}

func (r *FailoverStateRepository) MarkOnce(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if r.usePrimary() {
		ok, err := r.primary.MarkOnce(ctx, key, ttl)
		if err == nil {
			r.markUp()
			return ok, nil
		}
		r.markDown(err)
	}

	return r.fallback.MarkOnce(ctx, key, ttl)
}
