package repository

import (
	"context"
	"sync"
	"time"
)

type MemoryStateRepository struct {
	mu         sync.Mutex
	rateLimits map[int64]*rateLimitEntry
	markers    map[string]time.Time
	now        func() time.Time
}

func NewMemoryStateRepository() *MemoryStateRepository {
	return &MemoryStateRepository{
		rateLimits: make(map[int64]*rateLimitEntry),
		markers:    make(map[string]time.Time),
		now:        time.Now,
	}
}

type rateLimitEntry struct {
	count     int
	expiresAt time.Time
}

func (r *MemoryStateRepository) CheckRateLimit(_ context.Context, userID int64, limit int, window time.Duration) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	entry, ok := r.rateLimits[userID]
	if !ok || !now.Before(entry.expiresAt) {
		entry = &rateLimitEntry{expiresAt: now.Add(window)}
		r.rateLimits[userID] = entry
	}
	entry.count++

	return entry.count <= limit, nil
}

func (r *MemoryStateRepository) MarkOnce(_ context.Context, key string, ttl time.Duration) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	if expiresAt, ok := r.markers[key]; ok && now.Before(expiresAt) {
		return false, nil
	}
	r.markers[key] = now.Add(ttl)

	// старые отметки больше не нужны
	for k, exp := range r.markers {
		if !now.Before(exp) {
			delete(r.markers, k)
		}
	}
	return true, nil
}
