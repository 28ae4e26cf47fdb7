package repository

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type mockRepo struct {
	mock.Mock
}

func (m *mockRepo) CheckRateLimit(ctx context.Context, userID int64, limit int, window time.Duration) (bool, error) {
	args := m.Called(ctx, userID, limit, window)
	return args.Bool(0), args.Error(1)
}

func (m *mockRepo) MarkOnce(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, key, ttl)
	return args.Bool(0), args.Error(1)
}

func TestFailoverStateRepository(t *testing.T) {
	primary := new(mockRepo)
	fallback := new(mockRepo)
	logger := zerolog.New(io.Discard)
	repo := NewFailoverStateRepository(primary, fallback, &logger)
	now := time.Date(2026, 3, 12, 20, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return now }
	ctx := context.Background()

	t.Run("PrimarySuccess", func(t *testing.T) {
		primary.On("CheckRateLimit", ctx, int64(1), 5, time.Minute).Return(true, nil).Once()

		allowed, err := repo.CheckRateLimit(ctx, 1, 5, time.Minute)
		assert.NoError(t, err)
		assert.True(t, allowed)
		primary.AssertExpectations(t)
	})

	t.Run("PrimaryFailFallbackSuccess", func(t *testing.T) {
		primary.On("MarkOnce", ctx, "broadcast:2026-03-12", time.Hour).Return(false, errors.New("connection refused")).Once()
		fallback.On("MarkOnce", ctx, "broadcast:2026-03-12", time.Hour).Return(true, nil).Once()

		ok, err := repo.MarkOnce(ctx, "broadcast:2026-03-12", time.Hour)
		assert.NoError(t, err)
		assert.True(t, ok)
		assert.True(t, repo.isDown.Load())
		primary.AssertExpectations(t)
		fallback.AssertExpectations(t)
	})

	t.Run("StaysOnFallbackWhileDown", func(t *testing.T) {
		fallback.On("CheckRateLimit", ctx, int64(2), 5, time.Minute).Return(false, nil).Once()

		allowed, err := repo.CheckRateLimit(ctx, 2, 5, time.Minute)
		assert.NoError(t, err)
		assert.False(t, allowed)
		primary.AssertNotCalled(t, "CheckRateLimit", ctx, int64(2), 5, time.Minute)
		fallback.AssertExpectations(t)
	})

	t.Run("RecoveryAttempt", func(t *testing.T) {
		now = now.Add(2 * time.Minute)
		primary.On("CheckRateLimit", ctx, int64(3), 5, time.Minute).Return(true, nil).Once()

		allowed, err := repo.CheckRateLimit(ctx, 3, 5, time.Minute)
		assert.NoError(t, err)
		assert.True(t, allowed)
		assert.False(t, repo.isDown.Load())
		primary.AssertExpectations(t)
	})

	t.Run("FailedRecoveryAttempt", func(t *testing.T) {
		primary.On("MarkOnce", ctx, "k", time.Hour).Return(false, errors.New("down")).Once()
		fallback.On("MarkOnce", ctx, "k", time.Hour).Return(true, nil).Once()
		_, _ = repo.MarkOnce(ctx, "k", time.Hour)
		assert.True(t, repo.isDown.Load())

		now = now.Add(2 * time.Minute)
		primary.On("MarkOnce", ctx, "k2", time.Hour).Return(false, errors.New("still down")).Once()
		fallback.On("MarkOnce", ctx, "k2", time.Hour).Return(true, nil).Once()

		ok, err := repo.MarkOnce(ctx, "k2", time.Hour)
		assert.NoError(t, err)
		assert.True(t, ok)
		assert.True(t, repo.isDown.Load())
		primary.AssertExpectations(t)
		fallback.AssertExpectations(t)
	})
}
