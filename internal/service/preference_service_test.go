package service

import (
	"context"
	"errors"
	"io"
	"testing"

	"namozvaqti/internal/database"
	"namozvaqti/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockPreferenceRepository is a mock of the domain.PreferenceRepository interface
type MockPreferenceRepository struct {
	mock.Mock
}

func (m *MockPreferenceRepository) UpsertCity(ctx context.Context, userID int64, city string) error {
	args := m.Called(ctx, userID, city)
	return args.Error(0)
}

func (m *MockPreferenceRepository) SetDailyNotify(ctx context.Context, userID int64, enabled bool) error {
	args := m.Called(ctx, userID, enabled)
	return args.Error(0)
}

func (m *MockPreferenceRepository) ListOptedIn(ctx context.Context) ([]models.UserPreference, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.UserPreference), args.Error(1)
}

func (m *MockPreferenceRepository) GetPreference(ctx context.Context, userID int64) (*models.UserPreference, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UserPreference), args.Error(1)
}

func (m *MockPreferenceRepository) CountUsers(ctx context.Context) (int, int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Int(1), args.Error(2)
}

func newTestService() (*PreferenceService, *MockPreferenceRepository) {
	repo := new(MockPreferenceRepository)
	logger := zerolog.New(io.Discard)
	return NewPreferenceService(repo, &logger), repo
}

func TestPreferenceService_SelectCity(t *testing.T) {
	ctx := context.Background()

	t.Run("ValidCity", func(t *testing.T) {
		svc, repo := newTestService()
		repo.On("UpsertCity", ctx, int64(1), "Samarqand").Return(nil).Once()

		err := svc.SelectCity(ctx, 1, "Samarqand")
		assert.NoError(t, err)
		repo.AssertExpectations(t)
	})

	t.Run("InvalidCity", func(t *testing.T) {
		svc, repo := newTestService()

		err := svc.SelectCity(ctx, 1, "Moskva")
		assert.ErrorIs(t, err, models.ErrInvalidCity)
		repo.AssertNotCalled(t, "UpsertCity", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("StoreFailure", func(t *testing.T) {
		svc, repo := newTestService()
		storeErr := &database.StoreError{Op: "upsert city", Err: errors.New("disk I/O error")}
		repo.On("UpsertCity", ctx, int64(2), "Buxoro").Return(storeErr).Once()

		err := svc.SelectCity(ctx, 2, "Buxoro")
		assert.ErrorIs(t, err, database.ErrStore)
	})
}

func TestPreferenceService_SetDailyNotify(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	repo.On("SetDailyNotify", ctx, int64(3), true).Return(nil).Once()
	repo.On("SetDailyNotify", ctx, int64(3), false).Return(errors.New("locked")).Once()

	assert.NoError(t, svc.SetDailyNotify(ctx, 3, true))
	assert.Error(t, svc.SetDailyNotify(ctx, 3, false))
	repo.AssertExpectations(t)
}

func TestPreferenceService_OptedInAndStats(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	prefs := []models.UserPreference{{UserID: 1, City: "Toshkent", DailyNotify: true}}
	repo.On("ListOptedIn", ctx).Return(prefs, nil).Once()
	repo.On("CountUsers", ctx).Return(5, 1, nil).Once()

	got, err := svc.OptedIn(ctx)
	require.NoError(t, err)
	assert.Equal(t, prefs, got)

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, &models.UserStats{Users: 5, OptedIn: 1}, stats)
}

func TestPreferenceService_WithSQLite(t *testing.T) {
	logger := zerolog.New(io.Discard)
	db, err := database.NewDB(":memory:", &logger)
	require.NoError(t, err)
	defer db.Close()

	svc := NewPreferenceService(db, &logger)
	ctx := context.Background()

	require.NoError(t, svc.SelectCity(ctx, 10, "Andijan"))
	require.NoError(t, svc.SetDailyNotify(ctx, 10, true))
	require.NoError(t, svc.SelectCity(ctx, 11, "Jizzax"))

	pref, err := svc.Get(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, "Andijan", pref.City)
	assert.True(t, pref.DailyNotify)

	optedIn, err := svc.OptedIn(ctx)
	require.NoError(t, err)
	require.Len(t, optedIn, 1)
	assert.Equal(t, int64(10), optedIn[0].UserID)

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Users)
	assert.Equal(t, 1, stats.OptedIn)

	_, err = svc.Get(ctx, 99)
	assert.ErrorIs(t, err, database.ErrUserNotFound)
}
