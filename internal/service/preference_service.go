package service

import (
	"context"
	"strings"

	"namozvaqti/internal/domain"
	"namozvaqti/internal/models"

	"github.com/rs/zerolog"
)

type PreferenceService struct {
	repo   domain.PreferenceRepository
	logger *zerolog.Logger
}

func NewPreferenceService(repo domain.PreferenceRepository, logger *zerolog.Logger) *PreferenceService {
	return &PreferenceService{
		repo:   repo,
		logger: logger,
	}
}

// SelectCity validates city and stores it as the user's choice.
func (s *PreferenceService) SelectCity(ctx context.Context, userID int64, city string) error {
	if err := models.ValidateCity(city); err != nil {
		return err
	}
	if err := s.repo.UpsertCity(ctx, userID, strings.TrimSpace(city)); err != nil {
		s.logger.Error().Err(err).Int64("user_id", userID).Str("city", city).Msg("Failed to save city")
		return err
	}
	return nil
}

func (s *PreferenceService) SetDailyNotify(ctx context.Context, userID int64, enabled bool) error {
	if err := s.repo.SetDailyNotify(ctx, userID, enabled); err != nil {
		s.logger.Error().Err(err).Int64("user_id", userID).Bool("enabled", enabled).Msg("Failed to update daily notify")
		return err
	}
	s.logger.Info().Int64("user_id", userID).Bool("enabled", enabled).Msg("Daily notify updated")
	return nil
}

func (s *PreferenceService) Get(ctx context.Context, userID int64) (*models.UserPreference, error) {
	return s.repo.GetPreference(ctx, userID)
}

// OptedIn returns the broadcast recipients.
func (s *PreferenceService) OptedIn(ctx context.Context) ([]models.UserPreference, error) {
	prefs, err := s.repo.ListOptedIn(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to list opted-in users")
		return nil, err
	}
	return prefs, nil
}

func (s *PreferenceService) Stats(ctx context.Context) (*models.UserStats, error) {
	total, optedIn, err := s.repo.CountUsers(ctx)
	if err != nil {
		return nil, err
	}
	return &models.UserStats{Users: total, OptedIn: optedIn}, nil
}
