package domain

import (
	"context"
	"time"

	"namozvaqti/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// PreferenceRepository is the user preference store.
type PreferenceRepository interface {
	UpsertCity(ctx context.Context, userID int64, city string) error
	SetDailyNotify(ctx context.Context, userID int64, enabled bool) error
	ListOptedIn(ctx context.Context) ([]models.UserPreference, error)
	GetPreference(ctx context.Context, userID int64) (*models.UserPreference, error)
	CountUsers(ctx context.Context) (total, optedIn int, err error)
}

type PrayerClient interface {
	Fetch(ctx context.Context, city string) (*models.PrayerTimesReport, error)
}

type StateRepository interface {
	CheckRateLimit(ctx context.Context, userID int64, limit int, window time.Duration) (bool, error)
	// MarkOnce sets key if absent and reports whether this call set it.
	MarkOnce(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

type PreferenceService interface {
	SelectCity(ctx context.Context, userID int64, city string) error
	SetDailyNotify(ctx context.Context, userID int64, enabled bool) error
	Get(ctx context.Context, userID int64) (*models.UserPreference, error)
	OptedIn(ctx context.Context) ([]models.UserPreference, error)
	Stats(ctx context.Context) (*models.UserStats, error)
}

type TelegramSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	GetSelf() tgbotapi.User
	StopReceivingUpdates()
}

type TelegramService interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	SendMessage(chatID int64, text string) (tgbotapi.Message, error)
	SendText(ctx context.Context, chatID int64, text string) error
	SendWithKeyboard(chatID int64, text string, keyboard tgbotapi.ReplyKeyboardMarkup) (tgbotapi.Message, error)
	SendWithInlineKeyboard(chatID int64, text string, keyboard tgbotapi.InlineKeyboardMarkup) (tgbotapi.Message, error)
	AnswerCallback(callbackID string, text string) error
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	GetSelf() tgbotapi.User
	StopReceivingUpdates()
}
