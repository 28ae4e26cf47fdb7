package bot

import (
	"context"
	"os"
	"time"

	"namozvaqti/internal/config"
	"namozvaqti/internal/domain"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type Bot struct {
	tgService   domain.TelegramService
	config      *config.Config
	preferences domain.PreferenceService
	prayer      domain.PrayerClient
	state       domain.StateRepository
	metrics     *Metrics
	logger      *zerolog.Logger
	loc         *time.Location
	now         func() time.Time
}

func NewBot(
	tgService domain.TelegramService,
	config *config.Config,
	preferences domain.PreferenceService,
	prayerClient domain.PrayerClient,
	state domain.StateRepository,
	metrics *Metrics,
	logger *zerolog.Logger,
) (*Bot, error) {
	if logger == nil {
		l := zerolog.New(os.Stdout).With().Timestamp().Logger()
		logger = &l
	}

	return &Bot{
		tgService:   tgService,
		config:      config,
		preferences: preferences,
		prayer:      prayerClient,
		state:       state,
		metrics:     metrics,
		logger:      logger,
		loc:         config.Location(),
		now:         time.Now,
	}, nil
}

func (b *Bot) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.tgService.GetUpdatesChan(u)

	b.logger.Info().Str("username", b.tgService.GetSelf().UserName).Msg("Authorized on account")

	for {
		select {
		case <-ctx.Done():
			b.logger.Info().Msg("Bot stopping...")
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			b.processUpdate(ctx, update)
		}
	}
}

// Stop stops receiving Telegram updates.
func (b *Bot) Stop() {
	if b == nil || b.tgService == nil {
		return
	}
	b.tgService.StopReceivingUpdates()
}

func (b *Bot) processUpdate(ctx context.Context, update tgbotapi.Update) {
	start := time.Now()
	defer func() {
		if b.metrics != nil {
			b.metrics.UpdatesProcessed.Inc()
			b.metrics.UpdateProcessingTime.Observe(time.Since(start).Seconds())
		}
	}()

	// Создаем контекст для обработки каждого обновления
	updateCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	requestID := uuid.New().String()
	l := b.logger.With().Str("request_id", requestID).Logger()
	updateCtx = l.WithContext(updateCtx)

	b.withRecovery(updateCtx, update.UpdateID, func() {
		var userID int64
		if update.Message != nil && update.Message.From != nil {
			userID = update.Message.From.ID
		} else if update.CallbackQuery != nil && update.CallbackQuery.From != nil {
			userID = update.CallbackQuery.From.ID
		}

		if userID == 0 {
			return
		}

		if !b.allow(updateCtx, userID, update) {
			return
		}

		if update.CallbackQuery != nil {
			b.handleCallbackQuery(updateCtx, update)
			return
		}

		b.handleMessage(updateCtx, update)
	})
}

// allow applies the per-user rate limit. Limiter failures let the update through.
func (b *Bot) allow(ctx context.Context, userID int64, update tgbotapi.Update) bool {
	if b.state == nil {
		return true
	}

	window := time.Duration(b.config.Bot.RateLimitWindow) * time.Second
	allowed, err := b.state.CheckRateLimit(ctx, userID, b.config.Bot.RateLimitMessages, window)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Int64("user_id", userID).Msg("Rate limit check failed")
		return true
	}
	if !allowed {
		zerolog.Ctx(ctx).Warn().Int64("user_id", userID).Msg("Rate limit exceeded")
		if update.Message != nil {
			b.sendMessage(update.Message.Chat.ID, textRateLimited)
		}
		return false
	}
	return true
}
