package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"namozvaqti/internal/database"
	"namozvaqti/internal/models"
	"namozvaqti/internal/prayer"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

func (b *Bot) handleMessage(ctx context.Context, update tgbotapi.Update) {
	msg := update.Message
	if msg == nil {
		return
	}

	if msg.IsCommand() {
		switch msg.Command() {
		case "start":
			b.handleStart(ctx, msg)
		case "help":
			b.handleHelp(ctx, msg)
		case "holat":
			b.handleStatus(ctx, msg)
		}
		return
	}

	text := strings.TrimSpace(msg.Text)
	if models.IsCity(text) {
		b.handleCity(ctx, msg, text)
	}
	// любой другой текст игнорируется
}

func (b *Bot) handleStart(_ context.Context, msg *tgbotapi.Message) {
	greeting := fmt.Sprintf(textGreeting, fullName(msg.From))
	if _, err := b.tgService.SendWithKeyboard(msg.Chat.ID, greeting, cityKeyboard()); err != nil {
		b.logger.Error().Err(err).Int64("chat_id", msg.Chat.ID).Msg("Failed to send greeting")
	}
}

func (b *Bot) handleHelp(_ context.Context, msg *tgbotapi.Message) {
	text := fmt.Sprintf(textHelp, b.config.Broadcast.Time)
	if _, err := b.tgService.SendWithKeyboard(msg.Chat.ID, text, cityKeyboard()); err != nil {
		b.logger.Error().Err(err).Int64("chat_id", msg.Chat.ID).Msg("Failed to send help")
	}
}

func (b *Bot) handleStatus(ctx context.Context, msg *tgbotapi.Message) {
	pref, err := b.preferences.Get(ctx, msg.From.ID)
	if errors.Is(err, database.ErrUserNotFound) || (err == nil && pref.City == "") {
		if _, sendErr := b.tgService.SendWithKeyboard(msg.Chat.ID, textNoCity, cityKeyboard()); sendErr != nil {
			b.logger.Error().Err(sendErr).Msg("Failed to send status")
		}
		return
	}
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Int64("user_id", msg.From.ID).Msg("Failed to load preference")
		b.countError()
		b.sendMessage(msg.Chat.ID, errorText(err))
		return
	}

	notify := textStatusOff
	if pref.DailyNotify {
		notify = textStatusOn
	}
	b.sendMessage(msg.Chat.ID, fmt.Sprintf(textStatus, pref.City, notify))
}

// handleCity stores the chosen city and replies with today's prayer times.
func (b *Bot) handleCity(ctx context.Context, msg *tgbotapi.Message, city string) {
	logger := zerolog.Ctx(ctx).With().Int64("user_id", msg.From.ID).Str("city", city).Logger()

	if err := b.preferences.SelectCity(ctx, msg.From.ID, city); err != nil {
		if errors.Is(err, models.ErrInvalidCity) {
			return
		}
		logger.Error().Err(err).Msg("Failed to save city")
		b.countError()
		b.sendMessage(msg.Chat.ID, errorText(err))
		return
	}

	report, err := b.prayer.Fetch(ctx, city)
	if err != nil {
		logger.Warn().Err(err).Msg("Prayer times lookup failed")
		b.countLookup(city, "failed")
		b.sendMessage(msg.Chat.ID, errorText(err))
		return
	}
	b.countLookup(city, "ok")

	text := prayer.Render(report, b.now().In(b.loc))
	if _, err := b.tgService.SendWithInlineKeyboard(msg.Chat.ID, text, dailyNotifyKeyboard()); err != nil {
		logger.Error().Err(err).Msg("Failed to send prayer times")
	}
}

func (b *Bot) sendMessage(chatID int64, text string) {
	if _, err := b.tgService.SendMessage(chatID, text); err != nil {
		b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to send message")
	}
}

func (b *Bot) countLookup(city, outcome string) {
	if b.metrics != nil {
		b.metrics.LookupsTotal.WithLabelValues(city, outcome).Inc()
	}
}

func (b *Bot) countError() {
	if b.metrics != nil {
		b.metrics.ErrorsTotal.Inc()
	}
}

func fullName(u *tgbotapi.User) string {
	if u == nil {
		return ""
	}
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		name = u.UserName
	}
	return name
}
