package bot

import (
	"context"
	"strings"

	"namozvaqti/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

func (b *Bot) handleCallbackQuery(ctx context.Context, update tgbotapi.Update) {
	callback := update.CallbackQuery
	data := callback.Data

	if !strings.HasPrefix(data, models.CallbackDailyPrefix) {
		b.answerCallback(callback.ID)
		return
	}

	b.handleDailyNotify(ctx, callback, data == models.CallbackDailyYes)
}

func (b *Bot) handleDailyNotify(ctx context.Context, callback *tgbotapi.CallbackQuery, enabled bool) {
	userID := callback.From.ID
	// Отвечаем на callback, чтобы убрать "часики"
	defer b.answerCallback(callback.ID)

	chatID := userID
	if callback.Message != nil && callback.Message.Chat != nil {
		chatID = callback.Message.Chat.ID
	}

	if err := b.preferences.SetDailyNotify(ctx, userID, enabled); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Int64("user_id", userID).Msg("Failed to update daily notify")
		b.countError()
		b.sendMessage(chatID, errorText(err))
		return
	}

	choice, text := "off", textNotifyOff
	if enabled {
		choice, text = "on", textNotifyOn
	}
	if b.metrics != nil {
		b.metrics.NotifyChanges.WithLabelValues(choice).Inc()
	}
	b.sendMessage(chatID, text)
}

func (b *Bot) answerCallback(callbackID string) {
	if err := b.tgService.AnswerCallback(callbackID, ""); err != nil {
		b.logger.Warn().Err(err).Msg("Failed to answer callback")
	}
}
