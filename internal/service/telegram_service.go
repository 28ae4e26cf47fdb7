package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"namozvaqti/internal/domain"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// maxFloodRetries bounds how many times SendText waits out a 429 before giving up.
const maxFloodRetries = 2

type TelegramService struct {
	bot   domain.TelegramSender
	after func(time.Duration) <-chan time.Time
}

func NewTelegramService(bot domain.TelegramSender) *TelegramService {
	return &TelegramService{
		bot:   bot,
		after: time.After,
	}
}

func (s *TelegramService) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	return s.bot.Send(c)
}

func (s *TelegramService) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	return s.bot.Request(c)
}

func (s *TelegramService) SendMessage(chatID int64, text string) (tgbotapi.Message, error) {
	return s.bot.Send(tgbotapi.NewMessage(chatID, text))
}

// SendText sends a plain message and honours Telegram flood control: on 429 it waits
// retry_after seconds (or until ctx is done) and tries again.
func (s *TelegramService) SendText(ctx context.Context, chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.DisableWebPagePreview = true

	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		_, err := s.bot.Send(msg)
		if err == nil {
			return nil
		}

		wait, flood := retryAfter(err)
		if !flood || attempt >= maxFloodRetries {
			return fmt.Errorf("send to %d: %w", chatID, err)
		}

		select {
		case <-ctx.Done():
			return errors.Join(err, ctx.Err())
		case <-s.after(wait):
		}
	}
}

func (s *TelegramService) SendWithKeyboard(chatID int64, text string, keyboard tgbotapi.ReplyKeyboardMarkup) (tgbotapi.Message, error) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = keyboard
	return s.bot.Send(msg)
}

// SendWithInlineKeyboard attaches the daily-notification buttons under the report.
func (s *TelegramService) SendWithInlineKeyboard(
	chatID int64,
	text string,
	keyboard tgbotapi.InlineKeyboardMarkup,
) (tgbotapi.Message, error) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = keyboard
	msg.DisableWebPagePreview = true
	return s.bot.Send(msg)
}

// AnswerCallback подтверждает нажатие inline-кнопки, чтобы клиент убрал индикатор загрузки.
func (s *TelegramService) AnswerCallback(callbackID, text string) error {
	_, err := s.bot.Request(tgbotapi.NewCallback(callbackID, text))
	return err
}

func (s *TelegramService) GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return s.bot.GetUpdatesChan(config)
}

func (s *TelegramService) GetSelf() tgbotapi.User {
	return s.bot.GetSelf()
}

func (s *TelegramService) StopReceivingUpdates() {
	s.bot.StopReceivingUpdates()
}

// IsBlocked reports whether Telegram refused delivery because the user blocked the bot
// or deleted the chat.
func IsBlocked(err error) bool {
	apiErr, ok := asAPIError(err)
	return ok && apiErr.Code == http.StatusForbidden
}

func retryAfter(err error) (time.Duration, bool) {
	apiErr, ok := asAPIError(err)
	if !ok || apiErr.Code != http.StatusTooManyRequests || apiErr.RetryAfter <= 0 {
		return 0, false
	}
	return time.Duration(apiErr.RetryAfter) * time.Second, true
}

// tgbotapi returns *Error from requests; a bare Error is accepted too.
func asAPIError(err error) (tgbotapi.Error, bool) {
	var ptr *tgbotapi.Error
	if errors.As(err, &ptr) && ptr != nil {
		return *ptr, true
	}
	var val tgbotapi.Error
	if errors.As(err, &val) {
		return val, true
	}
	return tgbotapi.Error{}, false
}
