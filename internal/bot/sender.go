package bot

import (
	"context"

	"namozvaqti/internal/service"
)

// SendText delivers a plain message; used by the daily broadcast.
func (b *Bot) SendText(ctx context.Context, userID int64, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := b.tgService.SendText(ctx, userID, text)
	if err != nil && service.IsBlocked(err) {
		// пользователь заблокировал бота, подписка остаётся в базе
		b.logger.Info().Int64("user_id", userID).Msg("User has blocked the bot")
	}
	return err
}
