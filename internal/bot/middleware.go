package bot

import (
	"context"
	"runtime/debug"

	"github.com/rs/zerolog"
)

// withRecovery runs handler and turns a panic into an error log on the request logger.
func (b *Bot) withRecovery(ctx context.Context, updateID int, handler func()) {
	defer func() {
		if r := recover(); r != nil {
			b.countError()
			zerolog.Ctx(ctx).Error().
				Interface("panic", r).
				Int("update_id", updateID).
				Bytes("stack", debug.Stack()).
				Msg("Recovered from panic in update handler")
		}
	}()
	handler()
}
