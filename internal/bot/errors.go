package bot

import (
	"errors"

	"namozvaqti/internal/prayer"
)

// errorText picks the chat reply for a failed handler.
func errorText(err error) string {
	if err == nil {
		return ""
	}

	if errors.Is(err, prayer.ErrLookup) {
		return textLookupFailed
	}

	return textStoreFailed
}
