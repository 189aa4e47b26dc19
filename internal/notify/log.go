package notify

import (
	"context"

	"github.com/rs/zerolog/log"
)

// LogNotifier writes messages to the log instead of sending them.
type LogNotifier struct{}

// Notify logs the message. Passwords are masked.
func (LogNotifier) Notify(_ context.Context, msg Message) error {
	log.Info().
		Str("kind", msg.Kind).
		Str("group", msg.GroupID).
		Str("id", msg.DedupID).
		Str("address", msg.Address).
		Interface("attributes", msg.redacted()).
		Msg("onboarding notification")

	return nil
}
