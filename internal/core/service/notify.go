package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/quillpost/blog-api/internal/core/ports"
)

// notify hands a message to the notifier and only logs a rejection.
func notify(ctx context.Context, n ports.Notifier, log zerolog.Logger, template, recipient string, vars map[string]string) {
	if n == nil {
		return
	}
	if err := n.Send(ctx, template, recipient, vars); err != nil {
		log.Warn().Err(err).Str("template", template).Msg("notification not queued")
	}
}
