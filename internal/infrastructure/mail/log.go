package mail

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/quillpost/blog-api/internal/core/ports"
)

// LogSender writes mail to the application log instead of sending it.
// Bodies are only visible at debug level.
type LogSender struct {
	renderer *Renderer
	log      zerolog.Logger
}

func NewLogSender(renderer *Renderer, log zerolog.Logger) *LogSender {
	return &LogSender{renderer: renderer, log: log}
}

func (s *LogSender) Deliver(_ context.Context, msg ports.OutboundMail) error {
	subject, body, err := s.renderer.Render(msg)
	if err != nil {
		return err
	}
	s.log.Info().
		Str("message_id", msg.ID).
		Str("template", msg.Template).
		Str("to", msg.Recipient).
		Str("subject", subject).
		Msg("mail")
	s.log.Debug().Str("message_id", msg.ID).Str("body", body).Msg("mail body")
	return nil
}
