package service

import (
	"strings"

	"github.com/rs/zerolog"

	"github.com/quillpost/blog-api/internal/core/domain"
	"github.com/quillpost/blog-api/internal/core/ports"
)

// SessionResolver validates "Bearer <token>" header values.
type SessionResolver struct {
	tokens ports.TokenIssuer
	log    zerolog.Logger
}

func NewSessionResolver(tokens ports.TokenIssuer, log zerolog.Logger) *SessionResolver {
	return &SessionResolver{tokens: tokens, log: log}
}

// Resolve expects exactly two whitespace separated fields, the first being
// "bearer" in any case. Every token failure collapses into ErrUnauthenticated;
// the precise reason is only logged.
func (r *SessionResolver) Resolve(header string) (domain.CallerIdentity, error) {
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return domain.CallerIdentity{}, domain.ErrMalformedHeader
	}

	id, err := r.tokens.Validate(parts[1])
	if err != nil {
		r.log.Debug().Err(err).Msg("access token rejected")
		return domain.CallerIdentity{}, domain.ErrUnauthenticated
	}
	return id, nil
}
