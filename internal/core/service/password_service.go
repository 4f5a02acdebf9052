package service

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/quillpost/blog-api/internal/core/domain"
	"github.com/quillpost/blog-api/internal/core/ports"
	"github.com/quillpost/blog-api/internal/core/security"
)

const defaultResetTTL = 15 * time.Minute

// PasswordService handles forgotten passwords with a mailed, scoped token.
type PasswordService struct {
	users    ports.UserRepository
	hasher   ports.PasswordHasher
	tokens   ports.TokenIssuer
	notifier ports.Notifier
	resetTTL time.Duration
	baseURL  string
	log      zerolog.Logger
}

func NewPasswordService(
	users ports.UserRepository,
	hasher ports.PasswordHasher,
	tokens ports.TokenIssuer,
	notifier ports.Notifier,
	resetTTL time.Duration,
	baseURL string,
	log zerolog.Logger,
) *PasswordService {
	if resetTTL <= 0 {
		resetTTL = defaultResetTTL
	}
	return &PasswordService{
		users:    users,
		hasher:   hasher,
		tokens:   tokens,
		notifier: notifier,
		resetTTL: resetTTL,
		baseURL:  strings.TrimRight(baseURL, "/"),
		log:      log,
	}
}

// RequestReset mails a reset link to the account registered under email.
func (s *PasswordService) RequestReset(ctx context.Context, email string) error {
	user, err := s.users.FindByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return err
	}

	token, err := s.tokens.IssueScoped(user.ID, security.ScopePasswordReset, s.resetTTL)
	if err != nil {
		return fmt.Errorf("request reset: %w", err)
	}

	notify(ctx, s.notifier, s.log, ports.TemplatePasswordReset, user.Email, map[string]string{
		"title": "Password Reset",
		"name":  user.Username,
		"link":  s.baseURL + "/reset?token=" + url.QueryEscape(token),
	})
	return nil
}

// ResetPassword replaces the password of the account named by a reset token.
// Access tokens are not accepted here.
func (s *PasswordService) ResetPassword(ctx context.Context, token, newPassword string) (*domain.User, error) {
	if newPassword == "" {
		return nil, domain.ErrInvalidInput
	}
	if err := checkPasswordLength(newPassword); err != nil {
		return nil, err
	}

	id, err := s.tokens.ValidateScoped(token, security.ScopePasswordReset)
	if err != nil {
		s.log.Debug().Err(err).Msg("reset token rejected")
		return nil, domain.ErrUnauthenticated
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return nil, fmt.Errorf("reset password: hash: %w", err)
	}
	if err := s.users.UpdatePasswordHash(ctx, id.ID, hash); err != nil {
		return nil, err
	}

	s.log.Info().Str("user_id", id.ID).Msg("password reset")
	return s.users.FindByID(ctx, id.ID)
}

// checkPasswordLength rejects secrets the hasher would refuse.
func checkPasswordLength(password string) error {
	if len(password) > security.MaxPasswordBytes {
		return fmt.Errorf("%w: password must be at most %d bytes", domain.ErrInvalidInput, security.MaxPasswordBytes)
	}
	return nil
}
