package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/quillpost/blog-api/internal/core/domain"
	"github.com/quillpost/blog-api/internal/core/ports"
)

// VerificationService confirms email ownership with single-use codes.
type VerificationService struct {
	users    ports.UserRepository
	otps     ports.OTPRepository
	codes    ports.CodeGenerator
	notifier ports.Notifier
	otpTTL   time.Duration
	log      zerolog.Logger
	now      func() time.Time
}

func NewVerificationService(
	users ports.UserRepository,
	otps ports.OTPRepository,
	codes ports.CodeGenerator,
	notifier ports.Notifier,
	otpTTL time.Duration,
	log zerolog.Logger,
) *VerificationService {
	return &VerificationService{
		users:    users,
		otps:     otps,
		codes:    codes,
		notifier: notifier,
		otpTTL:   otpTTL,
		log:      log,
		now:      time.Now,
	}
}

// RequestOTP stores a fresh code for the caller and mails it to the
// account's address. Earlier codes stay valid until used or expired.
func (s *VerificationService) RequestOTP(ctx context.Context, caller domain.CallerIdentity) error {
	user, err := s.users.FindByID(ctx, caller.ID)
	if err != nil {
		return err
	}

	code, err := s.codes.Generate()
	if err != nil {
		return fmt.Errorf("request otp: %w", err)
	}

	if err := s.otps.Create(ctx, &domain.OTPRecord{
		UserID:    user.ID,
		Code:      code,
		CreatedAt: s.now().UTC(),
	}); err != nil {
		return fmt.Errorf("request otp: store: %w", err)
	}

	notify(ctx, s.notifier, s.log, ports.TemplateOTP, user.Email, map[string]string{
		"title": "Email Verification OTP",
		"name":  user.Username,
		"otp":   code,
	})
	return nil
}

// VerifyOTP marks the caller verified when code matches one of their
// outstanding codes, then discards all of them.
func (s *VerificationService) VerifyOTP(ctx context.Context, caller domain.CallerIdentity, code string) error {
	if code == "" {
		return domain.ErrInvalidOTP
	}

	rec, err := s.otps.FindMatch(ctx, caller.ID, code)
	if err != nil {
		return err
	}
	if rec.Expired(s.now(), s.otpTTL) {
		return domain.ErrInvalidOTP
	}

	matched, err := s.users.MarkVerified(ctx, caller.ID)
	if err != nil {
		return fmt.Errorf("verify otp: %w", err)
	}
	if matched != 1 {
		return errors.Join(domain.ErrInternal, fmt.Errorf("verify otp: %d accounts matched", matched))
	}

	deleted, err := s.otps.DeleteAllForUser(ctx, caller.ID)
	if err != nil {
		return fmt.Errorf("verify otp: discard codes: %w", err)
	}

	s.log.Info().Str("user_id", caller.ID).Int64("codes_discarded", deleted).Msg("email verified")
	return nil
}
