package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/quillpost/blog-api/internal/core/domain"
	"github.com/quillpost/blog-api/internal/core/ports"
	"github.com/quillpost/blog-api/internal/core/security"
)

const (
	defaultAccessTTL = 30 * time.Minute
	tokenTypeBearer  = "bearer"
)

// AuthService implements registration and login.
type AuthService struct {
	users    ports.UserRepository
	hasher   ports.PasswordHasher
	tokens   ports.TokenIssuer
	notifier ports.Notifier
	tokenTTL time.Duration
	log      zerolog.Logger
	now      func() time.Time
	newKey   func() (string, error)
}

func NewAuthService(
	users ports.UserRepository,
	hasher ports.PasswordHasher,
	tokens ports.TokenIssuer,
	notifier ports.Notifier,
	tokenTTL time.Duration,
	log zerolog.Logger,
) *AuthService {
	if tokenTTL <= 0 {
		tokenTTL = defaultAccessTTL
	}
	return &AuthService{
		users:    users,
		hasher:   hasher,
		tokens:   tokens,
		notifier: notifier,
		tokenTTL: tokenTTL,
		log:      log,
		now:      time.Now,
		newKey:   security.NewAPIKey,
	}
}

// Register creates an account. Username and email uniqueness are checked
// independently and every conflict found is reported. The welcome mail is
// queued after the account is stored and never fails the call.
func (s *AuthService) Register(ctx context.Context, username, email, password string) (*domain.User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if username == "" || email == "" || password == "" {
		return nil, domain.ErrInvalidInput
	}
	if err := checkPasswordLength(password); err != nil {
		return nil, err
	}

	var conflicts []error
	if taken, err := s.exists(ctx, s.users.FindByUsername, username); err != nil {
		return nil, err
	} else if taken {
		conflicts = append(conflicts, domain.ErrUsernameTaken)
	}
	if taken, err := s.exists(ctx, s.users.FindByEmail, email); err != nil {
		return nil, err
	} else if taken {
		conflicts = append(conflicts, domain.ErrEmailTaken)
	}
	if len(conflicts) > 0 {
		return nil, errors.Join(conflicts...)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("register: hash password: %w", err)
	}
	apiKey, err := s.newKey()
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}

	now := s.now().UTC()
	created, err := s.users.Create(ctx, &domain.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		APIKey:       apiKey,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("user_id", created.ID).Msg("user registered")
	notify(ctx, s.notifier, s.log, ports.TemplateRegistration, created.Email, map[string]string{
		"title": "Registration Successful",
		"name":  created.Username,
	})

	return created, nil
}

// Login exchanges a username and password for an access token. Unknown users
// and wrong passwords yield the same ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, username, password string) (*ports.LoginResult, error) {
	if username == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		return nil, domain.ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.ID, s.tokenTTL)
	if err != nil {
		return nil, fmt.Errorf("login: issue token: %w", err)
	}

	return &ports.LoginResult{AccessToken: token, TokenType: tokenTypeBearer}, nil
}

func (s *AuthService) exists(ctx context.Context, find func(context.Context, string) (*domain.User, error), key string) (bool, error) {
	_, err := find(ctx, key)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, domain.ErrUserNotFound):
		return false, nil
	default:
		return false, err
	}
}
