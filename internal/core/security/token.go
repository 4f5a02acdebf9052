package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/quillpost/blog-api/internal/core/domain"
)

// Scope restricts what a token may be used for.
type Scope string

const (
	ScopeAccess        Scope = "access"
	ScopePasswordReset Scope = "password_reset"
)

// DefaultAlgorithm is used when no algorithm is configured.
const DefaultAlgorithm = "HS256"

// Token errors. They are for logging only and must not reach the network caller.
var (
	ErrTokenMalformed      = errors.New("token malformed")
	ErrTokenBadSignature   = errors.New("token signature invalid")
	ErrTokenExpired        = errors.New("token expired")
	ErrTokenMissingSubject = errors.New("token subject missing")
	ErrTokenWrongScope     = errors.New("token scope mismatch")
	ErrInvalidTTL          = errors.New("token ttl must be positive")
	ErrMissingSecret       = errors.New("token signing secret is empty")
	ErrUnsupportedAlg      = errors.New("unsupported token signing algorithm")
)

type tokenClaims struct {
	jwt.RegisteredClaims
	Scope Scope `json:"scope"`
}

// TokenCodec signs and validates compact HMAC JWTs carrying a subject id, a
// scope and an absolute expiry.
type TokenCodec struct {
	secret []byte
	method *jwt.SigningMethodHMAC
	now    func() time.Time
}

// NewTokenCodec builds a codec for secret and an HMAC algorithm name
// (HS256, HS384 or HS512). An empty algorithm selects HS256.
func NewTokenCodec(secret, algorithm string) (*TokenCodec, error) {
	if secret == "" {
		return nil, ErrMissingSecret
	}
	if algorithm == "" {
		algorithm = DefaultAlgorithm
	}
	method, ok := jwt.GetSigningMethod(algorithm).(*jwt.SigningMethodHMAC)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedAlg, algorithm)
	}
	return &TokenCodec{secret: []byte(secret), method: method, now: time.Now}, nil
}

// WithClock returns a copy of the codec that reads the current time from now.
func (c *TokenCodec) WithClock(now func() time.Time) *TokenCodec {
	cp := *c
	cp.now = now
	return &cp
}

// Issue signs an access token for subject valid for ttl.
func (c *TokenCodec) Issue(subject string, ttl time.Duration) (string, error) {
	return c.IssueScoped(subject, ScopeAccess, ttl)
}

// IssueScoped signs a token for subject restricted to scope. Expiry has second
// precision and is rounded up, so a fresh token is always valid for at least ttl.
func (c *TokenCodec) IssueScoped(subject string, scope Scope, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		return "", ErrInvalidTTL
	}
	if subject == "" {
		return "", ErrTokenMissingSubject
	}

	now := c.now()
	claims := tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(ceilSecond(now.Add(ttl))),
		},
		Scope: scope,
	}

	signed, err := jwt.NewWithClaims(c.method, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Validate checks an access token and returns the identity it carries.
func (c *TokenCodec) Validate(token string) (domain.CallerIdentity, error) {
	return c.ValidateScoped(token, ScopeAccess)
}

// ValidateScoped checks signature, expiry, subject and scope of token.
func (c *TokenCodec) ValidateScoped(token string, scope Scope) (domain.CallerIdentity, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{c.method.Alg()}),
		jwt.WithTimeFunc(c.now),
		jwt.WithExpirationRequired(),
		jwt.WithStrictDecoding(),
	)

	claims := &tokenClaims{}
	if _, err := parser.ParseWithClaims(token, claims, c.key); err != nil {
		return domain.CallerIdentity{}, classify(err)
	}
	if claims.Subject == "" {
		return domain.CallerIdentity{}, ErrTokenMissingSubject
	}
	if claims.Scope != scope {
		return domain.CallerIdentity{}, ErrTokenWrongScope
	}
	return domain.CallerIdentity{ID: claims.Subject}, nil
}

func (c *TokenCodec) key(*jwt.Token) (any, error) {
	return c.secret, nil
}

func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return ErrTokenBadSignature
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrTokenExpired
	default:
		return fmt.Errorf("%w: %v", ErrTokenMalformed, err)
	}
}

func ceilSecond(t time.Time) time.Time {
	if tr := t.Truncate(time.Second); tr.Before(t) {
		return tr.Add(time.Second)
	}
	return t
}
