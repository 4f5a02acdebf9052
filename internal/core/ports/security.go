package ports

import (
	"time"

	"github.com/quillpost/blog-api/internal/core/domain"
	"github.com/quillpost/blog-api/internal/core/security"
)

// PasswordHasher is the one-way credential transform.
type PasswordHasher interface {
	Hash(secret string) (string, error)
	Verify(secret, stored string) bool
}

// TokenIssuer issues and validates signed identity tokens.
type TokenIssuer interface {
	Issue(subject string, ttl time.Duration) (string, error)
	IssueScoped(subject string, scope security.Scope, ttl time.Duration) (string, error)
	Validate(token string) (domain.CallerIdentity, error)
	ValidateScoped(token string, scope security.Scope) (domain.CallerIdentity, error)
}

// CodeGenerator produces one-time passcodes.
type CodeGenerator interface {
	Generate() (string, error)
}
