package ports

import (
	"context"

	"github.com/quillpost/blog-api/internal/core/domain"
)

// OTPRepository persists one-time passcodes.
type OTPRepository interface {
	Create(ctx context.Context, rec *domain.OTPRecord) error
	// FindMatch returns the record with exactly this user id and code, or domain.ErrInvalidOTP.
	FindMatch(ctx context.Context, userID, code string) (*domain.OTPRecord, error)
	// DeleteAllForUser removes every outstanding code of the user.
	DeleteAllForUser(ctx context.Context, userID string) (int64, error)
}
