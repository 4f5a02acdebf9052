package ports

import (
	"context"

	"github.com/quillpost/blog-api/internal/core/domain"
)

// UserRepository persists accounts in the users collection.
type UserRepository interface {
	// Create stores user and returns it with its assigned ID.
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	// MarkVerified sets the verified flag and returns the number of matched accounts.
	MarkVerified(ctx context.Context, id string) (int64, error)
	// UpdatePasswordHash replaces the stored credential wholesale.
	UpdatePasswordHash(ctx context.Context, id, hash string) error
}
