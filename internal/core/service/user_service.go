package service

import (
	"context"

	"github.com/quillpost/blog-api/internal/core/domain"
	"github.com/quillpost/blog-api/internal/core/ports"
)

type UserService struct {
	users ports.UserRepository
}

func NewUserService(users ports.UserRepository) *UserService {
	return &UserService{users: users}
}

// Details returns the caller's own account.
func (s *UserService) Details(ctx context.Context, caller domain.CallerIdentity) (*domain.User, error) {
	return s.users.FindByID(ctx, caller.ID)
}
