package ports

import (
	"context"

	"github.com/quillpost/blog-api/internal/core/domain"
)

// LoginResult is returned by a successful login.
type LoginResult struct {
	AccessToken string
	TokenType   string
}

// AuthService registers accounts and exchanges credentials for tokens.
type AuthService interface {
	Register(ctx context.Context, username, email, password string) (*domain.User, error)
	Login(ctx context.Context, username, password string) (*LoginResult, error)
}

// SessionResolver turns an Authorization header value into a caller identity.
type SessionResolver interface {
	Resolve(header string) (domain.CallerIdentity, error)
}

// UserService exposes account reads for the authenticated caller.
type UserService interface {
	Details(ctx context.Context, caller domain.CallerIdentity) (*domain.User, error)
}

// VerificationService runs the OTP email verification workflow.
type VerificationService interface {
	RequestOTP(ctx context.Context, caller domain.CallerIdentity) error
	VerifyOTP(ctx context.Context, caller domain.CallerIdentity, code string) error
}

// PasswordService runs the password reset workflow.
type PasswordService interface {
	RequestReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) (*domain.User, error)
}

// CreatePostInput carries the fields of a new post.
type CreatePostInput struct {
	Title string
	Body  string
}

// ListPostsInput carries the query of a post listing.
type ListPostsInput struct {
	Limit   int
	OrderBy string
}

// BlogService manages blog posts and enforces ownership on mutations.
type BlogService interface {
	List(ctx context.Context, input ListPostsInput) ([]*domain.Post, error)
	Get(ctx context.Context, id string) (*domain.Post, error)
	Create(ctx context.Context, caller domain.CallerIdentity, input CreatePostInput) (*domain.Post, error)
	Update(ctx context.Context, caller domain.CallerIdentity, id string, patch domain.PostPatch) (*domain.Post, error)
	Delete(ctx context.Context, caller domain.CallerIdentity, id string) error
}
