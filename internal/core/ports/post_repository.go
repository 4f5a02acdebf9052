package ports

import (
	"context"

	"github.com/quillpost/blog-api/internal/core/domain"
)

// ListPostsFilter carries the paging and ordering of a post listing.
type ListPostsFilter struct {
	OrderBy string // store field name, already whitelisted by the service
	Limit   int
}

// PostRepository persists blog posts.
type PostRepository interface {
	Create(ctx context.Context, post *domain.Post) (*domain.Post, error)
	FindByID(ctx context.Context, id string) (*domain.Post, error)
	// List returns posts sorted descending by filter.OrderBy.
	List(ctx context.Context, filter ListPostsFilter) ([]*domain.Post, error)
	// Update applies patch and returns the number of matched documents.
	Update(ctx context.Context, id string, patch domain.PostPatch) (int64, error)
	// Delete removes the post and returns the number of deleted documents.
	Delete(ctx context.Context, id string) (int64, error)
}

// PostCache is an optional read-through cache for single posts.
type PostCache interface {
	Get(ctx context.Context, id string) (*domain.Post, bool, error)
	Set(ctx context.Context, post *domain.Post) error
	Invalidate(ctx context.Context, id string) error
}
