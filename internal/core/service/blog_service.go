package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/quillpost/blog-api/internal/core/domain"
	"github.com/quillpost/blog-api/internal/core/ports"
)

const (
	defaultListLimit = 4
	maxListLimit     = 100
	defaultOrderBy   = "created_at"
)

var sortableFields = map[string]bool{
	"created_at": true,
	"title":      true,
}

// BlogService serves posts. Reads are public; update and delete require the
// caller to be the post's author.
type BlogService struct {
	posts ports.PostRepository
	users ports.UserRepository
	cache ports.PostCache // optional
	log   zerolog.Logger
	now   func() time.Time
}

func NewBlogService(posts ports.PostRepository, users ports.UserRepository, cache ports.PostCache, log zerolog.Logger) *BlogService {
	return &BlogService{
		posts: posts,
		users: users,
		cache: cache,
		log:   log,
		now:   time.Now,
	}
}

func (s *BlogService) List(ctx context.Context, input ports.ListPostsInput) ([]*domain.Post, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	orderBy := input.OrderBy
	if orderBy == "" {
		orderBy = defaultOrderBy
	}
	if !sortableFields[orderBy] {
		return nil, fmt.Errorf("%w: cannot order by %q", domain.ErrInvalidInput, orderBy)
	}

	return s.posts.List(ctx, ports.ListPostsFilter{OrderBy: orderBy, Limit: limit})
}

func (s *BlogService) Get(ctx context.Context, id string) (*domain.Post, error) {
	if s.cache != nil {
		post, ok, err := s.cache.Get(ctx, id)
		if err != nil {
			s.log.Warn().Err(err).Str("post_id", id).Msg("post cache read failed")
		} else if ok {
			return post, nil
		}
	}

	post, err := s.posts.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, post); err != nil {
			s.log.Warn().Err(err).Str("post_id", id).Msg("post cache write failed")
		}
	}
	return post, nil
}

// Create stores a post authored by the caller.
func (s *BlogService) Create(ctx context.Context, caller domain.CallerIdentity, input ports.CreatePostInput) (*domain.Post, error) {
	if strings.TrimSpace(input.Title) == "" || strings.TrimSpace(input.Body) == "" {
		return nil, domain.ErrInvalidInput
	}

	author, err := s.users.FindByID(ctx, caller.ID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	return s.posts.Create(ctx, &domain.Post{
		Title:      input.Title,
		Body:       input.Body,
		AuthorID:   author.ID,
		AuthorName: author.Username,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
}

// Update checks existence before ownership, so a missing post is reported
// as not found to everyone.
func (s *BlogService) Update(ctx context.Context, caller domain.CallerIdentity, id string, patch domain.PostPatch) (*domain.Post, error) {
	existing, err := s.posts.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !domain.Authorize(caller, existing.AuthorID) {
		return nil, domain.ErrForbidden
	}
	if patch.Empty() {
		return existing, nil
	}

	if _, err := s.posts.Update(ctx, id, patch); err != nil {
		return nil, err
	}
	s.invalidate(ctx, id)

	return s.posts.FindByID(ctx, id)
}

func (s *BlogService) Delete(ctx context.Context, caller domain.CallerIdentity, id string) error {
	existing, err := s.posts.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if !domain.Authorize(caller, existing.AuthorID) {
		return domain.ErrForbidden
	}

	deleted, err := s.posts.Delete(ctx, id)
	if err != nil {
		return err
	}
	if deleted == 0 {
		return domain.ErrPostNotFound
	}
	s.invalidate(ctx, id)

	s.log.Info().Str("post_id", id).Str("user_id", caller.ID).Msg("post deleted")
	return nil
}

func (s *BlogService) invalidate(ctx context.Context, id string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, id); err != nil {
		s.log.Warn().Err(err).Str("post_id", id).Msg("post cache invalidation failed")
	}
}
