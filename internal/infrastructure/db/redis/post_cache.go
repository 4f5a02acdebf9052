package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/quillpost/blog-api/internal/api/metrics"
	"github.com/quillpost/blog-api/internal/core/domain"
)

const defaultPostTTL = 5 * time.Minute

// PostCache is a read-through cache for single blog posts.
// Key format: post:<id>
type PostCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewPostCache wraps client. A non-positive ttl falls back to five minutes.
func NewPostCache(client *redis.Client, ttl time.Duration) *PostCache {
	if ttl <= 0 {
		ttl = defaultPostTTL
	}
	return &PostCache{client: client, ttl: ttl}
}

// Get reports a miss as (nil, false, nil).
func (c *PostCache) Get(ctx context.Context, id string) (*domain.Post, bool, error) {
	raw, err := c.client.Get(ctx, c.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			metrics.PostCacheTotal.WithLabelValues("miss").Inc()
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("post cache get: %w", err)
	}

	var post domain.Post
	if err := json.Unmarshal(raw, &post); err != nil {
		// drop the unreadable entry and treat it as a miss
		_ = c.client.Del(ctx, c.key(id)).Err()
		metrics.PostCacheTotal.WithLabelValues("miss").Inc()
		return nil, false, nil
	}
	metrics.PostCacheTotal.WithLabelValues("hit").Inc()
	return &post, true, nil
}

func (c *PostCache) Set(ctx context.Context, post *domain.Post) error {
	data, err := json.Marshal(post)
	if err != nil {
		return fmt.Errorf("post cache encode: %w", err)
	}
	return c.client.Set(ctx, c.key(post.ID), data, c.ttl).Err()
}

func (c *PostCache) Invalidate(ctx context.Context, id string) error {
	return c.client.Del(ctx, c.key(id)).Err()
}

func (c *PostCache) key(id string) string {
	return "post:" + id
}
