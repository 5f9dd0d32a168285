package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "blog:content:"

// BlogContent is the cached, ready to serve rendition of a stored blog.
type BlogContent struct {
	BlogID    string    `json:"blog_id"`
	ProjectID string    `json:"project_id"`
	Title     string    `json:"title"`
	Author    string    `json:"author"`
	Summary   string    `json:"summary"`
	Category  string    `json:"category"`
	Markup    string    `json:"markup"`
	Excerpt   string    `json:"excerpt"`
	UpdatedAt time.Time `json:"updated_at"`
}

type IBlogContentCache interface {
	// Get returns nil without error on a miss.
	Get(ctx context.Context, blogID string) (*BlogContent, error)
	Set(ctx context.Context, content *BlogContent) error
	Delete(ctx context.Context, blogID string) error
}

type redisBlogContentCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewBlogContentCache(rdb *redis.Client, ttl time.Duration) IBlogContentCache {
	if rdb == nil {
		return &noopBlogContentCache{}
	}
	return &redisBlogContentCache{rdb: rdb, ttl: ttl}
}

func (c *redisBlogContentCache) Get(ctx context.Context, blogID string) (*BlogContent, error) {
	raw, err := c.rdb.Get(ctx, keyPrefix+blogID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("get cached blog %s: %w", blogID, err)
	}

	var content BlogContent
	if err := json.Unmarshal(raw, &content); err != nil {
		// Corrupt entries are treated as a miss and evicted.
		_ = c.rdb.Del(ctx, keyPrefix+blogID).Err()
		return nil, nil
	}
	return &content, nil
}

func (c *redisBlogContentCache) Set(ctx context.Context, content *BlogContent) error {
	raw, err := json.Marshal(content)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, keyPrefix+content.BlogID, raw, c.ttl).Err()
}

func (c *redisBlogContentCache) Delete(ctx context.Context, blogID string) error {
	return c.rdb.Del(ctx, keyPrefix+blogID).Err()
}

// noopBlogContentCache is used when Redis is not configured.
type noopBlogContentCache struct{}

func (noopBlogContentCache) Get(context.Context, string) (*BlogContent, error) { return nil, nil }
func (noopBlogContentCache) Set(context.Context, *BlogContent) error           { return nil }
func (noopBlogContentCache) Delete(context.Context, string) error              { return nil }
