package assignment

import (
	"context"
	"errors"
	"sync"

	apperrors "dealership-workers/internal/common/errors"

	"github.com/redis/go-redis/v9"
)

// Cursor remembers, per tenant, which advisor received the last round-robin
// lead. It is owned by the Registry and never held in package state.
type Cursor interface {
	Last(ctx context.Context, tenantID string) (string, error)
	Set(ctx context.Context, tenantID, advisorID string) error
}

type MemoryCursor struct {
	mu   sync.Mutex
	last map[string]string
}

func NewMemoryCursor() *MemoryCursor {
	return &MemoryCursor{last: make(map[string]string)}
}

func (c *MemoryCursor) Last(_ context.Context, tenantID string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last[tenantID], nil
}

func (c *MemoryCursor) Set(_ context.Context, tenantID, advisorID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.last[tenantID] = advisorID
	return nil
}

// RedisCursor shares the pointer between worker replicas.
type RedisCursor struct {
	client redis.Cmdable
	prefix string
}

func NewRedisCursor(client redis.Cmdable, prefix string) *RedisCursor {
	return &RedisCursor{client: client, prefix: prefix}
}

func (c *RedisCursor) key(tenantID string) string {
	return c.prefix + tenantID
}

func (c *RedisCursor) Last(ctx context.Context, tenantID string) (string, error) {
	last, err := c.client.Get(ctx, c.key(tenantID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", apperrors.NewCacheUnavailableError(err)
	}
	return last, nil
}

func (c *RedisCursor) Set(ctx context.Context, tenantID, advisorID string) error {
	if err := c.client.Set(ctx, c.key(tenantID), advisorID, 0).Err(); err != nil {
		return apperrors.NewCacheUnavailableError(err)
	}
	return nil
}
