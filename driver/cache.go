package driver

import (
	"context"
	"net/url"
	"time"

	"github.com/redis/go-redis/v9"
)

// CachedExecutor is a read-through Redis cache in front of an Executor.
// GETs against the same endpoint+query within the TTL are served from
// cache; any cache failure degrades to a direct fetch.
type CachedExecutor struct {
	next Executor
	rdb  *redis.Client
	ttl  time.Duration
}

// WithCache wraps an Executor with a Redis response cache.
func WithCache(next Executor, rdb *redis.Client, ttl time.Duration) *CachedExecutor {
	return &CachedExecutor{next: next, rdb: rdb, ttl: ttl}
}

// Get satisfies Executor.
func (c *CachedExecutor) Get(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	key := "restorm:" + endpoint
	if encoded := params.Encode(); encoded != "" {
		key += "?" + encoded
	}

	if body, err := c.rdb.Get(ctx, key).Bytes(); err == nil {
		return body, nil
	}

	body, err := c.next.Get(ctx, endpoint, params)
	if err != nil {
		return nil, err
	}
	// best effort: a failed write just means the next call fetches again
	_ = c.rdb.Set(ctx, key, body, c.ttl).Err()
	return body, nil
}
