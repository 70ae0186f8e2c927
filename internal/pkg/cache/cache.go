package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Cache stores computed values until they are explicitly invalidated.
// Entries have no TTL: staleness lasts until the next Invalidate call.
type Cache interface {
	// Get loads the raw cached bytes for key. ok is false on a miss.
	Get(ctx context.Context, key string) (data []byte, ok bool, err error)

	// Set stores raw bytes under key.
	Set(ctx context.Context, key string, data []byte) error

	// Invalidate removes key. Removing an absent key is not an error.
	Invalidate(ctx context.Context, key string) error
}

// RedisCache implements Cache on top of a go-redis client.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache creates a Cache backed by the given Redis client.
func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("cache get %q failed: %w", key, err)
	}
	return data, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, data []byte) error {
	// TTL 0: entries live until invalidated.
	if err := c.client.Set(ctx, key, data, 0).Err(); err != nil {
		return fmt.Errorf("cache set %q failed: %w", key, err)
	}
	return nil
}

func (c *RedisCache) Invalidate(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("cache invalidate %q failed: %w", key, err)
	}
	return nil
}

// GetOrCompute returns the cached value for key, computing and storing it on a miss.
// Cache failures degrade to computing the value directly; the caller still gets data.
func GetOrCompute[T any](ctx context.Context, c Cache, key string, compute func(ctx context.Context) (T, error)) (T, error) {
	var zero T

	data, ok, err := c.Get(ctx, key)
	if err == nil && ok {
		var v T
		if err := json.Unmarshal(data, &v); err == nil {
			return v, nil
		}
		// Corrupt entry: drop it and fall through to recompute.
		_ = c.Invalidate(ctx, key)
	}

	v, err := compute(ctx)
	if err != nil {
		return zero, err
	}

	if data, err := json.Marshal(v); err == nil {
		_ = c.Set(ctx, key, data)
	}

	return v, nil
}
