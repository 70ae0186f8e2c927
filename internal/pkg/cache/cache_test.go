package cache

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryCache struct {
	entries map[string][]byte
	getErr  error
	setErr  error
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: make(map[string][]byte)}
}

func (c *memoryCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if c.getErr != nil {
		return nil, false, c.getErr
	}
	data, ok := c.entries[key]
	return data, ok, nil
}

func (c *memoryCache) Set(ctx context.Context, key string, data []byte) error {
	if c.setErr != nil {
		return c.setErr
	}
	c.entries[key] = data
	return nil
}

func (c *memoryCache) Invalidate(ctx context.Context, key string) error {
	delete(c.entries, key)
	return nil
}

func TestGetOrComputeMissThenHit(t *testing.T) {
	c := newMemoryCache()
	ctx := context.Background()
	calls := 0

	compute := func(ctx context.Context) ([]string, error) {
		calls++
		return []string{"a", "b"}, nil
	}

	v, err := GetOrCompute(ctx, c, "k", compute)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, v)
	assert.Equal(t, 1, calls)

	v, err = GetOrCompute(ctx, c, "k", compute)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, v)
	assert.Equal(t, 1, calls, "second read must come from the cache")
}

func TestGetOrComputeCorruptEntry(t *testing.T) {
	c := newMemoryCache()
	ctx := context.Background()
	c.entries["k"] = []byte("{definitely not json")

	v, err := GetOrCompute(ctx, c, "k", func(ctx context.Context) (int, error) {
		return 42, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, v)

	// The corrupt entry was replaced with the recomputed value.
	assert.Equal(t, []byte("42"), c.entries["k"])
}

func TestGetOrComputeDegradesOnCacheFailure(t *testing.T) {
	c := newMemoryCache()
	c.getErr = errors.New("redis down")
	c.setErr = errors.New("redis down")
	ctx := context.Background()

	v, err := GetOrCompute(ctx, c, "k", func(ctx context.Context) (string, error) {
		return "fresh", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "fresh", v)
}

func TestGetOrComputePropagatesComputeError(t *testing.T) {
	c := newMemoryCache()
	ctx := context.Background()
	wantErr := errors.New("db down")

	_, err := GetOrCompute(ctx, c, "k", func(ctx context.Context) (string, error) {
		return "", wantErr
	})
	assert.ErrorIs(t, err, wantErr)
}
