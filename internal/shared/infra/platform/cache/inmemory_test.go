package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type entry struct {
	Name string `json:"name"`
}

func TestInMemoryCache_SetGetDelete(t *testing.T) {
	c := NewInMemoryCache(time.Minute, 0)
	defer c.Stop()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", entry{Name: "John"}, 0))

	var got entry
	hit, err := c.Get(ctx, "k", &got)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, "John", got.Name)

	require.NoError(t, c.Delete(ctx, "k"))
	hit, err = c.Get(ctx, "k", &got)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestInMemoryCache_Expiry(t *testing.T) {
	c := NewInMemoryCache(time.Minute, 0)
	defer c.Stop()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set(context.Background(), "k", entry{Name: "x"}, 5))

	now = now.Add(6 * time.Second)
	var got entry
	hit, _ := c.Get(context.Background(), "k", &got)
	assert.False(t, hit)

	c.purgeExpired()
	c.mu.RLock()
	assert.Empty(t, c.store)
	c.mu.RUnlock()
}

func TestInMemoryCache_StopIsIdempotent(t *testing.T) {
	c := NewInMemoryCache(time.Minute, time.Millisecond)
	c.Stop()
	c.Stop()
}

func TestHelpers_NilCacheIsNoop(t *testing.T) {
	assert.NotPanics(t, func() {
		SetWithTimeout(nil, "k", entry{}, 10, zap.NewNop())
		InvalidateSync(context.Background(), nil, "k", zap.NewNop())
	})
}

func TestSetWithTimeout_StoresThenInvalidates(t *testing.T) {
	c := NewInMemoryCache(time.Minute, 0)
	defer c.Stop()

	SetWithTimeout(c, "k", entry{Name: "sync"}, 0, zap.NewNop())
	var got entry
	hit, err := c.Get(context.Background(), "k", &got)
	require.NoError(t, err)
	require.True(t, hit)
	assert.Equal(t, "sync", got.Name)

	InvalidateSync(context.Background(), c, "k", zap.NewNop())
	hit, _ = c.Get(context.Background(), "k", &got)
	assert.False(t, hit)
}
