package cache

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JustEmoBut/scraper-backend/internal/domain"
)

func newTestCache(t *testing.T) *MemoryCache {
	t.Helper()
	c := NewMemoryCache(time.Minute)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestMemoryCache_SetAndGet(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		key      string
		value    []byte
		ttl      time.Duration
		wantMiss bool
	}{
		{name: "store and retrieve", key: "k1", value: []byte("payload"), ttl: time.Minute},
		{name: "store json", key: "k2", value: []byte(`{"id":"p1","name":"RTX 5070"}`), ttl: time.Minute},
		{name: "short ttl expires", key: "k3", value: []byte("soon"), ttl: time.Millisecond, wantMiss: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, cache.Set(ctx, tt.key, tt.value, tt.ttl))

			if tt.wantMiss {
				time.Sleep(10 * time.Millisecond)
				_, err := cache.Get(ctx, tt.key)
				assert.ErrorIs(t, err, domain.ErrCacheMiss)
				return
			}

			got, err := cache.Get(ctx, tt.key)
			require.NoError(t, err)
			assert.Equal(t, tt.value, got)
		})
	}
}

func TestMemoryCache_ValuesAreCopied(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	value := []byte("abc")
	require.NoError(t, cache.Set(ctx, "k", value, time.Minute))
	value[0] = 'x'

	got, err := cache.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))

	got[1] = 'y'
	again, _ := cache.Get(ctx, "k")
	assert.Equal(t, "abc", string(again))
}

func TestMemoryCache_Get_CacheMiss(t *testing.T) {
	cache := newTestCache(t)

	_, err := cache.Get(context.Background(), "non-existent-key")
	assert.ErrorIs(t, err, domain.ErrCacheMiss)
}

func TestMemoryCache_DeleteAndExists(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	exists, err := cache.Exists(ctx, "key")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, cache.Set(ctx, "key", []byte("v"), time.Minute))
	exists, _ = cache.Exists(ctx, "key")
	assert.True(t, exists)

	require.NoError(t, cache.Delete(ctx, "key"))
	exists, _ = cache.Exists(ctx, "key")
	assert.False(t, exists)

	require.NoError(t, cache.Set(ctx, "short", []byte("v"), time.Millisecond))
	time.Sleep(10 * time.Millisecond)
	exists, _ = cache.Exists(ctx, "short")
	assert.False(t, exists)
}

func TestMemoryCache_EvictAndClear(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, cache.Set(ctx, fmt.Sprintf("live-%d", i), []byte("v"), time.Minute))
	}
	require.NoError(t, cache.Set(ctx, "stale", []byte("v"), time.Millisecond))
	assert.Equal(t, 6, cache.Size())

	cache.evict(time.Now().Add(time.Second))
	assert.Equal(t, 5, cache.Size())

	cache.Clear()
	assert.Equal(t, 0, cache.Size())
	_, err := cache.Get(ctx, "live-0")
	assert.ErrorIs(t, err, domain.ErrCacheMiss)
}

func TestMemoryCache_CloseTwice(t *testing.T) {
	cache := NewMemoryCache(0)
	assert.NoError(t, cache.Close())
	assert.NoError(t, cache.Close())
}

func TestMemoryCache_Concurrent(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			key := fmt.Sprintf("key-%d", id)
			assert.NoError(t, cache.Set(ctx, key, []byte(key), time.Minute))
			_, err := cache.Get(ctx, key)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 10, cache.Size())
}
