package cache_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/session/core/cache"
)

func TestNewLRUCache_PanicsOnNonPositiveCapacity(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() { cache.NewLRUCache[string, int](0) })
	assert.Panics(t, func() { cache.NewLRUCache[string, int](-1) })
}

func TestLRUCache_PutGet(t *testing.T) {
	t.Parallel()

	c := cache.NewLRUCache[string, int](2)
	c.Put("a", 1)

	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)

	_, ok = c.Get("missing")
	assert.False(t, ok)
}

func TestLRUCache_PutOverwrites(t *testing.T) {
	t.Parallel()

	c := cache.NewLRUCache[string, int](2)
	c.Put("a", 1)
	c.Put("a", 2)

	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 2, v)
	assert.Equal(t, 1, c.Len())
}

func TestLRUCache_EvictsOldest(t *testing.T) {
	t.Parallel()

	c := cache.NewLRUCache[string, int](2)
	c.Put("a", 1)
	c.Put("b", 2)
	c.Put("c", 3)

	_, ok := c.Get("a")
	assert.False(t, ok, "oldest entry must be evicted")
	assert.Equal(t, 2, c.Len())
}

func TestLRUCache_GetRefreshesRecency(t *testing.T) {
	t.Parallel()

	c := cache.NewLRUCache[string, int](2)
	c.Put("a", 1)
	c.Put("b", 2)

	_, ok := c.Get("a")
	require.True(t, ok)

	c.Put("c", 3)

	_, ok = c.Get("a")
	assert.True(t, ok, "recently read entry must survive")
	_, ok = c.Get("b")
	assert.False(t, ok)
}

func TestLRUCache_EvictCallback(t *testing.T) {
	t.Parallel()

	c := cache.NewLRUCache[string, int](1)

	var evictedKey string
	var evictedVal int
	c.SetEvictCallback(func(k string, v int) {
		evictedKey = k
		evictedVal = v
	})

	c.Put("a", 1)
	c.Put("b", 2)

	assert.Equal(t, "a", evictedKey)
	assert.Equal(t, 1, evictedVal)

	// Explicit removal must not fire the callback.
	evictedKey = ""
	c.Remove("b")
	assert.Empty(t, evictedKey)
}

func TestLRUCache_Remove(t *testing.T) {
	t.Parallel()

	c := cache.NewLRUCache[string, int](2)
	c.Put("a", 1)

	v, ok := c.Remove("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)
	assert.Equal(t, 0, c.Len())

	_, ok = c.Remove("a")
	assert.False(t, ok)
}

func TestLRUCache_Cap(t *testing.T) {
	t.Parallel()

	c := cache.NewLRUCache[string, int](7)
	assert.Equal(t, 7, c.Cap())
}

func TestLRUCache_ConcurrentAccess(t *testing.T) {
	t.Parallel()

	c := cache.NewLRUCache[int, int](64)

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range 500 {
				key := (i*500 + j) % 100
				c.Put(key, j)
				c.Get(key)
			}
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, c.Len(), 64)
}
