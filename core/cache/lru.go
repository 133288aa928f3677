// Package cache provides a thread-safe, generic LRU cache with a
// configurable capacity limit and optional eviction callbacks. It backs the
// capacity-bounded session cache frontend (store/lrustore) but is usable on
// its own.
package cache

import (
	"container/list"
	"sync"
)

type entry[K comparable, V any] struct {
	key   K
	value V
}

// LRUCache evicts the least recently used item once capacity is reached.
// All operations are safe for concurrent use.
type LRUCache[K comparable, V any] struct {
	mu       sync.Mutex
	capacity int
	order    *list.List
	items    map[K]*list.Element
	onEvict  func(K, V)
}

// NewLRUCache creates a cache holding at most capacity items. A capacity of
// zero or less panics: an unbounded "LRU" defeats its purpose.
func NewLRUCache[K comparable, V any](capacity int) *LRUCache[K, V] {
	if capacity <= 0 {
		panic("cache: capacity must be positive")
	}
	return &LRUCache[K, V]{
		capacity: capacity,
		order:    list.New(),
		items:    make(map[K]*list.Element, capacity),
	}
}

// SetEvictCallback registers fn to run for each entry removed by capacity
// eviction. It is not called for explicit Remove.
func (c *LRUCache[K, V]) SetEvictCallback(fn func(K, V)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onEvict = fn
}

// Put stores value under key, marking it most recently used. The oldest
// entry is evicted when the cache is full.
func (c *LRUCache[K, V]) Put(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		el.Value.(*entry[K, V]).value = value
		c.order.MoveToFront(el)
		return
	}

	c.items[key] = c.order.PushFront(&entry[K, V]{key: key, value: value})

	if c.order.Len() > c.capacity {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		ev := oldest.Value.(*entry[K, V])
		delete(c.items, ev.key)
		if c.onEvict != nil {
			c.onEvict(ev.key, ev.value)
		}
	}
}

// Get returns the value under key, marking it most recently used.
func (c *LRUCache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		var zero V
		return zero, false
	}
	c.order.MoveToFront(el)
	return el.Value.(*entry[K, V]).value, true
}

// Remove deletes key and returns the removed value, if present.
func (c *LRUCache[K, V]) Remove(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		var zero V
		return zero, false
	}
	c.order.Remove(el)
	delete(c.items, key)
	return el.Value.(*entry[K, V]).value, true
}

// Len returns the current number of cached items.
func (c *LRUCache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Cap returns the configured capacity.
func (c *LRUCache[K, V]) Cap() int {
	return c.capacity
}
