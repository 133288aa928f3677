// Package lrustore provides a capacity-bounded session store intended as
// the cache frontend of a session.CachingStore. Eviction of the least
// recently used records keeps memory bounded; evicted or expired entries
// simply read as misses and fall through to the durable backend.
package lrustore

import (
	"context"
	"time"

	"github.com/dmitrymomot/session/core/cache"
	"github.com/dmitrymomot/session/core/session"
)

// Store adapts an LRU cache to the session store contract.
type Store struct {
	cache *cache.LRUCache[session.ID, *session.Record]
}

// New creates a store holding at most capacity records.
func New(capacity int) *Store {
	return &Store{cache: cache.NewLRUCache[session.ID, *session.Record](capacity)}
}

// Save stores the record, evicting the least recently used one if full.
func (s *Store) Save(_ context.Context, rec *session.Record) error {
	s.cache.Put(rec.ID, rec.Clone())
	return nil
}

// Load returns the cached record, or nil when it is absent or expired.
// Expired entries are dropped eagerly so they do not occupy capacity.
func (s *Store) Load(_ context.Context, id session.ID) (*session.Record, error) {
	rec, ok := s.cache.Get(id)
	if !ok {
		return nil, nil
	}
	if rec.Expired(time.Now()) {
		s.cache.Remove(id)
		return nil, nil
	}
	return rec.Clone(), nil
}

// Delete removes the record, if cached.
func (s *Store) Delete(_ context.Context, id session.ID) error {
	s.cache.Remove(id)
	return nil
}

// Len returns the number of cached records.
func (s *Store) Len() int {
	return s.cache.Len()
}
