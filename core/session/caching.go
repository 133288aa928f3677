package session

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// CachingStore layers a fast frontend store over a durable backend behind
// the same Store contract. Reads are served from the cache when possible and
// hydrate it on a backend hit; writes and deletes go to both sides.
//
// Failures are distinguished so callers can apply differential tolerance:
// cache-side errors match ErrCache, backend-side errors match ErrStore. The
// composition itself propagates either as fatal, including a cache
// hydration failure during read-through.
//
// Note that the composition adds no distributed invalidation: a backend
// write that bypasses this instance leaves the cache momentarily stale.
type CachingStore struct {
	cache Store
	store Store
}

// NewCachingStore combines a cache frontend and a durable backend.
func NewCachingStore(cache, store Store) *CachingStore {
	return &CachingStore{cache: cache, store: store}
}

// Save writes the record to both the cache and the backend concurrently.
// Both writes are always attempted even if one fails.
func (s *CachingStore) Save(ctx context.Context, rec *Record) error {
	var g errgroup.Group
	g.Go(func() error {
		if err := s.cache.Save(ctx, rec); err != nil {
			return fmt.Errorf("%w: %v", ErrCache, err)
		}
		return nil
	})
	g.Go(func() error {
		if err := s.store.Save(ctx, rec); err != nil {
			return fmt.Errorf("%w: %v", ErrStore, err)
		}
		return nil
	})
	return g.Wait()
}

// Load tries the cache first; on a hit the backend is untouched. On a miss
// it loads from the backend and, when a record is found, populates the cache
// with it before returning.
func (s *CachingStore) Load(ctx context.Context, id ID) (*Record, error) {
	rec, err := s.cache.Load(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCache, err)
	}
	if rec != nil {
		return rec, nil
	}

	rec, err = s.store.Load(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStore, err)
	}
	if rec == nil {
		return nil, nil
	}

	if err := s.cache.Save(ctx, rec); err != nil {
		return nil, fmt.Errorf("%w: hydration failed: %v", ErrCache, err)
	}
	return rec, nil
}

// Delete removes the record from both sides concurrently.
func (s *CachingStore) Delete(ctx context.Context, id ID) error {
	var g errgroup.Group
	g.Go(func() error {
		if err := s.cache.Delete(ctx, id); err != nil {
			return fmt.Errorf("%w: %v", ErrCache, err)
		}
		return nil
	})
	g.Go(func() error {
		if err := s.store.Delete(ctx, id); err != nil {
			return fmt.Errorf("%w: %v", ErrStore, err)
		}
		return nil
	})
	return g.Wait()
}

// Create inserts the record through the backend's create path when it has
// one, then mirrors the result into the cache. The backend goes first so a
// collision-driven ID regeneration is reflected in what the cache stores.
func (s *CachingStore) Create(ctx context.Context, rec *Record) error {
	if creator, ok := s.store.(Creator); ok {
		if err := creator.Create(ctx, rec); err != nil {
			return fmt.Errorf("%w: %v", ErrStore, err)
		}
	} else if err := s.store.Save(ctx, rec); err != nil {
		return fmt.Errorf("%w: %v", ErrStore, err)
	}

	if err := s.cache.Save(ctx, rec); err != nil {
		return fmt.Errorf("%w: %v", ErrCache, err)
	}
	return nil
}

// DeleteExpired delegates to the backend's sweep. The cache is expected to
// drop expired entries on its own (capacity bounds or native TTL).
func (s *CachingStore) DeleteExpired(ctx context.Context) error {
	if d, ok := s.store.(ExpiredDeleter); ok {
		return d.DeleteExpired(ctx)
	}
	return ErrNoDeleteExpired
}
