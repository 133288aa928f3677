package memstore

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrymomot/session/core/session"
)

// Store is an in-memory session store backed by a mutex-guarded map. It is
// constructed once per process and carries no ambient global state. Useful
// for tests and single-process deployments; data does not survive restarts.
type Store struct {
	mu    sync.Mutex
	items map[session.ID]*session.Record
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{items: make(map[session.ID]*session.Record)}
}

// Save upserts the record by ID.
func (s *Store) Save(_ context.Context, rec *session.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[rec.ID] = rec.Clone()
	return nil
}

// Create inserts the record, regenerating its ID on collision. The retry
// loop is bounded even though a collision is astronomically unlikely.
func (s *Store) Create(_ context.Context, rec *session.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for range createRetries {
		if _, exists := s.items[rec.ID]; !exists {
			s.items[rec.ID] = rec.Clone()
			return nil
		}
		id, err := session.NewID()
		if err != nil {
			return err
		}
		rec.ID = id
	}
	return session.ErrIDCollision
}

const createRetries = 8

// Load returns the record for id, or nil when it is missing or expired.
func (s *Store) Load(_ context.Context, id session.ID) (*session.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.items[id]
	if !ok || rec.Expired(time.Now()) {
		return nil, nil
	}
	return rec.Clone(), nil
}

// Delete removes the record. Unknown IDs are not an error.
func (s *Store) Delete(_ context.Context, id session.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, id)
	return nil
}

// DeleteExpired sweeps all records whose expiry has passed.
func (s *Store) DeleteExpired(_ context.Context) error {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()
	for id, rec := range s.items {
		if rec.Expired(now) {
			delete(s.items, id)
		}
	}
	return nil
}

// Len returns the number of records currently held, expired or not.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}
