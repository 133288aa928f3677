package session

import (
	"context"
	"time"
)

// Store is the uniform persistence contract every backend implements.
// Implementations must be safe for concurrent use.
//
// Stores do not serialize concurrent writers: callers that need protection
// against lost updates use the compare-and-swap primitive on the Session
// handle (ReplaceIfEqual) rather than relying on store-level ordering.
type Store interface {
	// Save upserts the record by ID, replacing any existing data and
	// expiry wholesale. Partial merges are not permitted.
	Save(ctx context.Context, rec *Record) error

	// Load returns the record for the given ID, or nil when no record
	// exists or an existing record has expired. Expired records are
	// functionally absent.
	Load(ctx context.Context, id ID) (*Record, error)

	// Delete removes the record. Deleting a nonexistent ID is not an
	// error.
	Delete(ctx context.Context, id ID) error
}

// Creator is an optional store capability for an explicit create path,
// distinct from the Save upsert. Implementations must detect an ID collision
// and regenerate the record's ID with a bounded retry before inserting.
type Creator interface {
	Create(ctx context.Context, rec *Record) error
}

// ExpiredDeleter is an optional store capability that bulk-removes records
// whose expiry has passed. Backends with native TTL support generally do not
// need it.
type ExpiredDeleter interface {
	DeleteExpired(ctx context.Context) error
}

// ContinuouslyDeleteExpired sweeps expired records and then sleeps for
// period, forever. The first sweep failure terminates the loop and is
// returned; callers own the restart policy. The loop also stops when ctx is
// cancelled.
func ContinuouslyDeleteExpired(ctx context.Context, store ExpiredDeleter, period time.Duration) error {
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		if err := store.DeleteExpired(ctx); err != nil {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
