package session

import (
	"encoding/json"
	"maps"
	"time"
)

// Record is the durable representation of one session: identifier, absolute
// expiry, and the key/value payload. A zero ExpiresAt means the session has
// no expiration. Records with empty Data are never persisted; stores receive
// a delete instead.
type Record struct {
	ID        ID                         `json:"id"`
	Data      map[string]json.RawMessage `json:"data"`
	ExpiresAt time.Time                  `json:"expires_at,omitzero"`
}

// Expired reports whether the record's resolved expiry is at or before now.
// Records without an expiry never expire.
func (r *Record) Expired(now time.Time) bool {
	return !r.ExpiresAt.IsZero() && !r.ExpiresAt.After(now)
}

// Clone returns a deep copy of the record. Stores use it to keep their
// internal state independent of caller-held records.
func (r *Record) Clone() *Record {
	c := &Record{
		ID:        r.ID,
		Data:      make(map[string]json.RawMessage, len(r.Data)),
		ExpiresAt: r.ExpiresAt,
	}
	maps.Copy(c.Data, r.Data)
	return c
}
