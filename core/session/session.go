package session

import (
	"bytes"
	"encoding/json"
	"errors"
	"sync"
	"time"
)

type deletionState int

const (
	deletionNone deletionState = iota
	deletionDelete
	deletionCycle
)

// Session is the live, in-request mutable view over a session record. It
// tracks whether the data changed, whether the session was marked deleted or
// cycled, and exposes the key/value API together with the compare-and-swap
// primitive.
//
// All state is guarded by a single mutex held only for the duration of an
// individual operation, never across I/O. A handle is an independent
// in-memory snapshot: writes are not visible to concurrent requests holding
// their own handle for the same ID until the middleware persists them.
type Session struct {
	mu       sync.Mutex
	id       ID
	data     map[string]json.RawMessage
	expiry   Expiry
	modified bool
	deletion deletionState
	oldID    ID
	loaded   bool
}

// New creates a fresh session with a newly generated ID and the given expiry
// policy. The session starts unmodified and empty.
func New(expiry Expiry) (*Session, error) {
	id, err := NewID()
	if err != nil {
		return nil, err
	}
	return &Session{
		id:     id,
		data:   make(map[string]json.RawMessage),
		expiry: expiry,
	}, nil
}

// FromRecord builds a session hydrated from a stored record. The expiry
// policy governs how the expiration is re-resolved on save; the record's
// materialized expiry is what the store already holds.
func FromRecord(rec *Record, expiry Expiry) *Session {
	c := rec.Clone()
	return &Session{
		id:     c.ID,
		data:   c.Data,
		expiry: expiry,
		loaded: true,
	}
}

// ID returns the session identifier. After CycleID the identifier is only
// replaced once the middleware reconciles the session, so the previous ID is
// still reported until then.
func (s *Session) ID() ID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
}

// Get decodes the value stored under key into dest. It returns false when
// the key is absent. A value that cannot be decoded into dest fails the call
// with ErrDecode; it is never coerced to "not found". A nil dest only checks
// presence.
func (s *Session) Get(key string, dest any) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, ok := s.data[key]
	if !ok {
		return false, nil
	}
	if dest == nil {
		return true, nil
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, errors.Join(ErrDecode, err)
	}
	return true, nil
}

// Set stores value under key and returns the previous raw value, if any.
// Writing a value byte-identical to the stored one is a no-op and does not
// mark the session as modified.
func (s *Session) Set(key string, value any) (json.RawMessage, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, errors.Join(ErrEncode, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prev, existed := s.data[key]
	if existed && bytes.Equal(prev, raw) {
		return prev, nil
	}

	s.data[key] = raw
	s.modified = true
	if existed {
		return prev, nil
	}
	return nil, nil
}

// Remove deletes key from the session, decoding the removed value into dest
// when dest is non-nil. It returns false when the key was absent; removing a
// missing key does not mark the session as modified.
func (s *Session) Remove(key string, dest any) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, ok := s.data[key]
	if !ok {
		return false, nil
	}

	delete(s.data, key)
	s.modified = true

	if dest != nil {
		if err := json.Unmarshal(raw, dest); err != nil {
			return false, errors.Join(ErrDecode, err)
		}
	}
	return true, nil
}

// Clear removes all data from the session.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearLocked()
}

func (s *Session) clearLocked() {
	if len(s.data) == 0 {
		return
	}
	s.data = make(map[string]json.RawMessage)
	s.modified = true
}

// ReplaceIfEqual installs newValue under key iff the stored value is
// byte-equal to expected at the instant of the call. A nil expected matches
// an absent key. It returns false without mutation when the stored value has
// diverged; callers loop (re-Get, recompute, retry) to guard against lost
// updates from concurrent read-then-write sequences.
func (s *Session) ReplaceIfEqual(key string, expected, newValue any) (bool, error) {
	newRaw, err := json.Marshal(newValue)
	if err != nil {
		return false, errors.Join(ErrEncode, err)
	}

	var expRaw json.RawMessage
	if expected != nil {
		if expRaw, err = json.Marshal(expected); err != nil {
			return false, errors.Join(ErrEncode, err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.data[key]
	switch {
	case ok && expected != nil && bytes.Equal(stored, expRaw):
	case !ok && expected == nil:
	default:
		return false, nil
	}

	s.data[key] = newRaw
	if !bytes.Equal(newRaw, expRaw) {
		s.modified = true
	}
	return true, nil
}

// Delete marks the session for removal from the store. The middleware
// performs the actual delete and emits a cookie-removal header; no further
// writes will be persisted.
func (s *Session) Delete() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deletion = deletionDelete
}

// CycleID marks the session for ID rotation while preserving its data. The
// current ID is remembered for deletion and a fresh one is assigned during
// reconciliation. Cycling always implies modified so a fresh cookie is
// emitted for the new ID.
func (s *Session) CycleID() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.deletion == deletionDelete {
		return
	}
	if s.deletion != deletionCycle {
		s.oldID = s.id
	}
	s.deletion = deletionCycle
	s.modified = true
}

// Flush clears all data and marks the session deleted.
func (s *Session) Flush() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearLocked()
	s.deletion = deletionDelete
}

// SetExpiry replaces the session's expiry policy and marks it modified.
func (s *Session) SetExpiry(e Expiry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expiry = e
	s.modified = true
}

// SetExpiryIn sets a fixed expiration at now+d.
func (s *Session) SetExpiryIn(d time.Duration) {
	s.SetExpiry(ExpireAt(time.Now().Add(d)))
}

// Expiry returns the session's current expiry policy.
func (s *Session) Expiry() Expiry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.expiry
}

// IsModified reports whether data or expiry changed since the session was
// created or hydrated.
func (s *Session) IsModified() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.modified
}

// IsEmpty reports whether the session holds no data. Empty sessions are
// never persisted; the middleware treats them as deleted.
func (s *Session) IsEmpty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data) == 0
}

// Loaded reports whether the session was hydrated from the store, meaning
// the request carried a valid cookie referencing a live record.
func (s *Session) Loaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loaded
}

// MarkedForDeletion reports whether Delete or Flush was called.
func (s *Session) MarkedForDeletion() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deletion == deletionDelete
}

// CycledFrom returns the ID scheduled for deletion by CycleID, if any.
func (s *Session) CycledFrom() (ID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.deletion != deletionCycle {
		return ID{}, false
	}
	return s.oldID, true
}

// FinishCycle assigns a fresh ID and clears the cycle mark, keeping the
// session's data and modified flag intact. It is called by the middleware
// after the old ID has been removed from the store; the new record is then
// persisted through the create path.
func (s *Session) FinishCycle() (ID, error) {
	id, err := NewID()
	if err != nil {
		return ID{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.id = id
	s.oldID = ID{}
	s.deletion = deletionNone
	s.modified = true
	s.loaded = false
	return id, nil
}

// Snapshot materializes the session into a record with the expiry resolved
// against now. Sliding policies are recomputed here, which is what makes
// them slide on every save.
func (s *Session) Snapshot(now time.Time) *Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := &Record{ID: s.id, Data: s.data}
	if at, ok := s.expiry.Resolve(now); ok {
		rec.ExpiresAt = at
	}
	return rec.Clone()
}
