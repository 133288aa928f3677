package session

import "time"

type expiryKind int

const (
	expiryOnSessionEnd expiryKind = iota
	expiryOnInactivity
	expiryAtDateTime
)

// Expiry describes when a session becomes inactive.
//
// The zero value expires on session end: the cookie carries no Max-Age and
// the record has no stored expiry, so the session lives until it is deleted
// explicitly or removed by backend-side cleanup.
type Expiry struct {
	kind     expiryKind
	duration time.Duration
	at       time.Time
}

// ExpireOnSessionEnd returns an expiry tied to the browser session.
func ExpireOnSessionEnd() Expiry {
	return Expiry{kind: expiryOnSessionEnd}
}

// ExpireOnInactivity returns a sliding expiry: the absolute expiration is
// recomputed to now+d every time the session is saved.
func ExpireOnInactivity(d time.Duration) Expiry {
	return Expiry{kind: expiryOnInactivity, duration: d}
}

// ExpireAt returns a fixed absolute expiry. Application code may set this to
// extend or shorten a session.
func ExpireAt(t time.Time) Expiry {
	return Expiry{kind: expiryAtDateTime, at: t}
}

// Resolve materializes the expiry against the given clock. The second return
// value is false when the session has no absolute expiration.
func (e Expiry) Resolve(now time.Time) (time.Time, bool) {
	switch e.kind {
	case expiryOnInactivity:
		return now.Add(e.duration), true
	case expiryAtDateTime:
		return e.at, true
	default:
		return time.Time{}, false
	}
}

// MaxAge returns the cookie Max-Age in seconds for this expiry, clamped at
// zero when the resolved expiration is already in the past. The second
// return value is false when Max-Age should be omitted entirely. Sub-second
// remainders round up so a live session never collapses to zero.
func (e Expiry) MaxAge(now time.Time) (int, bool) {
	at, ok := e.Resolve(now)
	if !ok {
		return 0, false
	}
	remaining := at.Sub(now)
	if remaining <= 0 {
		return 0, true
	}
	return int((remaining + time.Second - 1) / time.Second), true
}
