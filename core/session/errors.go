package session

import "errors"

var (
	// ErrMalformedID is returned when a cookie value does not decode to a
	// valid session ID. The middleware absorbs it locally by starting a
	// fresh session; it is never surfaced to handlers.
	ErrMalformedID = errors.New("malformed session id")

	// ErrIDGeneration is returned when the secure random source fails.
	ErrIDGeneration = errors.New("failed to generate session id")

	// ErrEncode is returned when a session value cannot be serialized.
	ErrEncode = errors.New("failed to encode session value")

	// ErrDecode is returned when a stored session value cannot be
	// deserialized into the requested type.
	ErrDecode = errors.New("failed to decode session value")

	// ErrCache marks a failure on the cache side of a CachingStore.
	ErrCache = errors.New("session cache error")

	// ErrStore marks a failure on the durable side of a CachingStore.
	ErrStore = errors.New("session store error")

	// ErrIDCollision is returned by Create implementations when a unique ID
	// could not be established within the retry budget.
	ErrIDCollision = errors.New("session id collision retries exhausted")

	// ErrNoDeleteExpired is returned when DeleteExpired is requested from a
	// store that does not implement the capability.
	ErrNoDeleteExpired = errors.New("store does not support expired deletion")
)
