// Package session provides cookie-backed HTTP session management with
// pluggable storage backends.
//
// A session associates an opaque 128-bit identifier, carried in a client
// cookie, with a server-side key/value bag. The package defines the core
// types (ID, Expiry, Record), the live Session handle used inside request
// handlers, the Store contract that storage backends implement, and a
// read-through/write-through CachingStore composition.
//
// # Handle lifecycle
//
// The middleware (see the middleware package) constructs one Session per
// request, either hydrated from a store record or freshly created, and
// reconciles it on the response path: deleted sessions are removed and their
// cookie revoked, cycled sessions get a fresh identifier, modified sessions
// are saved with a newly resolved expiry, and untouched sessions cost
// nothing. A session whose data is empty is never persisted.
//
// # Concurrency
//
// Handle state is guarded by a mutex held only for the duration of a single
// key/value operation. Two concurrent requests holding handles for the same
// session ID each work on an independent snapshot; the package does not
// serialize them. Derived values (counters and the like) must be updated
// through the compare-and-swap primitive in a retry loop:
//
//	for {
//		var n int
//		found, err := sess.Get("count", &n)
//		if err != nil {
//			return err
//		}
//		var expected any
//		if found {
//			expected = n
//		}
//		ok, err := sess.ReplaceIfEqual("count", expected, n+1)
//		if err != nil {
//			return err
//		}
//		if ok {
//			break
//		}
//	}
//
// # Stores
//
// Backends implement Store and optionally Creator (explicit create with
// bounded ID-collision retry) and ExpiredDeleter (bulk sweep for backends
// without native TTL; run it via ContinuouslyDeleteExpired). Ready-made
// implementations live under store/: memstore, lrustore, redisstore,
// pgstore, mongostore and dynamostore.
package session
