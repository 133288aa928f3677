// Package middleware binds server-side sessions to HTTP requests through a
// browser cookie. It parses the inbound session cookie, loads the matching
// record from a store, exposes a session handle through the request context,
// and reconciles any changes back to the store and the cookie before the
// response is written.
//
// # Lifecycle
//
// On the way in, a well-formed cookie that resolves to a live record yields a
// loaded session; anything else (no cookie, malformed value, invalid
// signature, store miss, expired record) yields a fresh one. Malformed cookies
// never fail the request.
//
// On the way out, exactly one of four things happens, evaluated once before
// the first byte of the response:
//
//  1. The session was deleted, or its data is empty: the record is removed
//     from the store and an expired cookie is sent if the request carried one.
//  2. The ID was cycled: the old record is deleted, a new ID is generated, the
//     record is saved under it, and the cookie carries the new ID.
//  3. The session was modified: the record is saved and the cookie refreshed,
//     which also renews a sliding inactivity deadline.
//  4. Otherwise nothing is written: no store call, no Set-Cookie header.
//
// Store failures during reconciliation replace the handler's response with a
// 500. A request whose context was cancelled skips reconciliation entirely.
//
// # Usage
//
//	store := memstore.New()
//
//	mux := http.NewServeMux()
//	mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
//		sess := middleware.MustGetSession(r.Context())
//		sess.CycleID() // defend against session fixation
//		if err := sess.Set("user_id", userID); err != nil {
//			http.Error(w, "session error", http.StatusInternalServerError)
//			return
//		}
//		w.WriteHeader(http.StatusNoContent)
//	})
//
//	http.ListenAndServe(":8080", middleware.Session(store)(mux))
//
// Cookie attributes, expiry policy, signing, and logging are configured
// through SessionWithConfig; see Config for the available knobs.
package middleware
