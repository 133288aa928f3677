package middleware

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/dmitrymomot/session/core/cookie"
	"github.com/dmitrymomot/session/core/session"
)

type sessionKey struct{}

// Config configures the session middleware.
type Config struct {
	// Skip defines a function to skip middleware execution for specific requests
	Skip func(r *http.Request) bool
	// CookieName is the name of the session cookie (default: "id")
	CookieName string
	// Expiry is the initial expiry policy for sessions issued by the
	// middleware; handlers may override it per session with SetExpiry
	// (default: expire when the browser session ends)
	Expiry session.Expiry
	// Path attribute of the session cookie (default: "/")
	Path string
	// Domain attribute of the session cookie (default: host-only)
	Domain string
	// Secure attribute of the session cookie
	Secure bool
	// HTTPOnly attribute of the session cookie
	HTTPOnly bool
	// SameSite attribute of the session cookie (default: http.SameSiteStrictMode)
	SameSite http.SameSite
	// Cookies enables HMAC-signed cookie values when set.
	// Unsigned session IDs are exchanged when nil.
	Cookies *cookie.Manager
	// Logger for structured logging (default: slog with io.Discard)
	Logger *slog.Logger
}

// DefaultConfig returns the middleware configuration used by Session.
// Start from it when overriding individual fields, since the zero Config
// disables HTTPOnly.
func DefaultConfig() Config {
	return Config{
		CookieName: "id",
		Path:       "/",
		HTTPOnly:   true,
		SameSite:   http.SameSiteStrictMode,
	}
}

// GetSession retrieves the session handle from the request context.
// It returns false when the request never passed through the middleware.
func GetSession(ctx context.Context) (*session.Session, bool) {
	sess, ok := ctx.Value(sessionKey{}).(*session.Session)
	return sess, ok
}

// MustGetSession retrieves the session handle from the request context and
// panics when absent. Use it in handlers that are always mounted behind the
// middleware.
func MustGetSession(ctx context.Context) *session.Session {
	sess, ok := GetSession(ctx)
	if !ok {
		panic("middleware: no session in context")
	}
	return sess
}

// Session creates middleware that exchanges a session cookie for a server-side
// session handle with the default configuration.
//
// The middleware:
//   - Parses the session cookie (malformed values are treated as absent)
//   - Loads the record from the store (a miss or expired record yields a fresh session)
//   - Stores the handle in the request context
//   - Processes the request
//   - Reconciles handle state with the store and the cookie before the first
//     byte of the response is written
//
// Usage:
//
//	store := memstore.New()
//	mux := http.NewServeMux()
//	mux.HandleFunc("/profile", handleProfile)
//	http.ListenAndServe(":8080", middleware.Session(store)(mux))
//
//	func handleProfile(w http.ResponseWriter, r *http.Request) {
//		sess := middleware.MustGetSession(r.Context())
//		if err := sess.Set("visited", time.Now()); err != nil {
//			http.Error(w, "session error", http.StatusInternalServerError)
//			return
//		}
//		w.WriteHeader(http.StatusNoContent)
//	}
func Session(store session.Store) func(http.Handler) http.Handler {
	return SessionWithConfig(store, DefaultConfig())
}

// SessionWithConfig creates a session middleware with custom configuration.
//
// Advanced usage:
//
//	// Sliding two-week sessions with signed cookies
//	cookies, _ := cookie.New([]string{secret})
//	cfg := middleware.DefaultConfig()
//	cfg.Expiry = session.ExpireOnInactivity(14 * 24 * time.Hour)
//	cfg.Secure = true
//	cfg.Cookies = cookies
//	handler := middleware.SessionWithConfig(store, cfg)(mux)
//
//	// Skip sessions for health checks
//	cfg := middleware.DefaultConfig()
//	cfg.Skip = func(r *http.Request) bool { return r.URL.Path == "/health" }
func SessionWithConfig(store session.Store, cfg Config) func(http.Handler) http.Handler {
	if cfg.CookieName == "" {
		cfg.CookieName = "id"
	}
	if cfg.Path == "" {
		cfg.Path = "/"
	}
	if cfg.SameSite == 0 {
		cfg.SameSite = http.SameSiteStrictMode
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	m := &sessionMiddleware{store: store, cfg: cfg}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cfg.Skip != nil && cfg.Skip(r) {
				next.ServeHTTP(w, r)
				return
			}
			m.serve(w, r, next)
		})
	}
}

type sessionMiddleware struct {
	store session.Store
	cfg   Config
}

func (m *sessionMiddleware) serve(w http.ResponseWriter, r *http.Request, next http.Handler) {
	ctx := r.Context()

	sess, hadCookie, err := m.load(r)
	if err != nil {
		m.cfg.Logger.ErrorContext(ctx, "failed to load session", "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	ctx = context.WithValue(ctx, sessionKey{}, sess)
	r = r.WithContext(ctx)

	sw := &commitWriter{ResponseWriter: w}
	sw.commit = func() error {
		err := m.reconcile(ctx, w, sess, hadCookie)
		if err != nil {
			m.cfg.Logger.ErrorContext(ctx, "failed to persist session", "error", err)
		}
		return err
	}

	next.ServeHTTP(sw, r)

	// Handlers that never write still need the session persisted.
	if !sw.committed {
		sw.committed = true
		if err := sw.commit(); err != nil {
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
	}
}

// load resolves the inbound cookie to a session handle. The second return
// value reports whether the request carried a well-formed session cookie, which
// decides whether a removal cookie must be sent on deletion.
func (m *sessionMiddleware) load(r *http.Request) (*session.Session, bool, error) {
	ctx := r.Context()

	value, ok := m.cookieValue(r)
	if ok {
		id, err := session.ParseID(value)
		if err != nil {
			m.cfg.Logger.WarnContext(ctx, "malformed session cookie", "error", err)
			ok = false
		} else {
			rec, err := m.store.Load(ctx, id)
			if err != nil {
				return nil, false, err
			}
			if rec != nil {
				return session.FromRecord(rec, m.cfg.Expiry), true, nil
			}
		}
	}

	sess, err := session.New(m.cfg.Expiry)
	if err != nil {
		return nil, false, err
	}
	return sess, ok, nil
}

// cookieValue extracts and, when signing is enabled, verifies the session
// cookie. Invalid signatures are treated the same as a missing cookie.
func (m *sessionMiddleware) cookieValue(r *http.Request) (string, bool) {
	c, err := r.Cookie(m.cfg.CookieName)
	if err != nil || c.Value == "" {
		return "", false
	}
	if m.cfg.Cookies == nil {
		return c.Value, true
	}
	value, err := m.cfg.Cookies.Verify(c.Value)
	if err != nil {
		m.cfg.Logger.WarnContext(r.Context(), "invalid session cookie signature", "error", err)
		return "", false
	}
	return value, true
}

// reconcile runs exactly once per request, before the first response byte.
// Deletion wins over cycling, cycling over plain modification, and untouched
// sessions produce no store traffic and no Set-Cookie header.
func (m *sessionMiddleware) reconcile(ctx context.Context, w http.ResponseWriter, sess *session.Session, hadCookie bool) error {
	// A cancelled request must not leave half-applied state behind.
	if ctx.Err() != nil {
		return nil
	}

	if sess.MarkedForDeletion() || sess.IsEmpty() {
		if sess.Loaded() {
			if err := m.store.Delete(ctx, sess.ID()); err != nil {
				return err
			}
		}
		if hadCookie {
			http.SetCookie(w, m.removalCookie())
		}
		return nil
	}

	if oldID, ok := sess.CycledFrom(); ok {
		if err := m.store.Delete(ctx, oldID); err != nil {
			return err
		}
		if _, err := sess.FinishCycle(); err != nil {
			return err
		}
	}

	if !sess.IsModified() && sess.Loaded() {
		return nil
	}

	now := time.Now()
	rec := sess.Snapshot(now)
	if err := m.persist(ctx, sess, rec); err != nil {
		return err
	}
	// The record carries the authoritative ID: Create may have regenerated it
	// after a collision. The cookie deadline mirrors the expiry the snapshot
	// was resolved with, so SetExpiry changes reach the client too.
	http.SetCookie(w, m.sessionCookie(rec.ID, sess.Expiry(), now))
	return nil
}

// persist writes the record through the collision-aware Create path for
// sessions the store has never seen, and through plain Save otherwise.
func (m *sessionMiddleware) persist(ctx context.Context, sess *session.Session, rec *session.Record) error {
	if !sess.Loaded() {
		if creator, ok := m.store.(session.Creator); ok {
			return creator.Create(ctx, rec)
		}
	}
	return m.store.Save(ctx, rec)
}

func (m *sessionMiddleware) sessionCookie(id session.ID, expiry session.Expiry, now time.Time) *http.Cookie {
	value := id.String()
	if m.cfg.Cookies != nil {
		value = m.cfg.Cookies.Sign(value)
	}
	c := m.baseCookie()
	c.Value = value
	if maxAge, ok := expiry.MaxAge(now); ok {
		if maxAge == 0 {
			// net/http omits a zero MaxAge; -1 serializes as Max-Age=0.
			c.MaxAge = -1
		} else {
			c.MaxAge = maxAge
		}
	}
	return c
}

func (m *sessionMiddleware) removalCookie() *http.Cookie {
	c := m.baseCookie()
	c.MaxAge = -1
	c.Expires = time.Unix(0, 0)
	return c
}

func (m *sessionMiddleware) baseCookie() *http.Cookie {
	return &http.Cookie{
		Name:     m.cfg.CookieName,
		Path:     m.cfg.Path,
		Domain:   m.cfg.Domain,
		Secure:   m.cfg.Secure,
		HttpOnly: m.cfg.HTTPOnly,
		SameSite: m.cfg.SameSite,
	}
}

// commitWriter defers the response until the session has been reconciled, so
// the Set-Cookie header can still be attached. A failed commit replaces the
// handler's response with a 500 and swallows subsequent writes.
type commitWriter struct {
	http.ResponseWriter
	commit    func() error
	committed bool
	failed    bool
}

func (w *commitWriter) WriteHeader(statusCode int) {
	if !w.committed {
		w.committed = true
		if err := w.commit(); err != nil {
			w.failed = true
			http.Error(w.ResponseWriter, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
	}
	if w.failed {
		return
	}
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *commitWriter) Write(b []byte) (int, error) {
	if !w.committed {
		w.WriteHeader(http.StatusOK)
	}
	if w.failed {
		return len(b), nil
	}
	return w.ResponseWriter.Write(b)
}

func (w *commitWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Unwrap supports http.ResponseController.
func (w *commitWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
