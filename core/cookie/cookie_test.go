package cookie_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/session/core/cookie"
)

const (
	testSecret    = "0123456789abcdef0123456789abcdef"
	rotatedSecret = "fedcba9876543210fedcba9876543210"
)

func newManager(t *testing.T, secrets ...string) *cookie.Manager {
	t.Helper()
	if len(secrets) == 0 {
		secrets = []string{testSecret}
	}
	m, err := cookie.New(secrets)
	require.NoError(t, err)
	return m
}

func requestWithCookie(name, value string) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: name, Value: value})
	return r
}

func TestNew_SecretValidation(t *testing.T) {
	t.Parallel()

	_, err := cookie.New(nil)
	assert.ErrorIs(t, err, cookie.ErrNoSecret)

	_, err = cookie.New([]string{""})
	assert.ErrorIs(t, err, cookie.ErrNoSecret)

	_, err = cookie.New([]string{"too-short"})
	assert.ErrorIs(t, err, cookie.ErrSecretTooShort)
}

func TestManager_SetGet(t *testing.T) {
	t.Parallel()

	m := newManager(t)

	rr := httptest.NewRecorder()
	require.NoError(t, m.Set(rr, "theme", "dark"))

	cookies := rr.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "dark", cookies[0].Value)
	assert.Equal(t, "/", cookies[0].Path)
	assert.True(t, cookies[0].HttpOnly)
	assert.Equal(t, http.SameSiteStrictMode, cookies[0].SameSite)

	got, err := m.Get(requestWithCookie("theme", "dark"), "theme")
	require.NoError(t, err)
	assert.Equal(t, "dark", got)
}

func TestManager_GetMissing(t *testing.T) {
	t.Parallel()

	m := newManager(t)

	_, err := m.Get(httptest.NewRequest(http.MethodGet, "/", nil), "absent")
	assert.ErrorIs(t, err, cookie.ErrCookieNotFound)
}

func TestManager_SetOptionsOverrideDefaults(t *testing.T) {
	t.Parallel()

	m := newManager(t)

	rr := httptest.NewRecorder()
	require.NoError(t, m.Set(rr, "k", "v",
		cookie.WithPath("/admin"),
		cookie.WithMaxAge(600),
		cookie.WithSecure(true),
		cookie.WithSameSite(http.SameSiteLaxMode),
	))

	c := rr.Result().Cookies()[0]
	assert.Equal(t, "/admin", c.Path)
	assert.Equal(t, 600, c.MaxAge)
	assert.True(t, c.Secure)
	assert.Equal(t, http.SameSiteLaxMode, c.SameSite)
}

func TestManager_SetRejectsOversizedCookie(t *testing.T) {
	t.Parallel()

	m := newManager(t)

	rr := httptest.NewRecorder()
	err := m.Set(rr, "big", strings.Repeat("x", cookie.MaxCookieSize))

	var tooLarge cookie.ErrCookieTooLarge
	require.ErrorAs(t, err, &tooLarge)
	assert.Equal(t, "big", tooLarge.Name)
	assert.Empty(t, rr.Result().Cookies())
}

func TestManager_Delete(t *testing.T) {
	t.Parallel()

	m := newManager(t)

	rr := httptest.NewRecorder()
	m.Delete(rr, "theme")

	cookies := rr.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Empty(t, cookies[0].Value)
	assert.Negative(t, cookies[0].MaxAge)
}

func TestManager_SignedRoundTrip(t *testing.T) {
	t.Parallel()

	m := newManager(t)

	rr := httptest.NewRecorder()
	require.NoError(t, m.SetSigned(rr, "sid", "abc123"))

	signed := rr.Result().Cookies()[0].Value
	assert.NotEqual(t, "abc123", signed)

	got, err := m.GetSigned(requestWithCookie("sid", signed), "sid")
	require.NoError(t, err)
	assert.Equal(t, "abc123", got)
}

func TestManager_VerifyRejectsTampering(t *testing.T) {
	t.Parallel()

	m := newManager(t)
	signed := m.Sign("abc123")

	t.Run("flipped signature", func(t *testing.T) {
		t.Parallel()
		_, err := m.Verify(signed + "x")
		assert.ErrorIs(t, err, cookie.ErrInvalidSignature)
	})

	t.Run("missing separator", func(t *testing.T) {
		t.Parallel()
		_, err := m.Verify("no-separator-here")
		assert.ErrorIs(t, err, cookie.ErrInvalidFormat)
	})

	t.Run("bad base64 payload", func(t *testing.T) {
		t.Parallel()
		_, err := m.Verify("!!!|signature")
		assert.ErrorIs(t, err, cookie.ErrInvalidFormat)
	})

	t.Run("swapped payload", func(t *testing.T) {
		t.Parallel()
		other := m.Sign("evil")
		otherPayload, _, _ := strings.Cut(other, "|")
		_, sig, _ := strings.Cut(signed, "|")
		_, err := m.Verify(otherPayload + "|" + sig)
		assert.ErrorIs(t, err, cookie.ErrInvalidSignature)
	})
}

func TestManager_KeyRotation(t *testing.T) {
	t.Parallel()

	oldManager := newManager(t, testSecret)
	signed := oldManager.Sign("abc123")

	// After rotation the new secret signs, but the old one still verifies.
	rotated := newManager(t, rotatedSecret, testSecret)

	got, err := rotated.Verify(signed)
	require.NoError(t, err)
	assert.Equal(t, "abc123", got)

	// A manager that dropped the old secret rejects the cookie.
	fresh := newManager(t, rotatedSecret)
	_, err = fresh.Verify(signed)
	assert.ErrorIs(t, err, cookie.ErrInvalidSignature)
}
