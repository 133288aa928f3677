package cookie

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"
)

const (
	// MaxCookieSize is the maximum serialized size of a cookie (4KB).
	MaxCookieSize = 4096
	// minSecretLength is the minimum HMAC secret length.
	minSecretLength = 32
)

// Manager handles HTTP cookie operations with HMAC signing and key rotation
// support. The first secret signs new cookies; all secrets are tried during
// verification so keys can be rotated without invalidating live sessions.
type Manager struct {
	secrets  []string
	defaults Options
	maxSize  int
}

// New creates a cookie manager with the given secrets and default options.
func New(secrets []string, opts ...Option) (*Manager, error) {
	secrets = slices.DeleteFunc(slices.Clone(secrets), func(s string) bool { return s == "" })
	if len(secrets) == 0 {
		return nil, ErrNoSecret
	}

	for i, s := range secrets {
		if len(s) < minSecretLength {
			return nil, fmt.Errorf("%w: secret %d has %d chars, need at least %d",
				ErrSecretTooShort, i, len(s), minSecretLength)
		}
	}

	defaults := Options{
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	}
	defaults = applyOptions(defaults, opts)

	return &Manager{
		secrets:  secrets,
		defaults: defaults,
		maxSize:  MaxCookieSize,
	}, nil
}

// Set stores a plain cookie value.
func (m *Manager) Set(w http.ResponseWriter, name, value string, opts ...Option) error {
	options := applyOptions(m.defaults, opts)

	cookie := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     options.Path,
		Domain:   options.Domain,
		MaxAge:   options.MaxAge,
		Secure:   options.Secure,
		HttpOnly: options.HttpOnly,
		SameSite: options.SameSite,
	}

	if header := cookie.String(); len(header) > m.maxSize {
		return ErrCookieTooLarge{Name: name, Size: len(header), Max: m.maxSize}
	}

	http.SetCookie(w, cookie)
	return nil
}

// Get retrieves a plain cookie value.
func (m *Manager) Get(r *http.Request, name string) (string, error) {
	cookie, err := r.Cookie(name)
	if err != nil {
		if errors.Is(err, http.ErrNoCookie) {
			return "", ErrCookieNotFound
		}
		return "", err
	}
	return cookie.Value, nil
}

// Delete removes a cookie by emitting an expired replacement.
func (m *Manager) Delete(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     m.defaults.Path,
		Domain:   m.defaults.Domain,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: m.defaults.HttpOnly,
		SameSite: m.defaults.SameSite,
		Secure:   m.defaults.Secure,
	})
}

// SetSigned stores a cookie whose value carries an HMAC signature.
func (m *Manager) SetSigned(w http.ResponseWriter, name, value string, opts ...Option) error {
	return m.Set(w, name, m.sign(value), opts...)
}

// GetSigned retrieves and verifies a signed cookie value.
func (m *Manager) GetSigned(r *http.Request, name string) (string, error) {
	signed, err := m.Get(r, name)
	if err != nil {
		return "", err
	}
	return m.verify(signed)
}

// Sign returns the tamper-evident wire form of value, suitable for use as a
// cookie value built by other packages.
func (m *Manager) Sign(value string) string {
	return m.sign(value)
}

// Verify validates a wire form produced by Sign and returns the original
// value.
func (m *Manager) Verify(signed string) (string, error) {
	return m.verify(signed)
}

// sign appends an HMAC-SHA256 signature to the base64-encoded value.
func (m *Manager) sign(value string) string {
	mac := hmac.New(sha256.New, []byte(m.secrets[0]))
	mac.Write([]byte(value))
	signature := base64.URLEncoding.EncodeToString(mac.Sum(nil))
	return base64.URLEncoding.EncodeToString([]byte(value)) + "|" + signature
}

// verify checks the signature against every configured secret so rotated
// keys keep validating cookies signed before the rotation.
func (m *Manager) verify(signed string) (string, error) {
	encodedValue, signature, found := strings.Cut(signed, "|")
	if !found {
		return "", ErrInvalidFormat
	}

	value, err := base64.URLEncoding.DecodeString(encodedValue)
	if err != nil {
		return "", ErrInvalidFormat
	}

	validIndex := slices.IndexFunc(m.secrets, func(secret string) bool {
		mac := hmac.New(sha256.New, []byte(secret))
		mac.Write(value)
		expectedSig := base64.URLEncoding.EncodeToString(mac.Sum(nil))
		return subtle.ConstantTimeCompare([]byte(signature), []byte(expectedSig)) == 1
	})
	if validIndex < 0 {
		return "", ErrInvalidSignature
	}

	return string(value), nil
}
