package session

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
)

// idEncodedLen is the length of the text form of an ID: 16 bytes in
// unpadded URL-safe base64.
const idEncodedLen = 22

// ID is an opaque 128-bit session identifier generated from a
// cryptographically secure random source. Its text form is a fixed-length,
// URL-safe, unpadded encoding suitable for cookie values.
type ID [16]byte

// NewID generates a fresh random ID.
func NewID() (ID, error) {
	var id ID
	if _, err := rand.Read(id[:]); err != nil {
		return ID{}, errors.Join(ErrIDGeneration, err)
	}
	return id, nil
}

// ParseID decodes the text form produced by String. It fails with
// ErrMalformedID for any input that does not decode to exactly 16 bytes.
func ParseID(s string) (ID, error) {
	if len(s) != idEncodedLen {
		return ID{}, fmt.Errorf("%w: expected %d characters, got %d", ErrMalformedID, idEncodedLen, len(s))
	}

	var id ID
	n, err := base64.RawURLEncoding.Decode(id[:], []byte(s))
	if err != nil {
		return ID{}, fmt.Errorf("%w: %v", ErrMalformedID, err)
	}
	if n != len(id) {
		return ID{}, fmt.Errorf("%w: decoded %d bytes, expected %d", ErrMalformedID, n, len(id))
	}

	return id, nil
}

// String returns the 22-character URL-safe text encoding of the ID.
func (id ID) String() string {
	return base64.RawURLEncoding.EncodeToString(id[:])
}

// IsZero reports whether the ID is the all-zero value, which is never
// produced by NewID.
func (id ID) IsZero() bool {
	return id == ID{}
}

// MarshalText implements encoding.TextMarshaler.
func (id ID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (id *ID) UnmarshalText(text []byte) error {
	parsed, err := ParseID(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}
