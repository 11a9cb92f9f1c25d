// Package domain defines the core domain models for sesskeep.
//
// Domain models are plain values without any IO dependencies: the stored
// SessionRecord, the in-memory State of an active session, id rules and
// the error taxonomy shared by every layer.
package domain

import (
	"crypto/rand"
	"strings"
	"time"
	"unicode"

	"github.com/oklog/ulid/v2"
)

// Session id constraints.
const (
	// MaxSessionIDLength matches the VARCHAR(255) primary key used by
	// networked SQL backends.
	MaxSessionIDLength = 255

	// SessionIDPrefix is the prefix for generated session ids.
	SessionIDPrefix = "sks-"
)

// SessionRecord is one persisted session row.
type SessionRecord struct {
	// ID is the opaque session identifier (primary key).
	ID string `json:"id"`

	// Ciphertext is the sealed, serialized session payload.
	Ciphertext string `json:"data"`

	// LastActivity is the Unix timestamp (seconds) of the last write.
	LastActivity int64 `json:"last_activity"`

	// CreatedAt and UpdatedAt are audit timestamps.
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ExpiredAt reports whether the record was last written before cutoff.
func (r *SessionRecord) ExpiredAt(cutoff time.Time) bool {
	return r.LastActivity < CutoffSeconds(cutoff)
}

// CutoffSeconds converts an expiry cutoff into the whole-second bound
// compared against last_activity. A fractional cutoff rounds up, so
// last_activity < CutoffSeconds(c) holds exactly when the activity second
// lies before c.
func CutoffSeconds(cutoff time.Time) int64 {
	s := cutoff.Unix()
	if cutoff.Nanosecond() > 0 {
		s++
	}
	return s
}

// GenerateSessionID generates a new session id using ULID.
// Format: sks-{ulid_lowercase}, 30 characters total.
func GenerateSessionID() (string, error) {
	entropy := ulid.Monotonic(rand.Reader, 0)
	id, err := ulid.New(ulid.Timestamp(time.Now()), entropy)
	if err != nil {
		return "", ErrInvalidArgument.WithDetails("generate session id").WithCause(err)
	}
	return SessionIDPrefix + strings.ToLower(id.String()), nil
}

// ValidateSessionID checks that id can be used as a primary key.
// Host-issued ids need not carry SessionIDPrefix.
func ValidateSessionID(id string) error {
	if id == "" {
		return ErrInvalidArgument.WithDetails("session id is empty")
	}
	if len(id) > MaxSessionIDLength {
		return ErrInvalidArgument.WithDetailsf("session id exceeds %d bytes", MaxSessionIDLength)
	}
	for _, r := range id {
		if r > unicode.MaxASCII || !unicode.IsPrint(r) {
			return ErrInvalidArgument.WithDetails("session id contains non-printable characters")
		}
	}
	return nil
}

// IsGeneratedSessionID reports whether id has the format produced by
// GenerateSessionID.
func IsGeneratedSessionID(id string) bool {
	id = strings.ToLower(id)
	if !strings.HasPrefix(id, SessionIDPrefix) {
		return false
	}
	if len(id) != len(SessionIDPrefix)+ulid.EncodedSize {
		return false
	}
	_, err := ulid.ParseStrict(strings.ToUpper(id[len(SessionIDPrefix):]))
	return err == nil
}
