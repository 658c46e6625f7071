// Package session persists one interview transcript per session handle with
// an absolute expiry that is reset on every write.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/abdulmunimjemal/ai-interviewer/internal/transcript"
	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when a handle was never issued, has expired or
	// was evicted. Callers treat it as "session ended".
	ErrNotFound = errors.New("session not found or expired")

	// ErrConflict is returned when an atomic update kept losing to
	// concurrent writers.
	ErrConflict = errors.New("session update conflict")

	errInvalidTTL = errors.New("ttl must be positive")
)

// UpdateFunc receives the current transcript and returns its replacement.
type UpdateFunc func(transcript.Transcript) (transcript.Transcript, error)

// Store is keyed, time-expiring storage of whole transcripts. There are no
// partial updates: an entry is always a complete transcript.
type Store interface {
	// Put overwrites the entry for handle and resets its expiry to ttl from now.
	Put(ctx context.Context, handle string, t transcript.Transcript, ttl time.Duration) error

	// Get loads the entry for handle or returns ErrNotFound.
	Get(ctx context.Context, handle string) (transcript.Transcript, error)

	// Update atomically loads the entry, applies fn and writes the result
	// back with a fresh expiry of the result's TTL. Concurrent updates on
	// the same handle never lose each other's changes.
	Update(ctx context.Context, handle string, fn UpdateFunc) (transcript.Transcript, error)

	// Ping reports whether the backing store is reachable.
	Ping(ctx context.Context) error

	// Close releases the underlying connection.
	Close() error
}

// NewHandle returns a fresh 128-bit random session handle.
func NewHandle() string {
	return uuid.NewString()
}
