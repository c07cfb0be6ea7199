package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a session ID has no stored session.
var ErrNotFound = errors.New("session not found")

// Store persists sessions. Implementations must be safe for concurrent
// use; the Manager additionally serializes per-session access, so a store
// never sees two concurrent writes for the same ID.
type Store interface {
	// Put inserts or replaces the whole session.
	Put(ctx context.Context, s *Session) error

	// Get loads a session with its full history.
	// Returns ErrNotFound for unknown IDs.
	Get(ctx context.Context, id uuid.UUID) (*Session, error)

	// Delete removes a session. Deleting a missing ID is not an error.
	Delete(ctx context.Context, id uuid.UUID) error

	// EvictIdle removes sessions not updated since cutoff and reports
	// how many were removed.
	EvictIdle(ctx context.Context, cutoff time.Time) (int, error)

	// Close releases backend resources.
	Close() error
}
