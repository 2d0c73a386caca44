package session

import (
	"context"
	"errors"
)

// ErrSessionNotFound is returned for unknown or expired session identifiers.
var ErrSessionNotFound = errors.New("session not found")

// Store holds booking sessions keyed by identifier. Updates for the same
// identifier are serialized; distinct identifiers proceed independently.
type Store interface {
	Create(ctx context.Context) (*Session, error)
	Get(ctx context.Context, id string) (*Session, error)

	// Update applies mutate to the stored session under the per-key lock and
	// persists the result. If mutate returns an error the session is left
	// unchanged and the error is passed through.
	Update(ctx context.Context, id string, mutate func(*Session) error) (*Session, error)

	// Delete removes a session. Deleting an absent session is a no-op.
	Delete(ctx context.Context, id string) error
}
