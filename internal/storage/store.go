package storage

import (
	"context"
	"errors"
)

// ErrSessionNotFound is returned when no state exists for a (user, session) pair.
var ErrSessionNotFound = errors.New("session not found")

// Store persists per-(user, session) artifact state. Snapshots returned by
// Get are copies; mutating them does not affect the stored state.
type Store interface {
	// Create installs the given state for the session, replacing any
	// existing state. A nil state creates an empty session.
	Create(ctx context.Context, userID, sessionID string, state map[string]any) error
	// Get returns a snapshot of the session state, or ErrSessionNotFound.
	Get(ctx context.Context, userID, sessionID string) (map[string]any, error)
	// Merge writes the update keys into the existing state, overwriting
	// duplicates. Returns ErrSessionNotFound when the session is absent.
	Merge(ctx context.Context, userID, sessionID string, update map[string]any) error
	// Delete removes the session entirely.
	Delete(ctx context.Context, userID, sessionID string) error
}

func sessionKey(userID, sessionID string) string {
	return userID + ":" + sessionID
}
