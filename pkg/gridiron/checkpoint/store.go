// Package checkpoint provides persistent session state storage so
// conversations can resume across turns and process restarts.
package checkpoint

import (
	"errors"
	"time"
)

// Store persists session snapshots keyed by session id.
// Implementations must be safe for concurrent use and must overwrite
// atomically: a reader never observes a partially written snapshot.
type Store interface {
	// Save stores a snapshot for a session, replacing any prior snapshot.
	Save(sessionID string, data []byte) error

	// Load retrieves the snapshot for a session.
	// Returns ErrNotFound if the session has never been saved.
	Load(sessionID string) ([]byte, error)

	// List returns metadata for all stored sessions, oldest first.
	List() ([]Info, error)

	// Delete removes a session's snapshot.
	// Returns nil if the session doesn't exist.
	Delete(sessionID string) error

	// Close releases any resources (connections, files).
	Close() error
}

// Info provides session metadata without loading the full snapshot.
type Info struct {
	SessionID string
	Revision  int
	UpdatedAt time.Time
	Size      int64
}

// Sentinel errors for store operations.
var (
	// ErrNotFound indicates no snapshot exists for the session.
	ErrNotFound = errors.New("session not found")

	// ErrStoreClosed indicates the store has been closed.
	ErrStoreClosed = errors.New("checkpoint store closed")
)
