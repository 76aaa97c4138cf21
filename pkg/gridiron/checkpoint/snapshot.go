package checkpoint

import (
	"encoding/json"
	"time"
)

// Version is the current snapshot format version.
// Increment when making breaking changes to the snapshot structure.
const Version = 1

// Snapshot is the persisted form of a session's state.
type Snapshot struct {
	// Metadata
	Version   int       `json:"version"`
	SessionID string    `json:"session_id"`
	Revision  int       `json:"revision"`
	Timestamp time.Time `json:"timestamp"`

	// State is the serialized session, opaque to the store.
	State json.RawMessage `json:"state"`

	// MessageCount mirrors the message count inside State for
	// inspection without deserializing.
	MessageCount int `json:"message_count"`
}

// New creates a snapshot for a session.
// State must already be JSON-serialized.
func New(sessionID string, revision int, state []byte, messageCount int) *Snapshot {
	return &Snapshot{
		Version:      Version,
		SessionID:    sessionID,
		Revision:     revision,
		Timestamp:    time.Now().UTC(),
		State:        state,
		MessageCount: messageCount,
	}
}

// Marshal serializes a snapshot to JSON.
func (s *Snapshot) Marshal() ([]byte, error) {
	return json.Marshal(s)
}

// Unmarshal deserializes a snapshot from JSON.
func Unmarshal(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return &s, nil
}
