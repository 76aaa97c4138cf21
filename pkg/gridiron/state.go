package gridiron

import (
	"encoding/json"
	"fmt"

	"github.com/gridironlabs/gridiron/pkg/gridiron/checkpoint"
	"github.com/gridironlabs/gridiron/pkg/gridiron/llm"
)

// TurnState identifies a node of the execution graph.
type TurnState string

// The three states of the execution graph.
const (
	// StateAwaitingModel invokes the model gateway with the conversation.
	StateAwaitingModel TurnState = "awaiting_model"
	// StateAwaitingTools executes the tool calls the model requested.
	StateAwaitingTools TurnState = "awaiting_tools"
	// StateDone is terminal; the session is committed.
	StateDone TurnState = "done"
)

// Session is a persisted conversation identified by an opaque id.
// Messages are append-only; prior entries are never rewritten.
type Session struct {
	ID       string        `json:"id"`
	Messages []llm.Message `json:"messages"`
}

// NewSession creates an empty session.
func NewSession(id string) *Session {
	return &Session{ID: id}
}

// Append adds messages to the end of the conversation.
func (s *Session) Append(msgs ...llm.Message) {
	s.Messages = append(s.Messages, msgs...)
}

// Len returns the number of messages in the session.
func (s *Session) Len() int {
	return len(s.Messages)
}

// PendingToolCalls returns tool calls that have no matching tool result
// yet, in request order. The graph must answer each of these before the
// next model invocation.
func (s *Session) PendingToolCalls() []llm.ToolCall {
	answered := make(map[string]bool)
	for _, msg := range s.Messages {
		if msg.Role == llm.RoleTool && msg.ToolCallID != "" {
			answered[msg.ToolCallID] = true
		}
	}

	var pending []llm.ToolCall
	for _, msg := range s.Messages {
		if msg.Role != llm.RoleAssistant {
			continue
		}
		for _, call := range msg.ToolCalls {
			if !answered[call.ID] {
				pending = append(pending, call)
			}
		}
	}
	return pending
}

// Clone returns a deep copy of the session.
// Steps snapshot the session so callers can hold them past the turn.
func (s *Session) Clone() *Session {
	msgs := make([]llm.Message, len(s.Messages))
	copy(msgs, s.Messages)
	return &Session{ID: s.ID, Messages: msgs}
}

// marshalSnapshot serializes the session into a checkpoint snapshot.
func marshalSnapshot(s *Session, revision int) ([]byte, error) {
	state, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSerializeState, err)
	}
	return checkpoint.New(s.ID, revision, state, len(s.Messages)).Marshal()
}

// unmarshalSnapshot restores a session from persisted snapshot bytes.
func unmarshalSnapshot(data []byte) (*Session, int, error) {
	snap, err := checkpoint.Unmarshal(data)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrDeserializeState, err)
	}
	if snap.Version != checkpoint.Version {
		return nil, 0, fmt.Errorf("%w: got %d, want %d", ErrSnapshotVersionMismatch, snap.Version, checkpoint.Version)
	}

	var sess Session
	if err := json.Unmarshal(snap.State, &sess); err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrDeserializeState, err)
	}
	return &sess, snap.Revision, nil
}
