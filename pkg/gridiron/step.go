package gridiron

import (
	"sync"
	"time"

	"github.com/gridironlabs/gridiron/pkg/gridiron/llm"
)

// Step is a snapshot of the turn after one state execution.
// It is the unit emitted on the turn's step stream.
type Step struct {
	// Seq is the step's position within the turn, starting at 1.
	Seq int
	// State is the graph state that executed.
	State TurnState
	// Next is the state the graph transitioned to.
	Next TurnState
	// Appended holds the messages this step added to the session.
	Appended []llm.Message
	// MessageCount is the session's total message count after this step.
	MessageCount int
	// Duration is how long the state execution took.
	Duration time.Duration
}

// Turn is one in-flight execution of the graph for a single user message.
//
// Steps() yields each state transition lazily as it happens; the channel
// closes when the turn finishes, fails, or is cancelled. Err(), Final(),
// and Answer() are valid once the channel has closed.
type Turn struct {
	id        string
	sessionID string
	steps     chan Step

	mu    sync.Mutex
	err   error
	final *Session
}

// ID returns the unique identifier for this turn.
func (t *Turn) ID() string {
	return t.id
}

// SessionID returns the session this turn belongs to.
func (t *Turn) SessionID() string {
	return t.sessionID
}

// Steps returns the lazy stream of graph steps.
// The stream is not restartable; each turn produces a fresh one.
func (t *Turn) Steps() <-chan Step {
	return t.steps
}

// Err returns the terminal error, if any.
// Valid only after the Steps channel has closed.
func (t *Turn) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

// Final returns the session state at turn completion, or nil if the
// turn failed before reaching a final answer.
// Valid only after the Steps channel has closed.
func (t *Turn) Final() *Session {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.final
}

// Answer returns the final assistant message content, or the empty
// string if the turn did not complete.
func (t *Turn) Answer() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.final == nil || len(t.final.Messages) == 0 {
		return ""
	}
	last := t.final.Messages[len(t.final.Messages)-1]
	if last.Role != llm.RoleAssistant {
		return ""
	}
	return last.Content
}

// Drain consumes and discards all remaining steps, then returns Err().
// Useful for callers that only want the final answer.
func (t *Turn) Drain() error {
	for range t.steps {
	}
	return t.Err()
}

func (t *Turn) fail(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.err = err
}

func (t *Turn) finish(final *Session) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.final = final
}
