package gridiron

import (
	"errors"
	"fmt"
)

// Sentinel errors for turn execution.
var (
	// ErrTurnAborted indicates the iteration guard tripped before the
	// model produced a final answer.
	ErrTurnAborted = errors.New("turn aborted")

	// ErrSessionBusy indicates a turn is already in flight for the session.
	ErrSessionBusy = errors.New("session busy")

	// ErrNilGateway indicates the runner was built without a model gateway.
	ErrNilGateway = errors.New("model gateway cannot be nil")

	// ErrNilRegistry indicates the runner was built without a tool registry.
	ErrNilRegistry = errors.New("tool registry cannot be nil")

	// ErrSerializeState indicates session state serialization failed.
	ErrSerializeState = errors.New("failed to serialize session state")

	// ErrDeserializeState indicates session state deserialization failed.
	ErrDeserializeState = errors.New("failed to deserialize session state")

	// ErrSnapshotVersionMismatch indicates a persisted snapshot uses an
	// incompatible format version.
	ErrSnapshotVersionMismatch = errors.New("snapshot version mismatch")
)

// TurnAbortedError provides context when the iteration guard trips.
type TurnAbortedError struct {
	// Max is the configured model invocation limit.
	Max int
	// LastState is the state that would have executed next.
	LastState TurnState
}

// Error implements the error interface.
func (e *TurnAbortedError) Error() string {
	return fmt.Sprintf("exceeded maximum model invocations (%d) in state %s", e.Max, e.LastState)
}

// Unwrap returns ErrTurnAborted for errors.Is support.
func (e *TurnAbortedError) Unwrap() error {
	return ErrTurnAborted
}

// CancellationError captures the point at which a turn was cancelled.
// State already committed up to the last clean boundary remains persisted.
type CancellationError struct {
	// State is the state that was about to execute.
	State TurnState
	// Cause is the underlying cancellation cause
	// (context.Canceled or context.DeadlineExceeded).
	Cause error
}

// Error implements the error interface.
func (e *CancellationError) Error() string {
	return fmt.Sprintf("cancelled before state %s: %v", e.State, e.Cause)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *CancellationError) Unwrap() error {
	return e.Cause
}

// StateError wraps an error with the graph state it occurred in.
type StateError struct {
	// State is the graph state that failed.
	State TurnState
	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *StateError) Error() string {
	return fmt.Sprintf("state %s: %v", e.State, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *StateError) Unwrap() error {
	return e.Err
}
