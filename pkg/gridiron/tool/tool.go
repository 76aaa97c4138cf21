// Package tool provides the registry of capabilities the model may invoke.
//
// Each tool is registered with a name, a description, and a JSON schema for
// its arguments. Arguments are validated against the schema before the tool
// function runs.
package tool

import (
	"context"
	"encoding/json"
	"errors"
)

// Sentinel errors for tool resolution and validation.
var (
	// ErrUnknown indicates the requested tool is not registered.
	ErrUnknown = errors.New("unknown tool")

	// ErrInvalidArguments indicates the arguments failed schema validation.
	ErrInvalidArguments = errors.New("invalid tool arguments")

	// ErrDuplicate indicates a tool name was registered twice.
	ErrDuplicate = errors.New("duplicate tool")
)

// Func is the executable capability behind a tool.
// The returned string is the tool output shown to the model.
// A non-nil error is folded into an error-carrying tool result rather
// than aborting the turn.
type Func func(ctx context.Context, args json.RawMessage) (string, error)

// Declaration describes a registered tool.
// Declarations are immutable once registered.
type Declaration struct {
	Name        string
	Description string
	// Schema is the JSON schema the arguments must satisfy.
	Schema json.RawMessage
	// Run is the executable capability.
	Run Func
}
