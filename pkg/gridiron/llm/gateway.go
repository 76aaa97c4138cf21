package llm

import (
	"context"
	"errors"
)

// ErrUnavailable indicates a transport or provider fault.
// The core never retries; the error propagates to the caller and the
// failing step is not checkpointed.
var ErrUnavailable = errors.New("model unavailable")

// Gateway sends a conversation to a language model.
//
// Invoke returns either a final assistant Message or an assistant Message
// carrying one or more tool calls. Implementations wrap transport faults
// with ErrUnavailable.
type Gateway interface {
	Invoke(ctx context.Context, messages []Message, tools []ToolSchema) (Message, error)
}

// GatewayFunc adapts a function to the Gateway interface.
type GatewayFunc func(ctx context.Context, messages []Message, tools []ToolSchema) (Message, error)

// Invoke implements Gateway.
func (f GatewayFunc) Invoke(ctx context.Context, messages []Message, tools []ToolSchema) (Message, error) {
	return f(ctx, messages, tools)
}
