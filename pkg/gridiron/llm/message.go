// Package llm defines the conversation model and the gateway boundary
// to language model providers.
package llm

import "encoding/json"

// Role identifies the message sender.
type Role string

// Standard message roles.
const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message is one turn of a conversation.
// Messages are immutable once appended to a session.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content,omitempty"`

	// ToolCalls is set on assistant messages that request tool invocations.
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`

	// ToolCallID correlates a tool result with the call that produced it.
	// Set only on tool messages.
	ToolCallID string `json:"tool_call_id,omitempty"`

	// IsError marks a tool result that carries an error description
	// instead of tool output.
	IsError bool `json:"is_error,omitempty"`
}

// ToolCall is a tool invocation requested by the model.
type ToolCall struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// ToolSchema declares a tool to the model.
type ToolSchema struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"input_schema"`
}

// NewUserMessage creates a user message with text content.
func NewUserMessage(text string) Message {
	return Message{Role: RoleUser, Content: text}
}

// NewAssistantMessage creates a final assistant message with text content.
func NewAssistantMessage(text string) Message {
	return Message{Role: RoleAssistant, Content: text}
}

// NewToolCallMessage creates an assistant message requesting tool invocations.
func NewToolCallMessage(text string, calls ...ToolCall) Message {
	return Message{Role: RoleAssistant, Content: text, ToolCalls: calls}
}

// NewToolResultMessage creates a tool result correlated to a tool call.
func NewToolResultMessage(callID, output string) Message {
	return Message{Role: RoleTool, Content: output, ToolCallID: callID}
}

// NewToolErrorMessage creates a tool result describing an execution failure.
// The model sees the failure and may recover.
func NewToolErrorMessage(callID, description string) Message {
	return Message{Role: RoleTool, Content: description, ToolCallID: callID, IsError: true}
}

// HasToolCalls reports whether the message requests tool invocations.
func (m Message) HasToolCalls() bool {
	return len(m.ToolCalls) > 0
}
