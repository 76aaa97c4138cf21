package llm

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// AnthropicGateway implements Gateway over the Anthropic Messages API.
type AnthropicGateway struct {
	client       anthropic.Client
	model        string
	maxTokens    int64
	systemPrompt string
}

// AnthropicOption configures an AnthropicGateway.
type AnthropicOption func(*AnthropicGateway)

// WithAnthropicModel sets the model identifier.
func WithAnthropicModel(model string) AnthropicOption {
	return func(g *AnthropicGateway) {
		g.model = model
	}
}

// WithAnthropicMaxTokens sets the completion token limit.
func WithAnthropicMaxTokens(n int64) AnthropicOption {
	return func(g *AnthropicGateway) {
		g.maxTokens = n
	}
}

// WithAnthropicSystemPrompt sets the system prompt sent with every call.
func WithAnthropicSystemPrompt(prompt string) AnthropicOption {
	return func(g *AnthropicGateway) {
		g.systemPrompt = prompt
	}
}

// NewAnthropicGateway creates a gateway backed by the Anthropic API.
func NewAnthropicGateway(apiKey string, opts ...AnthropicOption) *AnthropicGateway {
	g := &AnthropicGateway{
		client:    anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:     string(anthropic.ModelClaudeSonnet4_20250514),
		maxTokens: 4096,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Invoke implements Gateway.
func (g *AnthropicGateway) Invoke(ctx context.Context, messages []Message, tools []ToolSchema) (Message, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(g.model),
		Messages:  convertAnthropicMessages(messages),
		MaxTokens: g.maxTokens,
	}

	if g.systemPrompt != "" {
		params.System = []anthropic.TextBlockParam{{Text: g.systemPrompt}}
	}

	if len(tools) > 0 {
		converted, err := convertAnthropicTools(tools)
		if err != nil {
			return Message{}, err
		}
		params.Tools = converted
	}

	resp, err := g.client.Messages.New(ctx, params)
	if err != nil {
		return Message{}, fmt.Errorf("%w: anthropic: %v", ErrUnavailable, err)
	}

	var text string
	var calls []ToolCall
	for _, block := range resp.Content {
		switch b := block.AsAny().(type) {
		case anthropic.TextBlock:
			text += b.Text
		case anthropic.ToolUseBlock:
			calls = append(calls, ToolCall{
				ID:        b.ID,
				Name:      b.Name,
				Arguments: json.RawMessage(b.JSON.Input.Raw()),
			})
		}
	}

	if len(calls) > 0 {
		return NewToolCallMessage(text, calls...), nil
	}
	return NewAssistantMessage(text), nil
}

func convertAnthropicMessages(messages []Message) []anthropic.MessageParam {
	out := make([]anthropic.MessageParam, 0, len(messages))
	for _, msg := range messages {
		switch {
		case msg.Role == RoleTool:
			out = append(out, anthropic.NewUserMessage(
				anthropic.NewToolResultBlock(msg.ToolCallID, msg.Content, msg.IsError),
			))
		case msg.Role == RoleAssistant && msg.HasToolCalls():
			blocks := []anthropic.ContentBlockParamUnion{}
			if msg.Content != "" {
				blocks = append(blocks, anthropic.NewTextBlock(msg.Content))
			}
			for _, tc := range msg.ToolCalls {
				blocks = append(blocks, anthropic.NewToolUseBlock(tc.ID, tc.Arguments, tc.Name))
			}
			out = append(out, anthropic.MessageParam{
				Role:    anthropic.MessageParamRoleAssistant,
				Content: blocks,
			})
		case msg.Role == RoleAssistant:
			out = append(out, anthropic.MessageParam{
				Role: anthropic.MessageParamRoleAssistant,
				Content: []anthropic.ContentBlockParamUnion{
					anthropic.NewTextBlock(msg.Content),
				},
			})
		default:
			out = append(out, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))
		}
	}
	return out
}

func convertAnthropicTools(tools []ToolSchema) ([]anthropic.ToolUnionParam, error) {
	out := make([]anthropic.ToolUnionParam, 0, len(tools))
	for _, t := range tools {
		var schema map[string]any
		if err := json.Unmarshal(t.InputSchema, &schema); err != nil {
			return nil, fmt.Errorf("tool %s: parse input schema: %w", t.Name, err)
		}

		param := anthropic.ToolParam{
			Name:        t.Name,
			Description: anthropic.String(t.Description),
			InputSchema: anthropic.ToolInputSchemaParam{
				Properties: schema["properties"],
			},
		}
		if required, ok := schema["required"].([]any); ok {
			names := make([]string, 0, len(required))
			for _, r := range required {
				if s, ok := r.(string); ok {
					names = append(names, s)
				}
			}
			param.InputSchema.Required = names
		}

		out = append(out, anthropic.ToolUnionParam{OfTool: &param})
	}
	return out, nil
}
