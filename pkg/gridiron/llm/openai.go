package llm

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAIGateway implements Gateway over the OpenAI Chat Completions API.
type OpenAIGateway struct {
	client       openai.Client
	model        string
	maxTokens    int64
	systemPrompt string
}

// OpenAIOption configures an OpenAIGateway.
type OpenAIOption func(*OpenAIGateway)

// WithOpenAIModel sets the model identifier.
func WithOpenAIModel(model string) OpenAIOption {
	return func(g *OpenAIGateway) {
		g.model = model
	}
}

// WithOpenAIMaxTokens sets the completion token limit.
func WithOpenAIMaxTokens(n int64) OpenAIOption {
	return func(g *OpenAIGateway) {
		g.maxTokens = n
	}
}

// WithOpenAISystemPrompt sets the system prompt sent with every call.
func WithOpenAISystemPrompt(prompt string) OpenAIOption {
	return func(g *OpenAIGateway) {
		g.systemPrompt = prompt
	}
}

// NewOpenAIGateway creates a gateway backed by the OpenAI API.
func NewOpenAIGateway(apiKey string, opts ...OpenAIOption) *OpenAIGateway {
	g := &OpenAIGateway{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		model:  openai.ChatModelGPT4o,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Invoke implements Gateway.
func (g *OpenAIGateway) Invoke(ctx context.Context, messages []Message, tools []ToolSchema) (Message, error) {
	converted := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages)+1)
	if g.systemPrompt != "" {
		converted = append(converted, openai.SystemMessage(g.systemPrompt))
	}

	for _, msg := range messages {
		switch {
		case msg.Role == RoleTool:
			converted = append(converted, openai.ToolMessage(msg.ToolCallID, msg.Content))
		case msg.Role == RoleAssistant && msg.HasToolCalls():
			calls := make([]openai.ChatCompletionMessageToolCall, 0, len(msg.ToolCalls))
			for _, tc := range msg.ToolCalls {
				calls = append(calls, openai.ChatCompletionMessageToolCall{
					ID:   tc.ID,
					Type: "function",
					Function: openai.ChatCompletionMessageToolCallFunction{
						Name:      tc.Name,
						Arguments: string(tc.Arguments),
					},
				})
			}
			assistant := openai.ChatCompletionMessage{
				Role:      "assistant",
				Content:   msg.Content,
				ToolCalls: calls,
			}
			converted = append(converted, assistant.ToParam())
		case msg.Role == RoleAssistant:
			converted = append(converted, openai.AssistantMessage(msg.Content))
		default:
			converted = append(converted, openai.UserMessage(msg.Content))
		}
	}

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(g.model),
		Messages: converted,
	}
	if g.maxTokens > 0 {
		params.MaxTokens = openai.Int(g.maxTokens)
	}

	if len(tools) > 0 {
		toolParams := make([]openai.ChatCompletionToolParam, 0, len(tools))
		for _, t := range tools {
			var schema map[string]any
			if err := json.Unmarshal(t.InputSchema, &schema); err != nil {
				return Message{}, fmt.Errorf("tool %s: parse input schema: %w", t.Name, err)
			}
			toolParams = append(toolParams, openai.ChatCompletionToolParam{
				Type: "function",
				Function: openai.FunctionDefinitionParam{
					Name:        t.Name,
					Description: openai.String(t.Description),
					Parameters:  openai.FunctionParameters(schema),
				},
			})
		}
		params.Tools = toolParams
	}

	resp, err := g.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return Message{}, fmt.Errorf("%w: openai: %v", ErrUnavailable, err)
	}
	if len(resp.Choices) == 0 {
		return Message{}, fmt.Errorf("%w: openai: no choices returned", ErrUnavailable)
	}

	choice := resp.Choices[0]
	if len(choice.Message.ToolCalls) > 0 {
		calls := make([]ToolCall, 0, len(choice.Message.ToolCalls))
		for _, tc := range choice.Message.ToolCalls {
			calls = append(calls, ToolCall{
				ID:        tc.ID,
				Name:      tc.Function.Name,
				Arguments: json.RawMessage(tc.Function.Arguments),
			})
		}
		return NewToolCallMessage(choice.Message.Content, calls...), nil
	}

	return NewAssistantMessage(choice.Message.Content), nil
}
