package gridiron

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gridironlabs/gridiron/pkg/gridiron/llm"
	"github.com/gridironlabs/gridiron/pkg/gridiron/tool"
)

// scriptedGateway replays a fixed sequence of model responses and
// records the conversation it was invoked with.
type scriptedGateway struct {
	mu        sync.Mutex
	responses []scriptedResponse
	calls     [][]llm.Message
}

type scriptedResponse struct {
	msg llm.Message
	err error
}

func newScriptedGateway(responses ...scriptedResponse) *scriptedGateway {
	return &scriptedGateway{responses: responses}
}

func respond(msg llm.Message) scriptedResponse {
	return scriptedResponse{msg: msg}
}

func respondErr(err error) scriptedResponse {
	return scriptedResponse{err: err}
}

func (g *scriptedGateway) Invoke(ctx context.Context, messages []llm.Message, tools []llm.ToolSchema) (llm.Message, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	snapshot := make([]llm.Message, len(messages))
	copy(snapshot, messages)
	g.calls = append(g.calls, snapshot)

	if len(g.responses) == 0 {
		return llm.Message{}, llm.ErrUnavailable
	}
	next := g.responses[0]
	g.responses = g.responses[1:]
	return next.msg, next.err
}

// invocations returns the number of model calls made so far.
func (g *scriptedGateway) invocations() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.calls)
}

// lastConversation returns the messages sent on the most recent call.
func (g *scriptedGateway) lastConversation() []llm.Message {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.calls) == 0 {
		return nil
	}
	return g.calls[len(g.calls)-1]
}

// blockingGateway blocks until the context is cancelled or release is closed.
type blockingGateway struct {
	entered chan struct{}
	release chan struct{}
	answer  llm.Message
	once    sync.Once
}

func newBlockingGateway(answer llm.Message) *blockingGateway {
	return &blockingGateway{
		entered: make(chan struct{}, 8),
		release: make(chan struct{}),
		answer:  answer,
	}
}

func (g *blockingGateway) Invoke(ctx context.Context, messages []llm.Message, tools []llm.ToolSchema) (llm.Message, error) {
	g.entered <- struct{}{}
	select {
	case <-ctx.Done():
		return llm.Message{}, ctx.Err()
	case <-g.release:
		return g.answer, nil
	}
}

func (g *blockingGateway) unblock() {
	g.once.Do(func() { close(g.release) })
}

// anyObjectSchema accepts any JSON object.
var anyObjectSchema = json.RawMessage(`{"type": "object"}`)

// staticTool returns a tool that always produces the same output.
func staticTool(name, output string) tool.Declaration {
	return tool.Declaration{
		Name:        name,
		Description: name,
		Schema:      anyObjectSchema,
		Run: func(ctx context.Context, args json.RawMessage) (string, error) {
			return output, nil
		},
	}
}

// failingTool returns a tool whose execution always faults.
func failingTool(name string, err error) tool.Declaration {
	return tool.Declaration{
		Name:        name,
		Description: name,
		Schema:      anyObjectSchema,
		Run: func(ctx context.Context, args json.RawMessage) (string, error) {
			return "", err
		},
	}
}

// newTestRegistry builds a registry from declarations, failing the test
// on registration errors.
func newTestRegistry(t *testing.T, decls ...tool.Declaration) *tool.Registry {
	t.Helper()
	registry := tool.NewRegistry()
	for _, decl := range decls {
		require.NoError(t, registry.Register(decl))
	}
	return registry
}

// collectSteps drains a turn's stream into a slice.
func collectSteps(t *testing.T, turn *Turn) []Step {
	t.Helper()
	var steps []Step
	for step := range turn.Steps() {
		steps = append(steps, step)
	}
	return steps
}

// toolCall builds a tool call with object arguments.
func toolCall(id, name string) llm.ToolCall {
	return llm.ToolCall{ID: id, Name: name, Arguments: json.RawMessage(`{}`)}
}
