package gridiron

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridironlabs/gridiron/pkg/gridiron/checkpoint"
	"github.com/gridironlabs/gridiron/pkg/gridiron/llm"
	"github.com/gridironlabs/gridiron/pkg/gridiron/tool"
)

// TestRunTurn_ToolCallFlow covers the canonical turn: model requests a
// stats tool, the tool runs, the model answers.
func TestRunTurn_ToolCallFlow(t *testing.T) {
	gateway := newScriptedGateway(
		respond(llm.NewToolCallMessage("", toolCall("call-1", "get_player_stats"))),
		respond(llm.NewAssistantMessage("He averaged 2.1 touchdowns per game.")),
	)
	registry := newTestRegistry(t, staticTool("get_player_stats", `{"touchdowns": 2.1}`))
	store := checkpoint.NewMemoryStore()

	runner := NewRunner(gateway, registry, WithCheckpointStore(store))
	turn := runner.RunTurn(context.Background(), "s1", "How many touchdowns did Mahomes average?")

	steps := collectSteps(t, turn)
	require.NoError(t, turn.Err())

	require.Len(t, steps, 3)
	assert.Equal(t, StateAwaitingModel, steps[0].State)
	assert.Equal(t, StateAwaitingTools, steps[0].Next)
	assert.Equal(t, StateAwaitingTools, steps[1].State)
	assert.Equal(t, StateAwaitingModel, steps[1].Next)
	assert.Equal(t, StateAwaitingModel, steps[2].State)
	assert.Equal(t, StateDone, steps[2].Next)

	for i, step := range steps {
		assert.Equal(t, i+1, step.Seq)
	}

	final := turn.Final()
	require.NotNil(t, final)
	require.Len(t, final.Messages, 4)
	assert.Equal(t, llm.RoleUser, final.Messages[0].Role)
	assert.True(t, final.Messages[1].HasToolCalls())
	assert.Equal(t, llm.RoleTool, final.Messages[2].Role)
	assert.Equal(t, "call-1", final.Messages[2].ToolCallID)
	assert.Equal(t, llm.RoleAssistant, final.Messages[3].Role)
	assert.Equal(t, "He averaged 2.1 touchdowns per game.", turn.Answer())

	// Final state is committed.
	data, err := store.Load("s1")
	require.NoError(t, err)
	snap, err := checkpoint.Unmarshal(data)
	require.NoError(t, err)
	assert.Equal(t, 4, snap.MessageCount)
}

// TestRunTurn_DirectAnswer covers a turn without tool use.
func TestRunTurn_DirectAnswer(t *testing.T) {
	gateway := newScriptedGateway(respond(llm.NewAssistantMessage("hi")))
	runner := NewRunner(gateway, newTestRegistry(t))

	turn := runner.RunTurn(context.Background(), "s1", "hello")
	steps := collectSteps(t, turn)

	require.NoError(t, turn.Err())
	require.Len(t, steps, 1)
	assert.Equal(t, StateAwaitingModel, steps[0].State)
	assert.Equal(t, StateDone, steps[0].Next)
	assert.Equal(t, 2, steps[0].MessageCount)
	assert.Equal(t, "hi", turn.Answer())
}

// TestRunTurn_ToolFaultRecovers verifies an execution fault becomes an
// error-carrying result and the turn continues.
func TestRunTurn_ToolFaultRecovers(t *testing.T) {
	gateway := newScriptedGateway(
		respond(llm.NewToolCallMessage("", toolCall("call-1", "flaky"))),
		respond(llm.NewAssistantMessage("Sorry, the stats service is down.")),
	)
	registry := newTestRegistry(t, failingTool("flaky", errors.New("upstream timeout")))

	runner := NewRunner(gateway, registry)
	turn := runner.RunTurn(context.Background(), "s1", "stats please")

	steps := collectSteps(t, turn)
	require.NoError(t, turn.Err())
	require.Len(t, steps, 3)

	result := steps[1].Appended[0]
	assert.Equal(t, llm.RoleTool, result.Role)
	assert.Equal(t, "call-1", result.ToolCallID)
	assert.True(t, result.IsError)
	assert.Contains(t, result.Content, "upstream timeout")

	// The model saw the failure: two invocations happened.
	assert.Equal(t, 2, gateway.invocations())
}

// TestRunTurn_UnknownTool verifies a request for an unregistered tool
// aborts the turn and commits nothing.
func TestRunTurn_UnknownTool(t *testing.T) {
	gateway := newScriptedGateway(
		respond(llm.NewToolCallMessage("", toolCall("call-1", "no_such_tool"))),
	)
	store := checkpoint.NewMemoryStore()
	runner := NewRunner(gateway, newTestRegistry(t), WithCheckpointStore(store))

	turn := runner.RunTurn(context.Background(), "s1", "question")
	collectSteps(t, turn)

	require.Error(t, turn.Err())
	assert.ErrorIs(t, turn.Err(), tool.ErrUnknown)
	assert.Nil(t, turn.Final())

	// The session was never at a clean boundary, so nothing persisted.
	_, err := store.Load("s1")
	assert.ErrorIs(t, err, checkpoint.ErrNotFound)
}

// TestRunTurn_InvalidArguments verifies schema violations abort the turn.
func TestRunTurn_InvalidArguments(t *testing.T) {
	decl := tool.Declaration{
		Name:        "lookup",
		Description: "lookup",
		Schema:      json.RawMessage(`{"type":"object","properties":{"id":{"type":"integer"}},"required":["id"]}`),
		Run: func(ctx context.Context, args json.RawMessage) (string, error) {
			return "ok", nil
		},
	}
	gateway := newScriptedGateway(
		respond(llm.NewToolCallMessage("", llm.ToolCall{
			ID: "call-1", Name: "lookup", Arguments: json.RawMessage(`{"id": "not-a-number"}`),
		})),
	)
	runner := NewRunner(gateway, newTestRegistry(t, decl))

	turn := runner.RunTurn(context.Background(), "s1", "question")
	collectSteps(t, turn)

	assert.ErrorIs(t, turn.Err(), tool.ErrInvalidArguments)
}

// TestRunTurn_ModelUnavailable verifies transport faults propagate
// without touching the store.
func TestRunTurn_ModelUnavailable(t *testing.T) {
	gateway := newScriptedGateway(respondErr(fmt.Errorf("%w: boom", llm.ErrUnavailable)))
	store := checkpoint.NewMemoryStore()
	runner := NewRunner(gateway, newTestRegistry(t), WithCheckpointStore(store))

	turn := runner.RunTurn(context.Background(), "s1", "question")
	steps := collectSteps(t, turn)

	assert.Empty(t, steps)
	assert.ErrorIs(t, turn.Err(), llm.ErrUnavailable)
	assert.Equal(t, 0, store.Len())
}

// TestRunTurn_MaxIterations verifies the liveness guard and that the
// last fully completed step stays persisted.
func TestRunTurn_MaxIterations(t *testing.T) {
	// The model requests a tool on every invocation, forever.
	calls := 0
	gateway := llm.GatewayFunc(func(ctx context.Context, messages []llm.Message, tools []llm.ToolSchema) (llm.Message, error) {
		calls++
		return llm.NewToolCallMessage("", toolCall(fmt.Sprintf("call-%d", calls), "ping")), nil
	})
	store := checkpoint.NewMemoryStore()
	runner := NewRunner(gateway, newTestRegistry(t, staticTool("ping", "pong")),
		WithCheckpointStore(store),
		WithMaxIterations(3),
	)

	turn := runner.RunTurn(context.Background(), "s1", "question")
	collectSteps(t, turn)

	require.Error(t, turn.Err())
	assert.ErrorIs(t, turn.Err(), ErrTurnAborted)

	var aborted *TurnAbortedError
	require.ErrorAs(t, turn.Err(), &aborted)
	assert.Equal(t, 3, aborted.Max)

	// Three completed model/tools cycles: 1 user + 3*(assistant+result).
	data, err := store.Load("s1")
	require.NoError(t, err)
	snap, err := checkpoint.Unmarshal(data)
	require.NoError(t, err)
	assert.Equal(t, 7, snap.MessageCount)
}

// TestRunTurn_SessionBusy verifies a second in-flight turn for the same
// session is rejected.
func TestRunTurn_SessionBusy(t *testing.T) {
	gateway := newBlockingGateway(llm.NewAssistantMessage("done"))
	runner := NewRunner(gateway, newTestRegistry(t))

	first := runner.RunTurn(context.Background(), "s1", "first")
	<-gateway.entered // first turn holds the session lock

	second := runner.RunTurn(context.Background(), "s1", "second")
	steps := collectSteps(t, second)

	assert.Empty(t, steps)
	assert.ErrorIs(t, second.Err(), ErrSessionBusy)

	gateway.unblock()
	collectSteps(t, first)
	require.NoError(t, first.Err())

	// The rejected turn must not leave a lock entry behind.
	runner.sessionsMu.Lock()
	assert.Empty(t, runner.sessions)
	runner.sessionsMu.Unlock()
}

// TestRunTurn_SessionLocksReleased verifies the per-session lock table
// does not retain entries for finished turns, including rejected ones.
func TestRunTurn_SessionLocksReleased(t *testing.T) {
	gateway := newScriptedGateway(
		respond(llm.NewAssistantMessage("one")),
		respond(llm.NewAssistantMessage("two")),
	)
	runner := NewRunner(gateway, newTestRegistry(t))

	first := runner.RunTurn(context.Background(), "s1", "first")
	collectSteps(t, first)
	require.NoError(t, first.Err())

	second := runner.RunTurn(context.Background(), "s2", "second")
	collectSteps(t, second)
	require.NoError(t, second.Err())

	runner.sessionsMu.Lock()
	defer runner.sessionsMu.Unlock()
	assert.Empty(t, runner.sessions)
}

// TestRunTurn_DifferentSessionsRunConcurrently verifies the lock is
// per-session, not global.
func TestRunTurn_DifferentSessionsRunConcurrently(t *testing.T) {
	gateway := newBlockingGateway(llm.NewAssistantMessage("done"))
	runner := NewRunner(gateway, newTestRegistry(t))

	a := runner.RunTurn(context.Background(), "s1", "first")
	b := runner.RunTurn(context.Background(), "s2", "second")

	// Both turns reach the gateway without waiting on each other.
	<-gateway.entered
	<-gateway.entered

	gateway.unblock()
	collectSteps(t, a)
	collectSteps(t, b)
	require.NoError(t, a.Err())
	require.NoError(t, b.Err())
}

// TestRunTurn_AppendOnlyAcrossTurns verifies message accounting over
// sequential turns and exactly-one result per tool call id.
func TestRunTurn_AppendOnlyAcrossTurns(t *testing.T) {
	gateway := newScriptedGateway(
		respond(llm.NewToolCallMessage("", toolCall("call-1", "stats"))),
		respond(llm.NewAssistantMessage("answer one")),
		respond(llm.NewAssistantMessage("answer two")),
	)
	store := checkpoint.NewMemoryStore()
	registry := newTestRegistry(t, staticTool("stats", "42"))
	runner := NewRunner(gateway, registry, WithCheckpointStore(store))

	first := runner.RunTurn(context.Background(), "s1", "question one")
	collectSteps(t, first)
	require.NoError(t, first.Err())
	require.Len(t, first.Final().Messages, 4)

	second := runner.RunTurn(context.Background(), "s1", "question two")
	collectSteps(t, second)
	require.NoError(t, second.Err())

	final := second.Final()
	require.Len(t, final.Messages, 6) // 4 from turn one + user + answer

	// Prior history was sent to the model on the second turn.
	assert.Len(t, gateway.lastConversation(), 5)

	// Every tool call id has exactly one result.
	results := make(map[string]int)
	for _, msg := range final.Messages {
		if msg.Role == llm.RoleTool {
			results[msg.ToolCallID]++
		}
	}
	assert.Equal(t, map[string]int{"call-1": 1}, results)
	assert.Empty(t, final.PendingToolCalls())
}

// TestRunTurn_ResumeFromStore verifies a fresh runner resumes a session
// persisted by another.
func TestRunTurn_ResumeFromStore(t *testing.T) {
	store := checkpoint.NewMemoryStore()

	first := NewRunner(
		newScriptedGateway(respond(llm.NewAssistantMessage("first answer"))),
		newTestRegistry(t),
		WithCheckpointStore(store),
	)
	turn := first.RunTurn(context.Background(), "s1", "first question")
	collectSteps(t, turn)
	require.NoError(t, turn.Err())

	gateway := newScriptedGateway(respond(llm.NewAssistantMessage("second answer")))
	second := NewRunner(gateway, newTestRegistry(t), WithCheckpointStore(store))

	turn = second.RunTurn(context.Background(), "s1", "second question")
	collectSteps(t, turn)
	require.NoError(t, turn.Err())

	require.Len(t, turn.Final().Messages, 4)
	assert.Equal(t, "first question", turn.Final().Messages[0].Content)
	assert.Len(t, gateway.lastConversation(), 3)
}

// TestRunTurn_ToolResultOrdering verifies results are reassembled in
// request order even when executions finish out of order.
func TestRunTurn_ToolResultOrdering(t *testing.T) {
	delays := map[string]time.Duration{
		"slow":   30 * time.Millisecond,
		"medium": 15 * time.Millisecond,
		"fast":   0,
	}
	makeTool := func(name string) tool.Declaration {
		return tool.Declaration{
			Name:        name,
			Description: name,
			Schema:      anyObjectSchema,
			Run: func(ctx context.Context, args json.RawMessage) (string, error) {
				time.Sleep(delays[name])
				return name, nil
			},
		}
	}

	gateway := newScriptedGateway(
		respond(llm.NewToolCallMessage("",
			toolCall("call-a", "slow"),
			toolCall("call-b", "medium"),
			toolCall("call-c", "fast"),
		)),
		respond(llm.NewAssistantMessage("done")),
	)
	registry := newTestRegistry(t, makeTool("slow"), makeTool("medium"), makeTool("fast"))
	runner := NewRunner(gateway, registry)

	turn := runner.RunTurn(context.Background(), "s1", "question")
	steps := collectSteps(t, turn)
	require.NoError(t, turn.Err())

	results := steps[1].Appended
	require.Len(t, results, 3)
	assert.Equal(t, "call-a", results[0].ToolCallID)
	assert.Equal(t, "call-b", results[1].ToolCallID)
	assert.Equal(t, "call-c", results[2].ToolCallID)
	assert.Equal(t, "slow", results[0].Content)
	assert.Equal(t, "medium", results[1].Content)
	assert.Equal(t, "fast", results[2].Content)
}

// TestRunTurn_Cancellation verifies cancellation between steps closes
// the stream and keeps the last clean boundary persisted.
func TestRunTurn_Cancellation(t *testing.T) {
	store := checkpoint.NewMemoryStore()

	// Seed the session with a completed turn.
	seed := NewRunner(
		newScriptedGateway(respond(llm.NewAssistantMessage("seeded"))),
		newTestRegistry(t),
		WithCheckpointStore(store),
	)
	turn := seed.RunTurn(context.Background(), "s1", "seed question")
	collectSteps(t, turn)
	require.NoError(t, turn.Err())

	gateway := newBlockingGateway(llm.NewAssistantMessage("never"))
	runner := NewRunner(gateway, newTestRegistry(t), WithCheckpointStore(store))

	ctx, cancel := context.WithCancel(context.Background())
	turn = runner.RunTurn(ctx, "s1", "second question")
	<-gateway.entered
	cancel()

	steps := collectSteps(t, turn)
	assert.Empty(t, steps)
	require.Error(t, turn.Err())
	assert.ErrorIs(t, turn.Err(), context.Canceled)

	var cancelled *CancellationError
	assert.ErrorAs(t, turn.Err(), &cancelled)

	// The seeded state survived untouched.
	data, err := store.Load("s1")
	require.NoError(t, err)
	snap, err := checkpoint.Unmarshal(data)
	require.NoError(t, err)
	assert.Equal(t, 2, snap.MessageCount)
}

// TestRunTurn_SequentialTools verifies the opt-out of concurrent
// execution still preserves order and results.
func TestRunTurn_SequentialTools(t *testing.T) {
	var mu sync.Mutex
	var order []string
	makeTool := func(name string) tool.Declaration {
		return tool.Declaration{
			Name:        name,
			Description: name,
			Schema:      anyObjectSchema,
			Run: func(ctx context.Context, args json.RawMessage) (string, error) {
				mu.Lock()
				order = append(order, name)
				mu.Unlock()
				return name, nil
			},
		}
	}

	gateway := newScriptedGateway(
		respond(llm.NewToolCallMessage("", toolCall("c1", "one"), toolCall("c2", "two"))),
		respond(llm.NewAssistantMessage("done")),
	)
	runner := NewRunner(gateway, newTestRegistry(t, makeTool("one"), makeTool("two")),
		WithSequentialTools())

	turn := runner.RunTurn(context.Background(), "s1", "question")
	collectSteps(t, turn)
	require.NoError(t, turn.Err())
	assert.Equal(t, []string{"one", "two"}, order)
}

// TestRunTurn_Drain verifies the convenience consumer.
func TestRunTurn_Drain(t *testing.T) {
	gateway := newScriptedGateway(respond(llm.NewAssistantMessage("answer")))
	runner := NewRunner(gateway, newTestRegistry(t))

	turn := runner.RunTurn(context.Background(), "s1", "question")
	require.NoError(t, turn.Drain())
	assert.Equal(t, "answer", turn.Answer())
}

// TestNewRunner_NilCollaborators verifies constructor validation.
func TestNewRunner_NilCollaborators(t *testing.T) {
	assert.PanicsWithError(t, ErrNilGateway.Error(), func() {
		NewRunner(nil, tool.NewRegistry())
	})
	assert.PanicsWithError(t, ErrNilRegistry.Error(), func() {
		NewRunner(newScriptedGateway(), nil)
	})
}
