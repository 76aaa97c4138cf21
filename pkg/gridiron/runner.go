package gridiron

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gridironlabs/gridiron/pkg/gridiron/checkpoint"
	"github.com/gridironlabs/gridiron/pkg/gridiron/llm"
	"github.com/gridironlabs/gridiron/pkg/gridiron/observability"
	"github.com/gridironlabs/gridiron/pkg/gridiron/tool"
)

// Runner executes turns against a model gateway and a tool registry.
// It is safe for concurrent use across sessions; turns for the same
// session are mutually exclusive.
type Runner struct {
	gateway llm.Gateway
	tools   *tool.Registry
	store   checkpoint.Store

	logger  *slog.Logger
	spans   observability.SpanManager
	metrics observability.MetricsRecorder

	maxIterations     int
	sequentialTools   bool
	strictCheckpoints bool

	sessionsMu sync.Mutex
	sessions   map[string]*sessionLock
}

// sessionLock guards one session's turn execution. Entries are
// reference-counted so the map does not grow with every session id
// ever seen.
type sessionLock struct {
	mu   sync.Mutex
	refs int
}

// NewRunner creates a runner.
// Panics if gateway or tools is nil; both are required collaborators.
func NewRunner(gateway llm.Gateway, tools *tool.Registry, opts ...Option) *Runner {
	if gateway == nil {
		panic(ErrNilGateway)
	}
	if tools == nil {
		panic(ErrNilRegistry)
	}

	r := &Runner{
		gateway:       gateway,
		tools:         tools,
		store:         checkpoint.NewMemoryStore(),
		logger:        slog.Default(),
		spans:         observability.NoopSpanManager{},
		metrics:       observability.NoopMetrics{},
		maxIterations: DefaultMaxIterations,
		sessions:      make(map[string]*sessionLock),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RunTurn starts one turn: the user message is appended to the session
// and the graph runs until the model produces a final answer.
//
// The returned Turn's step stream must be consumed (or Drain called);
// execution produces steps lazily and blocks on an unread stream until
// the context is cancelled.
//
// A second turn for a session with one already in flight fails with
// ErrSessionBusy.
func (r *Runner) RunTurn(ctx context.Context, sessionID, userText string) *Turn {
	t := &Turn{
		id:        uuid.New().String(),
		sessionID: sessionID,
		steps:     make(chan Step),
	}
	go r.run(ctx, t, userText)
	return t
}

func (r *Runner) run(ctx context.Context, t *Turn, userText string) {
	defer close(t.steps)

	lock := r.acquireSessionLock(t.sessionID)
	defer r.releaseSessionLock(t.sessionID, lock)
	if !lock.mu.TryLock() {
		t.fail(fmt.Errorf("%w: %s", ErrSessionBusy, t.sessionID))
		return
	}
	defer lock.mu.Unlock()

	logger := observability.EnrichLogger(r.logger, t.sessionID, t.id)
	observability.LogTurnStart(logger, t.sessionID, t.id)
	turnDone := observability.TimedOperation()
	turnStart := time.Now()

	var turnErr error
	turnCtx, turnSpan := r.spans.StartTurnSpan(ctx, t.sessionID, t.id)
	defer func() {
		r.spans.EndSpanWithError(turnSpan, turnErr)
		r.metrics.RecordTurn(ctx, turnErr == nil, time.Since(turnStart))
	}()

	sess, revision, err := r.loadSession(t.sessionID)
	if err != nil {
		turnErr = err
		t.fail(err)
		observability.LogTurnError(logger, t.id, err, turnDone(), "")
		return
	}

	sess.Append(llm.NewUserMessage(userText))

	state := StateAwaitingModel
	iterations := 0
	seq := 0

	for state != StateDone {
		// Cancellation check between steps. State already committed up
		// to the last clean boundary stays persisted.
		select {
		case <-ctx.Done():
			turnErr = &CancellationError{State: state, Cause: ctx.Err()}
			t.fail(turnErr)
			observability.LogTurnError(logger, t.id, turnErr, turnDone(), string(state))
			return
		default:
		}

		if state == StateAwaitingModel {
			iterations++
			if iterations > r.maxIterations {
				turnErr = &TurnAbortedError{Max: r.maxIterations, LastState: state}
				t.fail(turnErr)
				observability.LogTurnError(logger, t.id, turnErr, turnDone(), string(state))
				return
			}
		}

		observability.LogStateStart(logger, string(state))
		stateCtx, stateSpan := r.spans.StartStateSpan(turnCtx, string(state))
		stateStart := time.Now()

		var appended []llm.Message
		var next TurnState
		var stateErr error

		switch state {
		case StateAwaitingModel:
			appended, next, stateErr = r.invokeModel(stateCtx, sess)
		case StateAwaitingTools:
			appended, next, stateErr = r.executeTools(stateCtx, logger, sess)
		}

		stateDuration := time.Since(stateStart)
		r.metrics.RecordStateExecution(stateCtx, string(state), stateDuration, stateErr)
		r.spans.EndSpanWithError(stateSpan, stateErr)

		if stateErr != nil {
			if ctx.Err() != nil {
				turnErr = &CancellationError{State: state, Cause: ctx.Err()}
			} else {
				turnErr = &StateError{State: state, Err: stateErr}
			}
			t.fail(turnErr)
			observability.LogTurnError(logger, t.id, turnErr, turnDone(), string(state))
			return
		}

		sess.Append(appended...)
		observability.LogStateComplete(logger, string(state), float64(stateDuration.Milliseconds()), len(appended))

		// Persist at clean boundaries only: never checkpoint a session
		// with unanswered tool calls.
		if len(sess.PendingToolCalls()) == 0 {
			revision++
			if err := r.saveSession(ctx, logger, sess, revision); err != nil {
				turnErr = err
				t.fail(err)
				observability.LogTurnError(logger, t.id, err, turnDone(), string(state))
				return
			}
		}

		seq++
		step := Step{
			Seq:          seq,
			State:        state,
			Next:         next,
			Appended:     appended,
			MessageCount: sess.Len(),
			Duration:     stateDuration,
		}

		select {
		case t.steps <- step:
		case <-ctx.Done():
			turnErr = &CancellationError{State: next, Cause: ctx.Err()}
			t.fail(turnErr)
			observability.LogTurnError(logger, t.id, turnErr, turnDone(), string(state))
			return
		}

		state = next
	}

	t.finish(sess.Clone())
	observability.LogTurnComplete(logger, t.id, turnDone(), seq)
}

// invokeModel runs the AwaitingModel state: one gateway call with the
// full conversation and the registered tool schemas.
func (r *Runner) invokeModel(ctx context.Context, sess *Session) ([]llm.Message, TurnState, error) {
	msg, err := r.gateway.Invoke(ctx, sess.Messages, r.tools.Schemas())
	if err != nil {
		return nil, StateAwaitingModel, err
	}

	if msg.HasToolCalls() {
		return []llm.Message{msg}, StateAwaitingTools, nil
	}
	return []llm.Message{msg}, StateDone, nil
}

// executeTools runs the AwaitingTools state: every pending tool call is
// resolved and executed, and results are reassembled in request order.
// Execution faults become error-carrying results; resolution and
// validation failures abort the turn.
func (r *Runner) executeTools(ctx context.Context, logger *slog.Logger, sess *Session) ([]llm.Message, TurnState, error) {
	calls := sess.PendingToolCalls()

	results := make([]llm.Message, len(calls))
	errs := make([]error, len(calls))

	execute := func(i int, call llm.ToolCall) {
		toolCtx, toolSpan := r.spans.StartToolSpan(ctx, call.Name, call.ID)
		start := time.Now()

		msg, err := r.tools.Execute(toolCtx, call)

		duration := time.Since(start)
		r.metrics.RecordToolExecution(toolCtx, call.Name, duration, err != nil || msg.IsError)
		r.spans.EndSpanWithError(toolSpan, err)
		observability.LogToolExecution(logger, call.Name, call.ID, float64(duration.Milliseconds()), err != nil || msg.IsError)

		results[i], errs[i] = msg, err
	}

	if r.sequentialTools || len(calls) == 1 {
		for i, call := range calls {
			execute(i, call)
		}
	} else {
		var wg sync.WaitGroup
		wg.Add(len(calls))
		for i, call := range calls {
			go func(i int, call llm.ToolCall) {
				defer wg.Done()
				execute(i, call)
			}(i, call)
		}
		wg.Wait()
	}

	// First error in request order wins, for determinism.
	for _, err := range errs {
		if err != nil {
			return nil, StateAwaitingTools, err
		}
	}

	return results, StateAwaitingModel, nil
}

func (r *Runner) loadSession(sessionID string) (*Session, int, error) {
	data, err := r.store.Load(sessionID)
	if errors.Is(err, checkpoint.ErrNotFound) {
		return NewSession(sessionID), 0, nil
	}
	if err != nil {
		return nil, 0, fmt.Errorf("load session %s: %w", sessionID, err)
	}

	sess, revision, err := unmarshalSnapshot(data)
	if err != nil {
		return nil, 0, fmt.Errorf("load session %s: %w", sessionID, err)
	}
	return sess, revision, nil
}

func (r *Runner) saveSession(ctx context.Context, logger *slog.Logger, sess *Session, revision int) error {
	data, err := marshalSnapshot(sess, revision)
	if err != nil {
		if r.strictCheckpoints {
			return err
		}
		observability.LogCheckpointError(logger, sess.ID, "serialize", err)
		return nil
	}

	if err := r.store.Save(sess.ID, data); err != nil {
		if r.strictCheckpoints {
			return fmt.Errorf("save session %s: %w", sess.ID, err)
		}
		observability.LogCheckpointError(logger, sess.ID, "save", err)
		return nil
	}

	observability.LogCheckpoint(logger, sess.ID, len(data))
	r.metrics.RecordCheckpoint(ctx, sess.ID, int64(len(data)))
	return nil
}

func (r *Runner) acquireSessionLock(sessionID string) *sessionLock {
	r.sessionsMu.Lock()
	defer r.sessionsMu.Unlock()

	lock := r.sessions[sessionID]
	if lock == nil {
		lock = &sessionLock{}
		r.sessions[sessionID] = lock
	}
	lock.refs++
	return lock
}

func (r *Runner) releaseSessionLock(sessionID string, lock *sessionLock) {
	r.sessionsMu.Lock()
	defer r.sessionsMu.Unlock()

	lock.refs--
	if lock.refs == 0 {
		delete(r.sessions, sessionID)
	}
}
