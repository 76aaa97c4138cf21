package gridiron

import (
	"log/slog"

	"github.com/gridironlabs/gridiron/pkg/gridiron/checkpoint"
	"github.com/gridironlabs/gridiron/pkg/gridiron/observability"
)

// DefaultMaxIterations bounds the number of model invocations per turn.
// A model that keeps requesting tools past this limit aborts the turn.
const DefaultMaxIterations = 10

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the structured logger.
// Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithCheckpointStore sets the session persistence backend.
// Without a store, session state lives only for the process lifetime
// in an in-memory store.
func WithCheckpointStore(store checkpoint.Store) Option {
	return func(r *Runner) {
		if store != nil {
			r.store = store
		}
	}
}

// WithSpanManager sets the trace span emitter.
// Defaults to NoopSpanManager.
func WithSpanManager(spans observability.SpanManager) Option {
	return func(r *Runner) {
		if spans != nil {
			r.spans = spans
		}
	}
}

// WithMetrics sets the metrics recorder.
// Defaults to NoopMetrics.
func WithMetrics(metrics observability.MetricsRecorder) Option {
	return func(r *Runner) {
		if metrics != nil {
			r.metrics = metrics
		}
	}
}

// WithMaxIterations sets the maximum number of model invocations per turn.
// Default: DefaultMaxIterations.
func WithMaxIterations(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.maxIterations = n
		}
	}
}

// WithSequentialTools forces tool calls within one state to execute one
// at a time instead of concurrently. Results are appended in request
// order either way.
func WithSequentialTools() Option {
	return func(r *Runner) {
		r.sequentialTools = true
	}
}

// WithStrictCheckpointing makes checkpoint save failures abort the turn
// instead of logging a warning and continuing.
func WithStrictCheckpointing() Option {
	return func(r *Runner) {
		r.strictCheckpoints = true
	}
}
