package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// NoopMetrics is a MetricsRecorder that does nothing.
// Use when metrics are disabled to avoid overhead.
type NoopMetrics struct{}

// Compile-time interface check.
var _ MetricsRecorder = NoopMetrics{}

// RecordStateExecution does nothing.
func (NoopMetrics) RecordStateExecution(_ context.Context, _ string, _ time.Duration, _ error) {}

// RecordTurn does nothing.
func (NoopMetrics) RecordTurn(_ context.Context, _ bool, _ time.Duration) {}

// RecordToolExecution does nothing.
func (NoopMetrics) RecordToolExecution(_ context.Context, _ string, _ time.Duration, _ bool) {}

// RecordCheckpoint does nothing.
func (NoopMetrics) RecordCheckpoint(_ context.Context, _ string, _ int64) {}

// NoopSpanManager is a SpanManager that does nothing.
// Use when tracing is disabled to avoid overhead.
type NoopSpanManager struct{}

// Compile-time interface check.
var _ SpanManager = NoopSpanManager{}

// noopSpan is a span that does nothing.
// We use the OTel noop package for a proper no-op span implementation.
var noopSpan = noop.Span{}

// StartTurnSpan returns the context unchanged and a no-op span.
func (NoopSpanManager) StartTurnSpan(ctx context.Context, _, _ string) (context.Context, trace.Span) {
	return ctx, noopSpan
}

// StartStateSpan returns the context unchanged and a no-op span.
func (NoopSpanManager) StartStateSpan(ctx context.Context, _ string) (context.Context, trace.Span) {
	return ctx, noopSpan
}

// StartToolSpan returns the context unchanged and a no-op span.
func (NoopSpanManager) StartToolSpan(ctx context.Context, _, _ string) (context.Context, trace.Span) {
	return ctx, noopSpan
}

// EndSpanWithError does nothing.
func (NoopSpanManager) EndSpanWithError(_ trace.Span, _ error) {}

// AddSpanEvent does nothing.
func (NoopSpanManager) AddSpanEvent(_ context.Context, _ string, _ ...attribute.KeyValue) {}
