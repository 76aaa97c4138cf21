package observability

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricsRecorder records agent runtime metrics.
// Use NewMetricsRecorder() for OTel metrics or NoopMetrics{} when disabled.
type MetricsRecorder interface {
	// RecordStateExecution records one graph state execution.
	RecordStateExecution(ctx context.Context, state string, duration time.Duration, err error)

	// RecordTurn records a turn completion.
	RecordTurn(ctx context.Context, success bool, duration time.Duration)

	// RecordToolExecution records one tool execution.
	RecordToolExecution(ctx context.Context, name string, duration time.Duration, failed bool)

	// RecordCheckpoint records a session snapshot save.
	RecordCheckpoint(ctx context.Context, sessionID string, sizeBytes int64)
}

// otelMetrics implements MetricsRecorder using OpenTelemetry.
type otelMetrics struct {
	stateExecutions metric.Int64Counter
	stateLatency    metric.Float64Histogram
	stateErrors     metric.Int64Counter
	turns           metric.Int64Counter
	turnLatency     metric.Float64Histogram
	toolExecutions  metric.Int64Counter
	toolLatency     metric.Float64Histogram
	checkpointSize  metric.Int64Histogram
}

var (
	defaultMetrics     *otelMetrics
	defaultMetricsOnce sync.Once
	defaultMetricsErr  error
)

// getDefaultMetrics returns the default OTel metrics instance.
// Lazily initializes the instruments on first call.
func getDefaultMetrics() (*otelMetrics, error) {
	defaultMetricsOnce.Do(func() {
		defaultMetrics, defaultMetricsErr = newOtelMetrics()
	})
	return defaultMetrics, defaultMetricsErr
}

func newOtelMetrics() (*otelMetrics, error) {
	meter := otel.Meter("gridiron")

	stateExecutions, err := meter.Int64Counter("gridiron.state.executions",
		metric.WithDescription("Number of graph state executions"),
	)
	if err != nil {
		return nil, err
	}

	stateLatency, err := meter.Float64Histogram("gridiron.state.latency_ms",
		metric.WithDescription("Graph state execution latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	stateErrors, err := meter.Int64Counter("gridiron.state.errors",
		metric.WithDescription("Number of graph state execution errors"),
	)
	if err != nil {
		return nil, err
	}

	turns, err := meter.Int64Counter("gridiron.turns",
		metric.WithDescription("Number of turns"),
	)
	if err != nil {
		return nil, err
	}

	turnLatency, err := meter.Float64Histogram("gridiron.turn.latency_ms",
		metric.WithDescription("Turn latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	toolExecutions, err := meter.Int64Counter("gridiron.tool.executions",
		metric.WithDescription("Number of tool executions"),
	)
	if err != nil {
		return nil, err
	}

	toolLatency, err := meter.Float64Histogram("gridiron.tool.latency_ms",
		metric.WithDescription("Tool execution latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	checkpointSize, err := meter.Int64Histogram("gridiron.checkpoint.size_bytes",
		metric.WithDescription("Session snapshot size in bytes"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, err
	}

	return &otelMetrics{
		stateExecutions: stateExecutions,
		stateLatency:    stateLatency,
		stateErrors:     stateErrors,
		turns:           turns,
		turnLatency:     turnLatency,
		toolExecutions:  toolExecutions,
		toolLatency:     toolLatency,
		checkpointSize:  checkpointSize,
	}, nil
}

// NewMetricsRecorder returns a MetricsRecorder that uses OpenTelemetry.
// If instrument creation fails, returns a no-op recorder.
//
// The recorder uses the global OTel meter provider. Configure the provider
// before calling this function.
func NewMetricsRecorder() MetricsRecorder {
	m, err := getDefaultMetrics()
	if err != nil {
		slog.Warn("metrics initialization failed, using no-op recorder",
			slog.String("error", err.Error()))
		return NoopMetrics{}
	}
	return m
}

// RecordStateExecution records one graph state execution.
func (m *otelMetrics) RecordStateExecution(ctx context.Context, state string, duration time.Duration, err error) {
	attrs := []attribute.KeyValue{
		attribute.String("state", state),
	}

	m.stateExecutions.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.stateLatency.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(attrs...))

	if err != nil {
		m.stateErrors.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
}

// RecordTurn records a turn completion.
func (m *otelMetrics) RecordTurn(ctx context.Context, success bool, duration time.Duration) {
	attrs := []attribute.KeyValue{
		attribute.Bool("success", success),
	}
	m.turns.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.turnLatency.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(attrs...))
}

// RecordToolExecution records one tool execution.
func (m *otelMetrics) RecordToolExecution(ctx context.Context, name string, duration time.Duration, failed bool) {
	attrs := []attribute.KeyValue{
		attribute.String("tool", name),
		attribute.Bool("failed", failed),
	}
	m.toolExecutions.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.toolLatency.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(attrs...))
}

// RecordCheckpoint records a session snapshot save.
func (m *otelMetrics) RecordCheckpoint(ctx context.Context, sessionID string, sizeBytes int64) {
	attrs := []attribute.KeyValue{
		attribute.String("session_id", sessionID),
	}
	m.checkpointSize.Record(ctx, sizeBytes, metric.WithAttributes(attrs...))
}
