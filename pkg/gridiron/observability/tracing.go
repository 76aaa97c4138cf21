package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Tracer is the gridiron tracer instance.
// Uses the global OTel tracer provider.
var tracer = otel.Tracer("gridiron")

// SpanManager handles trace span lifecycle for turn execution.
// Use NewSpanManager() for OTel tracing or NoopSpanManager{} when disabled.
type SpanManager interface {
	// StartTurnSpan starts a span covering an entire turn.
	StartTurnSpan(ctx context.Context, sessionID, turnID string) (context.Context, trace.Span)

	// StartStateSpan starts a span for one graph state execution.
	// The state span is a child of the turn span.
	StartStateSpan(ctx context.Context, state string) (context.Context, trace.Span)

	// StartToolSpan starts a span for one tool execution.
	StartToolSpan(ctx context.Context, name, callID string) (context.Context, trace.Span)

	// EndSpanWithError completes a span, optionally recording an error.
	EndSpanWithError(span trace.Span, err error)

	// AddSpanEvent adds an event to the current span in context.
	AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue)
}

// otelSpanManager implements SpanManager using OpenTelemetry.
type otelSpanManager struct{}

// NewSpanManager returns a SpanManager that uses OpenTelemetry.
//
// The span manager uses the global OTel tracer provider. Configure it
// with InitTracing (or otel.SetTracerProvider) before calling this
// function. With no provider configured, spans are no-ops.
func NewSpanManager() SpanManager {
	return &otelSpanManager{}
}

// StartTurnSpan starts a span covering an entire turn.
func (m *otelSpanManager) StartTurnSpan(ctx context.Context, sessionID, turnID string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "gridiron.turn",
		trace.WithAttributes(
			attribute.String("session.id", sessionID),
			attribute.String("turn.id", turnID),
		),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// StartStateSpan starts a span for one graph state execution.
func (m *otelSpanManager) StartStateSpan(ctx context.Context, state string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "gridiron.state."+state,
		trace.WithAttributes(
			attribute.String("graph.state", state),
		),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// StartToolSpan starts a span for one tool execution.
func (m *otelSpanManager) StartToolSpan(ctx context.Context, name, callID string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "gridiron.tool."+name,
		trace.WithAttributes(
			attribute.String("tool.name", name),
			attribute.String("tool.call_id", callID),
		),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// EndSpanWithError completes a span, optionally recording an error.
func (m *otelSpanManager) EndSpanWithError(span trace.Span, err error) {
	if span == nil {
		return
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// AddSpanEvent adds an event to the current span.
func (m *otelSpanManager) AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	span := trace.SpanFromContext(ctx)
	if span == nil || !span.IsRecording() {
		return
	}
	span.AddEvent(name, trace.WithAttributes(attrs...))
}
