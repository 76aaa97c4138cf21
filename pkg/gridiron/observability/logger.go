// Package observability provides structured logging, metrics, and
// distributed tracing for the agent runtime.
//
// Features:
//   - Structured logging via slog (Go stdlib)
//   - Metrics via OpenTelemetry
//   - Tracing via OpenTelemetry, with explicitly configured exporters
//
// All features are opt-in and have no-op implementations when disabled.
package observability

import (
	"log/slog"
	"time"
)

// EnrichLogger adds turn context to a logger.
// Returns a new logger with session_id and turn_id fields.
func EnrichLogger(logger *slog.Logger, sessionID, turnID string) *slog.Logger {
	if logger == nil {
		return nil
	}
	return logger.With(
		slog.String("session_id", sessionID),
		slog.String("turn_id", turnID),
	)
}

// LogTurnStart logs the start of a turn.
func LogTurnStart(logger *slog.Logger, sessionID, turnID string) {
	if logger == nil {
		return
	}
	logger.Info("turn starting",
		slog.String("session_id", sessionID),
		slog.String("turn_id", turnID),
	)
}

// LogTurnComplete logs successful turn completion.
func LogTurnComplete(logger *slog.Logger, turnID string, durationMs float64, steps int) {
	if logger == nil {
		return
	}
	logger.Info("turn completed",
		slog.String("turn_id", turnID),
		slog.Float64("duration_ms", durationMs),
		slog.Int("steps", steps),
	)
}

// LogTurnError logs turn failure.
func LogTurnError(logger *slog.Logger, turnID string, err error, durationMs float64, lastState string) {
	if logger == nil {
		return
	}
	logger.Error("turn failed",
		slog.String("turn_id", turnID),
		slog.String("error", err.Error()),
		slog.Float64("duration_ms", durationMs),
		slog.String("last_state", lastState),
	)
}

// LogStateStart logs entry into a graph state.
func LogStateStart(logger *slog.Logger, state string) {
	if logger == nil {
		return
	}
	logger.Debug("state starting",
		slog.String("state", state),
	)
}

// LogStateComplete logs a completed graph state.
func LogStateComplete(logger *slog.Logger, state string, durationMs float64, appended int) {
	if logger == nil {
		return
	}
	logger.Debug("state completed",
		slog.String("state", state),
		slog.Float64("duration_ms", durationMs),
		slog.Int("messages_appended", appended),
	)
}

// LogToolExecution logs a tool execution outcome.
func LogToolExecution(logger *slog.Logger, name, callID string, durationMs float64, failed bool) {
	if logger == nil {
		return
	}
	logger.Debug("tool executed",
		slog.String("tool", name),
		slog.String("call_id", callID),
		slog.Float64("duration_ms", durationMs),
		slog.Bool("failed", failed),
	)
}

// LogCheckpoint logs a session snapshot save.
func LogCheckpoint(logger *slog.Logger, sessionID string, sizeBytes int) {
	if logger == nil {
		return
	}
	logger.Debug("checkpoint saved",
		slog.String("session_id", sessionID),
		slog.Int("size_bytes", sizeBytes),
	)
}

// LogCheckpointError logs a snapshot save failure.
func LogCheckpointError(logger *slog.Logger, sessionID string, op string, err error) {
	if logger == nil {
		return
	}
	logger.Warn("checkpoint failed",
		slog.String("session_id", sessionID),
		slog.String("operation", op),
		slog.String("error", err.Error()),
	)
}

// TimedOperation measures the duration of an operation.
// Returns a function that, when called, returns the elapsed time in milliseconds.
func TimedOperation() func() float64 {
	start := time.Now()
	return func() float64 {
		return float64(time.Since(start).Milliseconds())
	}
}
