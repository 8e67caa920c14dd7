package logger

import (
	"context"
	"time"
)

// contextKey is a private type for context keys to avoid collisions
type contextKey struct{}

// logContextKey is the key for LogContext in context.Context
var logContextKey = contextKey{}

// LogContext holds request-scoped logging context for one client
// operation: the correlation id spans every log line and span one public
// client operation touches, and the task id identifies the registry entry
// collecting that operation's replies.
type LogContext struct {
	TraceID       string    // OpenTelemetry trace ID
	SpanID        string    // OpenTelemetry span ID
	CorrelationID string    // Client operation correlation id
	TaskID        string    // Registry task id, once assigned
	Action        string    // Dispatched operation name
	StartTime     time.Time // For duration calculation
}

// WithContext returns a new context with the given LogContext
func WithContext(ctx context.Context, lc *LogContext) context.Context {
	return context.WithValue(ctx, logContextKey, lc)
}

// FromContext retrieves the LogContext from context, or nil if not present
func FromContext(ctx context.Context) *LogContext {
	if ctx == nil {
		return nil
	}
	lc, _ := ctx.Value(logContextKey).(*LogContext)
	return lc
}

// NewLogContext creates a new LogContext for a client operation identified
// by correlationID and action.
func NewLogContext(correlationID, action string) *LogContext {
	return &LogContext{
		CorrelationID: correlationID,
		Action:        action,
		StartTime:     time.Now(),
	}
}

// Clone creates a copy of the LogContext
func (lc *LogContext) Clone() *LogContext {
	if lc == nil {
		return nil
	}
	return &LogContext{
		TraceID:       lc.TraceID,
		SpanID:        lc.SpanID,
		CorrelationID: lc.CorrelationID,
		TaskID:        lc.TaskID,
		Action:        lc.Action,
		StartTime:     lc.StartTime,
	}
}

// WithTaskID returns a copy with the registry task id set, once the
// operation has allocated one.
func (lc *LogContext) WithTaskID(taskID string) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.TaskID = taskID
	}
	return clone
}

// WithTrace returns a copy with trace info set
func (lc *LogContext) WithTrace(traceID, spanID string) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.TraceID = traceID
		clone.SpanID = spanID
	}
	return clone
}

// DurationMs returns the duration since StartTime in milliseconds
func (lc *LogContext) DurationMs() float64 {
	if lc == nil || lc.StartTime.IsZero() {
		return 0
	}
	return float64(time.Since(lc.StartTime).Microseconds()) / 1000.0
}
