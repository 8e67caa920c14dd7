package logger

import (
	"log/slog"
)

// Standard field keys for structured logging across the coordination core.
// Use these keys consistently across all log statements for log aggregation
// and querying.
const (
	// ========================================================================
	// Distributed Tracing
	// ========================================================================
	KeyTraceID = "trace_id" // OpenTelemetry trace ID for request correlation
	KeySpanID  = "span_id"  // OpenTelemetry span ID for operation tracking

	// ========================================================================
	// Request Correlation
	// ========================================================================
	KeyCorrelationID = "correlation_id" // Client operation correlation id
	KeyTaskID        = "task_id"        // Registry task id
	KeyMessageID     = "message_id"     // Wire envelope message id

	// ========================================================================
	// Envelope / Dispatch
	// ========================================================================
	KeyAction             = "action"              // Dispatched operation name
	KeySourcePersona      = "source_persona"      // Envelope source persona
	KeyDestinationPersona = "destination_persona" // Envelope destination persona
	KeyDropReason         = "drop_reason"         // Why an inbound message was dropped

	// ========================================================================
	// Operation Metadata
	// ========================================================================
	KeyDurationMs = "duration_ms" // Operation duration in milliseconds
	KeyError      = "error"       // Error message
	KeyErrorCode  = "error_code"  // Numeric error code
	KeyAttempt    = "attempt"     // Retry attempt number
	KeyMaxRetries = "max_retries" // Maximum retry attempts
)

// ----------------------------------------------------------------------------
// Distributed Tracing
// ----------------------------------------------------------------------------

// TraceID returns a slog.Attr for OpenTelemetry trace ID
func TraceID(id string) slog.Attr {
	return slog.String(KeyTraceID, id)
}

// SpanID returns a slog.Attr for OpenTelemetry span ID
func SpanID(id string) slog.Attr {
	return slog.String(KeySpanID, id)
}

// ----------------------------------------------------------------------------
// Request Correlation
// ----------------------------------------------------------------------------

// CorrelationID returns a slog.Attr for a client operation correlation id.
func CorrelationID(id string) slog.Attr {
	return slog.String(KeyCorrelationID, id)
}

// TaskID returns a slog.Attr for a registry task id.
func TaskID(id string) slog.Attr {
	return slog.String(KeyTaskID, id)
}

// MessageID returns a slog.Attr for a wire envelope message id.
func MessageID(id string) slog.Attr {
	return slog.String(KeyMessageID, id)
}

// ----------------------------------------------------------------------------
// Envelope / Dispatch
// ----------------------------------------------------------------------------

// Action returns a slog.Attr for a dispatched operation's action name.
func Action(name string) slog.Attr {
	return slog.String(KeyAction, name)
}

// SourcePersona returns a slog.Attr for an envelope's source persona.
func SourcePersona(name string) slog.Attr {
	return slog.String(KeySourcePersona, name)
}

// DestinationPersona returns a slog.Attr for an envelope's destination persona.
func DestinationPersona(name string) slog.Attr {
	return slog.String(KeyDestinationPersona, name)
}

// DropReason returns a slog.Attr for why the demultiplexer dropped an
// inbound message.
func DropReason(reason string) slog.Attr {
	return slog.String(KeyDropReason, reason)
}

// ----------------------------------------------------------------------------
// Operation Metadata
// ----------------------------------------------------------------------------

// DurationMs returns a slog.Attr for duration in milliseconds
func DurationMs(ms float64) slog.Attr {
	return slog.Float64(KeyDurationMs, ms)
}

// Err returns a slog.Attr for an error
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}

// ErrorCode returns a slog.Attr for numeric error code
func ErrorCode(code int) slog.Attr {
	return slog.Int(KeyErrorCode, code)
}

// Attempt returns a slog.Attr for retry attempt number
func Attempt(n int) slog.Attr {
	return slog.Int(KeyAttempt, n)
}

// MaxRetries returns a slog.Attr for maximum retry attempts
func MaxRetries(n int) slog.Attr {
	return slog.Int(KeyMaxRetries, n)
}
