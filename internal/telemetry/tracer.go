package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys for request/response coordination spans, covering the
// envelope/registry vocabulary: task id, persona, action, quorum.
const (
	// ========================================================================
	// Correlation attributes
	// ========================================================================
	AttrCorrelationID = "correlation_id"
	AttrTaskID        = "task_id"
	AttrMessageID     = "message_id"

	// ========================================================================
	// Envelope attributes
	// ========================================================================
	AttrAction             = "action"
	AttrSourcePersona      = "source_persona"
	AttrDestinationPersona = "destination_persona"
	AttrCachingHint        = "caching_hint"
	AttrDataTag            = "data_tag"

	// ========================================================================
	// Registry/aggregator attributes
	// ========================================================================
	AttrPayloadFamily     = "payload_family"
	AttrSuccessesRequired = "successes_required"
	AttrExpectedCount     = "expected_count"
	AttrResponseCount     = "response_count"
	AttrViaFallback       = "via_fallback"
	AttrDropReason        = "drop_reason"
)

// Span names for the core's operations, named <component>.<operation>.
const (
	SpanClientPrefix     = "maidnode.client."
	SpanDispatchPrefix   = "maidnode.dispatch."
	SpanServiceHandle    = "maidnode.service.handle_message"
	SpanRegistryAddTask  = "maidnode.registry.add_task"
	SpanRegistryResponse = "maidnode.registry.add_response"
)

// CorrelationID returns an attribute for a client-operation correlation id.
func CorrelationID(id string) attribute.KeyValue {
	return attribute.String(AttrCorrelationID, id)
}

// TaskID returns an attribute for a registry task id.
func TaskID(id string) attribute.KeyValue {
	return attribute.String(AttrTaskID, id)
}

// MessageID returns an attribute for a wire envelope message id.
func MessageID(id string) attribute.KeyValue {
	return attribute.String(AttrMessageID, id)
}

// Action returns an attribute for the dispatched operation's action name.
func Action(name string) attribute.KeyValue {
	return attribute.String(AttrAction, name)
}

// SourcePersona returns an attribute for an envelope's source persona.
func SourcePersona(name string) attribute.KeyValue {
	return attribute.String(AttrSourcePersona, name)
}

// DestinationPersona returns an attribute for an envelope's destination persona.
func DestinationPersona(name string) attribute.KeyValue {
	return attribute.String(AttrDestinationPersona, name)
}

// CachingHint returns an attribute for the envelope's caching hint.
func CachingHint(hint string) attribute.KeyValue {
	return attribute.String(AttrCachingHint, hint)
}

// DataTag returns an attribute for a data name's family tag.
func DataTag(tag string) attribute.KeyValue {
	return attribute.String(AttrDataTag, tag)
}

// PayloadFamily returns an attribute for the reply payload family a registry
// instance tracks (e.g. "DataNameAndContentOrReturnCode").
func PayloadFamily(name string) attribute.KeyValue {
	return attribute.String(AttrPayloadFamily, name)
}

// SuccessesRequired returns an attribute for a pending op's quorum threshold.
func SuccessesRequired(n int) attribute.KeyValue {
	return attribute.Int(AttrSuccessesRequired, n)
}

// ExpectedCount returns an attribute for a pending op's total expected replies.
func ExpectedCount(n int) attribute.KeyValue {
	return attribute.Int(AttrExpectedCount, n)
}

// ResponseCount returns an attribute for the number of replies a pending op
// has collected so far.
func ResponseCount(n int) attribute.KeyValue {
	return attribute.Int(AttrResponseCount, n)
}

// ViaFallback returns an attribute recording whether a completion was
// reached via the most-frequent-error fallback rather than a success quorum.
func ViaFallback(v bool) attribute.KeyValue {
	return attribute.Bool(AttrViaFallback, v)
}

// DropReason returns an attribute for why the demultiplexer dropped an
// inbound message (parse_error, misaddressed, source_persona_mismatch,
// reply_parse_error).
func DropReason(reason string) attribute.KeyValue {
	return attribute.String(AttrDropReason, reason)
}

// StartClientSpan starts a span for one public client-façade operation.
func StartClientSpan(ctx context.Context, action string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := append([]attribute.KeyValue{Action(action)}, attrs...)
	return StartSpan(ctx, SpanClientPrefix+action, trace.WithAttributes(allAttrs...))
}

// StartDispatchSpan starts a span for one outbound envelope send.
func StartDispatchSpan(ctx context.Context, action string, messageID string) (context.Context, trace.Span) {
	return StartSpan(ctx, SpanDispatchPrefix+action, trace.WithAttributes(
		Action(action), MessageID(messageID),
	))
}
