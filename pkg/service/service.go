// Package service implements the inbound demultiplexer: the single entry
// point every routing-layer delivery callback lands in. It parses the
// envelope header, verifies the destination persona addresses this client,
// looks up the handler for (action, source persona), typed-parses the
// payload into the expected reply type, and re-injects it into the
// matching pkg/registry.Registry by message/task id.
package service

import (
	"context"

	"github.com/marmos91/maidnode/internal/logger"
	"github.com/marmos91/maidnode/internal/telemetry"
	"github.com/marmos91/maidnode/pkg/envelope"
	"github.com/marmos91/maidnode/pkg/ids"
	"github.com/marmos91/maidnode/pkg/payload"
	"github.com/marmos91/maidnode/pkg/registry"
)

// Registries bundles the four payload-family registries a Demultiplexer
// routes replies into, one per reply payload type in the operation
// catalog. A process that exposes only the read-only DataGetter
// façade constructs a Registries with CodeReplies/HealthReplies left nil;
// HandleMessage panics if an inbound message needs a registry that is not
// wired, since a nil registry here is a construction bug, not a runtime
// condition.
type Registries struct {
	GetReplies     *registry.Registry[payload.DataNameAndContentOrReturnCode]
	VersionReplies *registry.Registry[payload.StructuredDataNameAndContentOrReturnCode]
	CodeReplies    *registry.Registry[payload.ReturnCode]
	HealthReplies  *registry.Registry[payload.PmidHealth]
}

// Demultiplexer is the inbound half of one client façade (MaidNode or
// DataGetter). Its HandleMessage method is the install-once delivery hook
// handed to the Router collaborator.
type Demultiplexer struct {
	self    envelope.Persona
	regs    Registries
	sink    Sink
	mapping *envelope.Mapping
}

// Sink receives a count of every inbound message this Demultiplexer drops,
// tagged with the reason. Registered via SetSink; a Demultiplexer with no
// sink set uses a no-op implementation.
type Sink interface {
	IncDropped(reason string)
}

type noopSink struct{}

func (noopSink) IncDropped(string) {}

// New constructs a Demultiplexer for self's persona, routing parsed replies
// into regs.
func New(self envelope.Persona, regs Registries) *Demultiplexer {
	return &Demultiplexer{self: self, regs: regs, sink: noopSink{}, mapping: envelope.DefaultMapping()}
}

// SetWireMapping installs the injected persona/action wire-constant mapping
// inbound envelopes are parsed under, for interop with a vault side whose
// wire bytes differ from this module's defaults. Passing nil restores the
// identity mapping. Install-once, before the Demultiplexer is wired as the
// router's delivery hook.
func (d *Demultiplexer) SetWireMapping(m *envelope.Mapping) {
	if m == nil {
		m = envelope.DefaultMapping()
	}
	d.mapping = m
}

// SetSink installs sink to receive this Demultiplexer's drop counts.
// Passing nil restores the default no-op sink.
func (d *Demultiplexer) SetSink(sink Sink) {
	if sink == nil {
		sink = noopSink{}
	}
	d.sink = sink
}

// expectedSourcePersona mirrors pkg/dispatch's destPersona table: the vault
// persona a given action's reply must originate from. Declared locally
// rather than imported from pkg/dispatch to keep the inbound and outbound
// halves of the core independently constructible (a process may run a
// Demultiplexer without a Dispatcher, e.g. a pure reply-sink test harness).
var expectedSourcePersona = map[envelope.Action]envelope.Persona{
	envelope.ActionGet:            envelope.PersonaDataManager,
	envelope.ActionFetchIdentity:  envelope.PersonaDataManager,
	envelope.ActionGetVersions:    envelope.PersonaVersionManager,
	envelope.ActionGetBranch:      envelope.PersonaVersionManager,
	envelope.ActionPutVersion:     envelope.PersonaMaidManager,
	envelope.ActionCreateAccount:  envelope.PersonaMaidManager,
	envelope.ActionRemoveAccount:  envelope.PersonaMaidManager,
	envelope.ActionRegisterPmid:   envelope.PersonaMaidManager,
	envelope.ActionUnregisterPmid: envelope.PersonaMaidManager,
	envelope.ActionGetPmidHealth:  envelope.PersonaPmidManager,
}

// HandleMessage is the Router's inbound delivery hook. Its state machine
// per message is flat: parsed, then either dispatched into a registry or
// dropped. It never panics on caller input and never returns an error to
// the caller; every failure mode here is a soft drop, logged. (It does
// panic on a misconfigured Registries, which is a construction bug rather
// than a condition arising from network input.)
func (d *Demultiplexer) HandleMessage(data []byte, sender ids.NodeId, receiver envelope.Receiver) {
	ctx, span := telemetry.StartSpan(context.Background(), "maidnode.service.handle_message")
	defer span.End()

	hdr, err := d.mapping.Parse(data)
	if err != nil {
		d.sink.IncDropped("parse_error")
		logger.WarnCtx(ctx, "service: dropping unparsable envelope", "sender", sender.String(), "error", err)
		return
	}

	if hdr.DestinationPersona != d.self {
		d.sink.IncDropped("misaddressed")
		logger.WarnCtx(ctx, "service: dropping misaddressed envelope",
			"action", hdr.Action.String(), "message_id", hdr.MessageId.String(),
			"destination_persona", hdr.DestinationPersona.String(), "local_persona", d.self.String())
		return
	}

	expected, known := expectedSourcePersona[hdr.Action]
	if !known || hdr.SourcePersona != expected {
		d.sink.IncDropped("source_persona_mismatch")
		logger.WarnCtx(ctx, "service: dropping envelope from unexpected source persona",
			"action", hdr.Action.String(), "message_id", hdr.MessageId.String(),
			"source_persona", hdr.SourcePersona.String())
		return
	}

	taskID := ids.TaskId(hdr.MessageId)

	switch hdr.Action {
	case envelope.ActionGet, envelope.ActionFetchIdentity:
		d.routeGetReply(ctx, taskID, hdr)
	case envelope.ActionGetVersions, envelope.ActionGetBranch:
		d.routeVersionReply(ctx, taskID, hdr)
	case envelope.ActionPutVersion, envelope.ActionCreateAccount, envelope.ActionRemoveAccount,
		envelope.ActionRegisterPmid, envelope.ActionUnregisterPmid:
		d.routeCodeReply(ctx, taskID, hdr)
	case envelope.ActionGetPmidHealth:
		d.routeHealthReply(ctx, taskID, hdr)
	default:
		logger.WarnCtx(ctx, "service: dropping envelope with unhandled action", "action", hdr.Action.String())
	}
}

func (d *Demultiplexer) routeGetReply(ctx context.Context, taskID ids.TaskId, hdr envelope.Header) {
	if d.regs.GetReplies == nil {
		panic("service: GetReplies registry not wired")
	}
	reply, err := payload.ParseDataNameAndContentOrReturnCode(hdr.Payload)
	if err != nil {
		d.sink.IncDropped("reply_parse_error")
		logger.WarnCtx(ctx, "service: dropping unparsable Get reply", "task_id", taskID.String(), "error", err)
		return
	}
	d.regs.GetReplies.AddResponse(taskID, reply)
}

func (d *Demultiplexer) routeVersionReply(ctx context.Context, taskID ids.TaskId, hdr envelope.Header) {
	if d.regs.VersionReplies == nil {
		panic("service: VersionReplies registry not wired")
	}
	reply, err := payload.ParseStructuredDataNameAndContentOrReturnCode(hdr.Payload)
	if err != nil {
		d.sink.IncDropped("reply_parse_error")
		logger.WarnCtx(ctx, "service: dropping unparsable version reply", "task_id", taskID.String(), "error", err)
		return
	}
	d.regs.VersionReplies.AddResponse(taskID, reply)
}

func (d *Demultiplexer) routeCodeReply(ctx context.Context, taskID ids.TaskId, hdr envelope.Header) {
	if d.regs.CodeReplies == nil {
		panic("service: CodeReplies registry not wired")
	}
	reply, err := payload.ParseReturnCode(hdr.Payload)
	if err != nil {
		d.sink.IncDropped("reply_parse_error")
		logger.WarnCtx(ctx, "service: dropping unparsable return-code reply", "task_id", taskID.String(), "error", err)
		return
	}
	d.regs.CodeReplies.AddResponse(taskID, reply)
}

func (d *Demultiplexer) routeHealthReply(ctx context.Context, taskID ids.TaskId, hdr envelope.Header) {
	if d.regs.HealthReplies == nil {
		panic("service: HealthReplies registry not wired")
	}
	reply, err := payload.ParsePmidHealth(hdr.Payload)
	if err != nil {
		d.sink.IncDropped("reply_parse_error")
		logger.WarnCtx(ctx, "service: dropping unparsable health reply", "task_id", taskID.String(), "error", err)
		return
	}
	d.regs.HealthReplies.AddResponse(taskID, reply)
}
