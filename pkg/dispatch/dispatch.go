// Package dispatch implements the client-side message emitter: one method
// per logical operation, each of which fixes the correct source persona,
// resolves the destination group or node, builds and serializes the payload
// into a typed envelope, attaches the caching hint, and submits it to the
// injected Router. The Dispatcher never waits for and never sees replies;
// it holds no per-operation state.
package dispatch

import (
	"context"
	"sync/atomic"

	"github.com/marmos91/maidnode/internal/logger"
	"github.com/marmos91/maidnode/internal/telemetry"
	"github.com/marmos91/maidnode/pkg/envelope"
	"github.com/marmos91/maidnode/pkg/ids"
	"github.com/marmos91/maidnode/pkg/merrors"
	"github.com/marmos91/maidnode/pkg/payload"
)

// Dispatcher is the client-side message emitter for one façade persona
// (MaidNode or DataGetter). A process may hold one of each if it exposes
// both the read-only and full façades.
type Dispatcher struct {
	router Router
	self   envelope.Persona
	sender ids.NodeId

	fireAndForgetID atomic.Uint32
}

// New constructs a Dispatcher that stamps self as the source persona of
// every envelope it emits, and sender as the routing-layer address replies
// (and routed acknowledgements) come back to.
func New(router Router, self envelope.Persona, sender ids.NodeId) *Dispatcher {
	return &Dispatcher{router: router, self: self, sender: sender}
}

// nextFireAndForgetMessageID allocates a MessageId for an operation that
// expects no reply and therefore has no Registry-assigned TaskId to reuse.
// Collisions are harmless here: nothing keys off this id once sent.
func (d *Dispatcher) nextFireAndForgetMessageID() ids.MessageId {
	return ids.MessageId(d.fireAndForgetID.Add(1))
}

// dataReceiver resolves the group of overlay nodes responsible for name:
// the group whose rendezvous point is the name's raw content address.
func dataReceiver(name payload.DataName) envelope.Receiver {
	return envelope.ToGroup(ids.GroupAround(ids.NodeFromIdentity(name.RawName)))
}

// maidManagerReceiver resolves the fixed MaidManager group around this
// dispatcher's own signing-identity address, which owns this client's
// account state.
func (d *Dispatcher) maidManagerReceiver() envelope.Receiver {
	return envelope.ToGroup(ids.GroupAround(d.sender))
}

// pmidManagerReceiver resolves the PmidManager group around the target
// Pmid's own address — the health-reporting persona for that storage node.
func pmidManagerReceiver(pmidName ids.Identity) envelope.Receiver {
	return envelope.ToGroup(ids.GroupAround(ids.NodeFromIdentity(pmidName)))
}

// send finishes building env (sender, receiver already set by caller),
// serializes it, and hands it to the router inside a dispatch span.
func (d *Dispatcher) send(ctx context.Context, action envelope.Action, env envelope.Envelope) error {
	ctx, span := telemetry.StartDispatchSpan(ctx, action.String(), env.MessageId.String())
	defer span.End()

	if err := d.router.Send(ctx, env); err != nil {
		telemetry.RecordError(ctx, err)
		logger.ErrorCtx(ctx, "dispatch: send failed",
			"action", action.String(), "message_id", env.MessageId.String(), "error", err)
		return merrors.Wrap(merrors.ErrUnknown, "router send failed", err)
	}
	logger.DebugCtx(ctx, "dispatch: envelope sent",
		"action", action.String(), "message_id", env.MessageId.String(),
		"source_persona", env.SourcePersona.String(), "dest_persona", env.DestinationPersona.String())
	return nil
}

func (d *Dispatcher) buildEnvelope(mt messageType, messageID ids.MessageId, body payload.Record, receiver envelope.Receiver, hint envelope.CachingHint) (envelope.Envelope, error) {
	raw, err := body.Serialise()
	if err != nil {
		return envelope.Envelope{}, merrors.Wrap(merrors.ErrParse, "serialise payload", err)
	}
	return envelope.Envelope{
		Action:             mt.action,
		SourcePersona:      d.self,
		DestinationPersona: mt.destPersona,
		MessageId:          messageID,
		Payload:            raw,
		Sender:             d.sender,
		Receiver:           receiver,
		CachingHint:        hint,
	}, nil
}

// SendGet dispatches a Get request for name under taskID, to be matched
// against the eventual DataNameAndContentOrReturnCode reply by the caller's
// Registry.
func (d *Dispatcher) SendGet(ctx context.Context, taskID ids.TaskId, name payload.DataName) error {
	mt := checkSourcePersonaType(envelope.ActionGet, d.self)
	hint := envelope.HintFor(mt.action, name.Tag())
	env, err := d.buildEnvelope(mt, ids.MessageId(taskID), name, dataReceiver(name), hint)
	if err != nil {
		return err
	}
	return d.send(ctx, mt.action, env)
}

// SendFetchIdentity dispatches an identity-artifact fetch (e.g. a public
// Pmid), data-keyed like Get but surfaced as a distinct action.
func (d *Dispatcher) SendFetchIdentity(ctx context.Context, taskID ids.TaskId, name payload.DataName) error {
	mt := checkSourcePersonaType(envelope.ActionFetchIdentity, d.self)
	hint := envelope.HintFor(mt.action, name.Tag())
	env, err := d.buildEnvelope(mt, ids.MessageId(taskID), name, dataReceiver(name), hint)
	if err != nil {
		return err
	}
	return d.send(ctx, mt.action, env)
}

// SendPut dispatches a Put request; fire-and-forget.
func (d *Dispatcher) SendPut(ctx context.Context, data payload.DataAndPmidHint) error {
	mt := checkSourcePersonaType(envelope.ActionPut, d.self)
	hint := envelope.HintFor(mt.action, data.Data.Name.Tag())
	env, err := d.buildEnvelope(mt, d.nextFireAndForgetMessageID(), data, d.maidManagerReceiver(), hint)
	if err != nil {
		return err
	}
	return d.send(ctx, mt.action, env)
}

// SendDelete dispatches a Delete request; fire-and-forget.
func (d *Dispatcher) SendDelete(ctx context.Context, name payload.DataName) error {
	mt := checkSourcePersonaType(envelope.ActionDelete, d.self)
	env, err := d.buildEnvelope(mt, d.nextFireAndForgetMessageID(), name, d.maidManagerReceiver(), envelope.CacheNone)
	if err != nil {
		return err
	}
	return d.send(ctx, mt.action, env)
}

// SendGetVersions dispatches a GetVersions request under taskID.
func (d *Dispatcher) SendGetVersions(ctx context.Context, taskID ids.TaskId, name payload.DataName) error {
	mt := checkSourcePersonaType(envelope.ActionGetVersions, d.self)
	env, err := d.buildEnvelope(mt, ids.MessageId(taskID), name, dataReceiver(name), envelope.CacheNone)
	if err != nil {
		return err
	}
	return d.send(ctx, mt.action, env)
}

// SendGetBranch dispatches a GetBranch request under taskID, resolving a
// single version's fork history.
func (d *Dispatcher) SendGetBranch(ctx context.Context, taskID ids.TaskId, name payload.DataName, version payload.Version) error {
	mt := checkSourcePersonaType(envelope.ActionGetBranch, d.self)
	body := payload.DataNameAndVersion{Name: name, Version: version}
	env, err := d.buildEnvelope(mt, ids.MessageId(taskID), body, dataReceiver(name), envelope.CacheNone)
	if err != nil {
		return err
	}
	return d.send(ctx, mt.action, env)
}

// SendPutVersion dispatches a compare-and-swap of a structured data's tip
// version under taskID, expecting a ReturnCode reply.
func (d *Dispatcher) SendPutVersion(ctx context.Context, taskID ids.TaskId, name payload.DataName, oldVersion, newVersion payload.Version) error {
	mt := checkSourcePersonaType(envelope.ActionPutVersion, d.self)
	body := payload.DataNameOldNewVersion{Name: name, OldVersion: oldVersion, NewVersion: newVersion}
	env, err := d.buildEnvelope(mt, ids.MessageId(taskID), body, d.maidManagerReceiver(), envelope.CacheNone)
	if err != nil {
		return err
	}
	return d.send(ctx, mt.action, env)
}

// SendDeleteBranchUntilFork dispatches a branch-prune request; fire-and-forget.
func (d *Dispatcher) SendDeleteBranchUntilFork(ctx context.Context, name payload.DataName, version payload.Version) error {
	mt := checkSourcePersonaType(envelope.ActionDeleteBranchUntilFork, d.self)
	body := payload.DataNameAndVersion{Name: name, Version: version}
	env, err := d.buildEnvelope(mt, d.nextFireAndForgetMessageID(), body, d.maidManagerReceiver(), envelope.CacheNone)
	if err != nil {
		return err
	}
	return d.send(ctx, mt.action, env)
}

// SendCreateAccount dispatches a CreateAccount request under taskID.
func (d *Dispatcher) SendCreateAccount(ctx context.Context, taskID ids.TaskId) error {
	mt := checkSourcePersonaType(envelope.ActionCreateAccount, d.self)
	env, err := d.buildEnvelope(mt, ids.MessageId(taskID), payload.Empty{}, d.maidManagerReceiver(), envelope.CacheNone)
	if err != nil {
		return err
	}
	return d.send(ctx, mt.action, env)
}

// SendRemoveAccount dispatches a RemoveAccount request under taskID.
func (d *Dispatcher) SendRemoveAccount(ctx context.Context, taskID ids.TaskId) error {
	mt := checkSourcePersonaType(envelope.ActionRemoveAccount, d.self)
	env, err := d.buildEnvelope(mt, ids.MessageId(taskID), payload.Empty{}, d.maidManagerReceiver(), envelope.CacheNone)
	if err != nil {
		return err
	}
	return d.send(ctx, mt.action, env)
}

// SendRegisterPmid dispatches a Pmid storage-offer registration under taskID.
func (d *Dispatcher) SendRegisterPmid(ctx context.Context, taskID ids.TaskId, reg payload.PmidRegistration) error {
	mt := checkSourcePersonaType(envelope.ActionRegisterPmid, d.self)
	env, err := d.buildEnvelope(mt, ids.MessageId(taskID), reg, d.maidManagerReceiver(), envelope.CacheNone)
	if err != nil {
		return err
	}
	return d.send(ctx, mt.action, env)
}

// SendUnregisterPmid dispatches a Pmid storage-offer withdrawal under taskID.
func (d *Dispatcher) SendUnregisterPmid(ctx context.Context, taskID ids.TaskId, reg payload.PmidRegistration) error {
	mt := checkSourcePersonaType(envelope.ActionUnregisterPmid, d.self)
	env, err := d.buildEnvelope(mt, ids.MessageId(taskID), reg, d.maidManagerReceiver(), envelope.CacheNone)
	if err != nil {
		return err
	}
	return d.send(ctx, mt.action, env)
}

// SendGetPmidHealth dispatches a Pmid health request under taskID.
func (d *Dispatcher) SendGetPmidHealth(ctx context.Context, taskID ids.TaskId, pmidName ids.Identity) error {
	mt := checkSourcePersonaType(envelope.ActionGetPmidHealth, d.self)
	body := payload.DataName{Type: uint32(ids.DataTagPmid), RawName: pmidName}
	env, err := d.buildEnvelope(mt, ids.MessageId(taskID), body, pmidManagerReceiver(pmidName), envelope.CacheNone)
	if err != nil {
		return err
	}
	return d.send(ctx, mt.action, env)
}
