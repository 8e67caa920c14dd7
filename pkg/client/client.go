// Package client implements the two public façades: DataGetter, a
// read-only collaborator over Get, GetVersions, GetBranch and
// FetchIdentity; and MaidNode, which embeds a DataGetter and adds the full
// read-write operation catalog plus the signing identity needed to stamp
// Pmid registration requests.
//
// Each operation allocates a task against the registry for its reply
// family, dispatches the matching Send<Op>, and translates the resulting
// Future into a typed result or a *merrors.OpError.
package client

import (
	"context"

	"github.com/google/uuid"

	"github.com/marmos91/maidnode/internal/logger"
	"github.com/marmos91/maidnode/internal/telemetry"
	"github.com/marmos91/maidnode/pkg/aggregate"
	"github.com/marmos91/maidnode/pkg/config"
	"github.com/marmos91/maidnode/pkg/dispatch"
	"github.com/marmos91/maidnode/pkg/envelope"
	"github.com/marmos91/maidnode/pkg/identity"
	"github.com/marmos91/maidnode/pkg/ids"
	"github.com/marmos91/maidnode/pkg/merrors"
	"github.com/marmos91/maidnode/pkg/payload"
	"github.com/marmos91/maidnode/pkg/registry"
	"github.com/marmos91/maidnode/pkg/service"
)

// withOperation opens a client-level tracing span for one public operation
// and stamps it with a request-scoped correlation id, distinct from the
// wire TaskId a registry assigns: the TaskId only correlates a single
// group request's replies, while the correlation id ties every log line
// and span an operation touches (dispatch, demultiplex, aggregate) back to
// the call a caller made. The dispatcher's per-send span nests inside this
// outer, per-call one.
func withOperation(ctx context.Context, action envelope.Action) (context.Context, func(*error)) {
	ctx, span := telemetry.StartClientSpan(ctx, action.String())
	correlationID := uuid.NewString()
	telemetry.SetAttributes(ctx, telemetry.CorrelationID(correlationID))
	ctx = logger.WithContext(ctx, logger.NewLogContext(correlationID, action.String()))
	logger.DebugCtx(ctx, "client: operation starting")
	return ctx, func(errp *error) {
		if errp != nil && *errp != nil {
			telemetry.RecordError(ctx, *errp)
		}
		span.End()
	}
}

// successesRequired is the success quorum every façade operation registers
// its pending op with. The replica group has already converged before it
// answers, so the first success settles the result; this is a tiebreak
// against stragglers and stale replicas, not a majority vote.
const successesRequired = 1

var (
	getClassifier = aggregate.Classifier[payload.DataNameAndContentOrReturnCode]{
		IsSuccess: payload.DataNameAndContentOrReturnCode.IsSuccess,
		ErrorCode: payload.DataNameAndContentOrReturnCode.ErrorCode,
	}
	versionClassifier = aggregate.Classifier[payload.StructuredDataNameAndContentOrReturnCode]{
		IsSuccess: payload.StructuredDataNameAndContentOrReturnCode.IsSuccess,
		ErrorCode: payload.StructuredDataNameAndContentOrReturnCode.ErrorCode,
	}
	codeClassifier = aggregate.Classifier[payload.ReturnCode]{
		IsSuccess: payload.ReturnCode.IsSuccess,
		ErrorCode: payload.ReturnCode.ErrorCode,
	}
	healthClassifier = aggregate.Classifier[payload.PmidHealth]{
		// A PmidHealth reply carries no failure arm of its own; any reply that
		// parsed successfully counts as success, matching the wire contract
		// that a health report is always well-formed content, never a
		// ReturnCode in disguise.
		IsSuccess: func(payload.PmidHealth) bool { return true },
		ErrorCode: func(payload.PmidHealth) merrors.Code { return merrors.ErrUnknown },
	}
)

// DataGetter is the read-only façade: it never signs or mutates, and so
// needs no identity.Identity. It is safe for concurrent use.
type DataGetter struct {
	dispatcher *dispatch.Dispatcher
	routing    config.RoutingConfig

	getReplies     *registry.Registry[payload.DataNameAndContentOrReturnCode]
	versionReplies *registry.Registry[payload.StructuredDataNameAndContentOrReturnCode]
}

// NewDataGetter constructs a DataGetter sending through router as self
// (PersonaMaidNode or PersonaDataGetter), addressed as sender, and returns
// it alongside the Demultiplexer the caller must wire to its Router's
// inbound delivery hook.
func NewDataGetter(router dispatch.Router, self envelope.Persona, sender ids.NodeId, routing config.RoutingConfig) (*DataGetter, *service.Demultiplexer) {
	getReplies := registry.New("DataNameAndContentOrReturnCode", getClassifier, 0)
	versionReplies := registry.New("StructuredDataNameAndContentOrReturnCode", versionClassifier, 0)

	dg := &DataGetter{
		dispatcher:     dispatch.New(router, self, sender),
		routing:        routing,
		getReplies:     getReplies,
		versionReplies: versionReplies,
	}
	demux := service.New(self, service.Registries{
		GetReplies:     getReplies,
		VersionReplies: versionReplies,
	})
	return dg, demux
}

// Start begins the background deadline sweep on every registry this façade
// owns. Callers must also call Stop on shutdown.
func (g *DataGetter) Start(ctx context.Context) {
	g.getReplies.Start(ctx)
	g.versionReplies.Start(ctx)
}

// Stop gracefully stops every registry's sweep goroutine.
func (g *DataGetter) Stop() {
	g.getReplies.Stop()
	g.versionReplies.Stop()
}

func (g *DataGetter) expectedCount() int { return g.routing.ExpectedCount() }

// Stats reports the number of currently pending operations per payload
// family, for the diagnostics server's /ops endpoint.
func (g *DataGetter) Stats() map[string]int {
	return map[string]int{
		"get":      g.getReplies.Len(),
		"versions": g.versionReplies.Len(),
	}
}

// SetMetricsSink installs sink on every registry this façade owns, so a
// single Prometheus-backed registry.Sink can export completion/timeout/
// occupancy metrics for every payload family. Passing nil restores each
// registry's default no-op sink.
func (g *DataGetter) SetMetricsSink(sink registry.Sink) {
	g.getReplies.SetSink(sink)
	g.versionReplies.SetSink(sink)
}

// Get fetches the content stored under name, waiting for a success quorum
// or the most-frequent-error fallback, whichever the registry settles on
// first.
func (g *DataGetter) Get(ctx context.Context, name payload.DataName) (result payload.DataNameAndContent, err error) {
	ctx, done := withOperation(ctx, envelope.ActionGet)
	defer func() { done(&err) }()

	timeout := g.routing.TimeoutFor(envelope.ActionGet.String())
	taskID, future := g.getReplies.AddTask(timeout, successesRequired, g.expectedCount())
	if err := g.dispatcher.SendGet(ctx, taskID, name); err != nil {
		g.getReplies.CancelTask(taskID)
		return payload.DataNameAndContent{}, err
	}
	reply, err := future.Wait(ctx)
	if err != nil {
		return payload.DataNameAndContent{}, err
	}
	if !reply.IsSuccess() {
		return payload.DataNameAndContent{}, merrors.New(reply.ErrorCode(), reply.Code.Detail)
	}
	return *reply.Content, nil
}

// FetchIdentity fetches an immutable identity artifact (e.g. a PublicPmid)
// addressed like Get, same fixed success quorum.
func (g *DataGetter) FetchIdentity(ctx context.Context, name payload.DataName) (result payload.DataNameAndContent, err error) {
	ctx, done := withOperation(ctx, envelope.ActionFetchIdentity)
	defer func() { done(&err) }()

	timeout := g.routing.TimeoutFor(envelope.ActionFetchIdentity.String())
	taskID, future := g.getReplies.AddTask(timeout, successesRequired, g.expectedCount())
	if err := g.dispatcher.SendFetchIdentity(ctx, taskID, name); err != nil {
		g.getReplies.CancelTask(taskID)
		return payload.DataNameAndContent{}, err
	}
	reply, err := future.Wait(ctx)
	if err != nil {
		return payload.DataNameAndContent{}, err
	}
	if !reply.IsSuccess() {
		return payload.DataNameAndContent{}, merrors.New(reply.ErrorCode(), reply.Code.Detail)
	}
	return *reply.Content, nil
}

// GetVersions resolves the full known version history of a structured data
// object.
func (g *DataGetter) GetVersions(ctx context.Context, name payload.DataName) (payload.StructuredDataVersions, error) {
	return g.resolveVersions(ctx, envelope.ActionGetVersions, func(taskID ids.TaskId) error {
		return g.dispatcher.SendGetVersions(ctx, taskID, name)
	})
}

// GetBranch resolves a single version's fork history.
func (g *DataGetter) GetBranch(ctx context.Context, name payload.DataName, version payload.Version) (payload.StructuredDataVersions, error) {
	return g.resolveVersions(ctx, envelope.ActionGetBranch, func(taskID ids.TaskId) error {
		return g.dispatcher.SendGetBranch(ctx, taskID, name, version)
	})
}

func (g *DataGetter) resolveVersions(ctx context.Context, action envelope.Action, send func(ids.TaskId) error) (result payload.StructuredDataVersions, err error) {
	ctx, done := withOperation(ctx, action)
	defer func() { done(&err) }()

	timeout := g.routing.TimeoutFor(action.String())
	taskID, future := g.versionReplies.AddTask(timeout, successesRequired, g.expectedCount())
	if err := send(taskID); err != nil {
		g.versionReplies.CancelTask(taskID)
		return payload.StructuredDataVersions{}, err
	}
	reply, err := future.Wait(ctx)
	if err != nil {
		return payload.StructuredDataVersions{}, err
	}
	if !reply.IsSuccess() {
		return payload.StructuredDataVersions{}, merrors.New(reply.ErrorCode(), reply.Code.Detail)
	}
	return *reply.Versions, nil
}

// MaidNode is the full read-write façade: every DataGetter operation plus
// Put, Delete, version mutation, account lifecycle, and Pmid registration
// and health operations. Construction requires a signing identity.Identity
// to stamp Register/UnregisterPmid requests.
type MaidNode struct {
	*DataGetter

	dispatcher *dispatch.Dispatcher
	identity   *identity.Identity
	routing    config.RoutingConfig

	codeReplies   *registry.Registry[payload.ReturnCode]
	healthReplies *registry.Registry[payload.PmidHealth]
}

// NewMaidNode constructs a MaidNode sending through router, addressed as
// id.Node(), and returns it alongside the Demultiplexer the caller must
// wire to its Router's inbound delivery hook.
func NewMaidNode(router dispatch.Router, id *identity.Identity, routing config.RoutingConfig) (*MaidNode, *service.Demultiplexer) {
	getReplies := registry.New("DataNameAndContentOrReturnCode", getClassifier, 0)
	versionReplies := registry.New("StructuredDataNameAndContentOrReturnCode", versionClassifier, 0)
	codeReplies := registry.New("ReturnCode", codeClassifier, 0)
	healthReplies := registry.New("PmidHealth", healthClassifier, 0)

	d := dispatch.New(router, envelope.PersonaMaidNode, id.Node())
	dg := &DataGetter{
		dispatcher:     d,
		routing:        routing,
		getReplies:     getReplies,
		versionReplies: versionReplies,
	}
	mn := &MaidNode{
		DataGetter:    dg,
		dispatcher:    d,
		identity:      id,
		routing:       routing,
		codeReplies:   codeReplies,
		healthReplies: healthReplies,
	}
	demux := service.New(envelope.PersonaMaidNode, service.Registries{
		GetReplies:     getReplies,
		VersionReplies: versionReplies,
		CodeReplies:    codeReplies,
		HealthReplies:  healthReplies,
	})
	return mn, demux
}

// Stats reports the number of currently pending operations per payload
// family, including the embedded DataGetter's, for the diagnostics
// server's /ops endpoint.
func (m *MaidNode) Stats() map[string]int {
	stats := m.DataGetter.Stats()
	stats["code"] = m.codeReplies.Len()
	stats["health"] = m.healthReplies.Len()
	return stats
}

// SetMetricsSink installs sink on every registry this façade owns,
// including the embedded DataGetter's.
func (m *MaidNode) SetMetricsSink(sink registry.Sink) {
	m.DataGetter.SetMetricsSink(sink)
	m.codeReplies.SetSink(sink)
	m.healthReplies.SetSink(sink)
}

// Start begins the background deadline sweep on every registry this façade
// owns, including the embedded DataGetter's.
func (m *MaidNode) Start(ctx context.Context) {
	m.DataGetter.Start(ctx)
	m.codeReplies.Start(ctx)
	m.healthReplies.Start(ctx)
}

// Stop gracefully stops every registry's sweep goroutine, including the
// embedded DataGetter's.
func (m *MaidNode) Stop() {
	m.DataGetter.Stop()
	m.codeReplies.Stop()
	m.healthReplies.Stop()
}

// codeResult waits for a ReturnCode reply, translating failure into a
// *merrors.OpError and success into nil.
func (m *MaidNode) codeResult(ctx context.Context, action envelope.Action, send func(ids.TaskId) error) (err error) {
	ctx, done := withOperation(ctx, action)
	defer func() { done(&err) }()

	timeout := m.routing.TimeoutFor(action.String())
	taskID, future := m.codeReplies.AddTask(timeout, successesRequired, m.routing.ExpectedCount())
	if err := send(taskID); err != nil {
		m.codeReplies.CancelTask(taskID)
		return err
	}
	reply, err := future.Wait(ctx)
	if err != nil {
		return err
	}
	if !reply.IsSuccess() {
		return merrors.New(reply.ErrorCode(), reply.Detail)
	}
	return nil
}

// Put stores data, hinting pmidHint as the preferred storage node. Put
// expects no reply: it returns once the router accepts the envelope for
// delivery, not once the vault has durably stored it.
func (m *MaidNode) Put(ctx context.Context, data payload.DataNameAndContent, pmidHint ids.Identity) (err error) {
	ctx, done := withOperation(ctx, envelope.ActionPut)
	defer func() { done(&err) }()
	return m.dispatcher.SendPut(ctx, payload.DataAndPmidHint{Data: data, PmidHint: pmidHint})
}

// Delete removes the data stored under name. Fire-and-forget, like Put.
func (m *MaidNode) Delete(ctx context.Context, name payload.DataName) (err error) {
	ctx, done := withOperation(ctx, envelope.ActionDelete)
	defer func() { done(&err) }()
	return m.dispatcher.SendDelete(ctx, name)
}

// PutVersion compares-and-swaps a structured data object's tip version.
func (m *MaidNode) PutVersion(ctx context.Context, name payload.DataName, oldVersion, newVersion payload.Version) error {
	return m.codeResult(ctx, envelope.ActionPutVersion, func(taskID ids.TaskId) error {
		return m.dispatcher.SendPutVersion(ctx, taskID, name, oldVersion, newVersion)
	})
}

// DeleteBranchUntilFork prunes a version branch back to its most recent
// fork point. Fire-and-forget.
func (m *MaidNode) DeleteBranchUntilFork(ctx context.Context, name payload.DataName, version payload.Version) (err error) {
	ctx, done := withOperation(ctx, envelope.ActionDeleteBranchUntilFork)
	defer func() { done(&err) }()
	return m.dispatcher.SendDeleteBranchUntilFork(ctx, name, version)
}

// CreateAccount registers this signing identity's address with the
// MaidManager group, the precondition for any Put/Delete to succeed.
func (m *MaidNode) CreateAccount(ctx context.Context) error {
	return m.codeResult(ctx, envelope.ActionCreateAccount, func(taskID ids.TaskId) error {
		return m.dispatcher.SendCreateAccount(ctx, taskID)
	})
}

// RemoveAccount withdraws this signing identity's account.
func (m *MaidNode) RemoveAccount(ctx context.Context) error {
	return m.codeResult(ctx, envelope.ActionRemoveAccount, func(taskID ids.TaskId) error {
		return m.dispatcher.SendRemoveAccount(ctx, taskID)
	})
}

// RegisterPmid offers pmidName as a storage node under this account,
// stamping the request with the signing identity before dispatch.
func (m *MaidNode) RegisterPmid(ctx context.Context, maidName, pmidName ids.Identity) error {
	stamp, err := m.identity.StampPmidRegistration(maidName, pmidName, false)
	if err != nil {
		return merrors.Wrap(merrors.ErrUnknown, "stamp pmid registration", err)
	}
	reg := payload.PmidRegistration{MaidName: maidName, PmidName: pmidName, SignedClaims: stamp}
	return m.codeResult(ctx, envelope.ActionRegisterPmid, func(taskID ids.TaskId) error {
		return m.dispatcher.SendRegisterPmid(ctx, taskID, reg)
	})
}

// UnregisterPmid withdraws a previously registered storage node offer.
func (m *MaidNode) UnregisterPmid(ctx context.Context, maidName, pmidName ids.Identity) error {
	stamp, err := m.identity.StampPmidRegistration(maidName, pmidName, true)
	if err != nil {
		return merrors.Wrap(merrors.ErrUnknown, "stamp pmid unregistration", err)
	}
	reg := payload.PmidRegistration{MaidName: maidName, PmidName: pmidName, Unregister: true, SignedClaims: stamp}
	return m.codeResult(ctx, envelope.ActionUnregisterPmid, func(taskID ids.TaskId) error {
		return m.dispatcher.SendUnregisterPmid(ctx, taskID, reg)
	})
}

// GetPmidHealth resolves pmidName's current health report.
func (m *MaidNode) GetPmidHealth(ctx context.Context, pmidName ids.Identity) (result payload.PmidHealth, err error) {
	ctx, done := withOperation(ctx, envelope.ActionGetPmidHealth)
	defer func() { done(&err) }()

	timeout := m.routing.TimeoutFor(envelope.ActionGetPmidHealth.String())
	taskID, future := m.healthReplies.AddTask(timeout, successesRequired, m.routing.ExpectedCount())
	if err := m.dispatcher.SendGetPmidHealth(ctx, taskID, pmidName); err != nil {
		m.healthReplies.CancelTask(taskID)
		return payload.PmidHealth{}, err
	}
	return future.Wait(ctx)
}
