package client_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/maidnode/pkg/client"
	"github.com/marmos91/maidnode/pkg/config"
	"github.com/marmos91/maidnode/pkg/envelope"
	"github.com/marmos91/maidnode/pkg/identity"
	"github.com/marmos91/maidnode/pkg/ids"
	"github.com/marmos91/maidnode/pkg/merrors"
	"github.com/marmos91/maidnode/pkg/payload"
	"github.com/marmos91/maidnode/pkg/service"
)

func mkIdentity(b byte) ids.Identity {
	var id ids.Identity
	for i := range id {
		id[i] = b
	}
	return id
}

// fakeRouter stands in for the overlay routing layer: Send hands the
// envelope straight to onSend, which — in these tests — turns around and
// feeds reply envelopes back into the façade's own Demultiplexer, exactly
// as a routing-layer delivery callback would.
type fakeRouter struct {
	mu     sync.Mutex
	onSend func(taskID ids.TaskId)
}

func (r *fakeRouter) Send(_ context.Context, env envelope.Envelope) error {
	r.mu.Lock()
	onSend := r.onSend
	r.mu.Unlock()
	if onSend != nil {
		onSend(ids.TaskId(env.MessageId))
	}
	return nil
}

func (r *fakeRouter) setOnSend(f func(taskID ids.TaskId)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onSend = f
}

func buildGetReply(t *testing.T, destPersona envelope.Persona, taskID ids.TaskId, reply payload.DataNameAndContentOrReturnCode) []byte {
	t.Helper()
	raw, err := reply.Serialise()
	require.NoError(t, err)
	env := envelope.Envelope{
		Action:             envelope.ActionGet,
		SourcePersona:      envelope.PersonaDataManager,
		DestinationPersona: destPersona,
		MessageId:          ids.MessageId(taskID),
		Payload:            raw,
	}
	data, err := env.Serialise()
	require.NoError(t, err)
	return data
}

func successReply(name payload.DataName, content string) payload.DataNameAndContentOrReturnCode {
	return payload.DataNameAndContentOrReturnCode{
		Content: &payload.DataNameAndContent{Name: name, Content: []byte(content)},
	}
}

func errorReply(v payload.ErrorValue) payload.DataNameAndContentOrReturnCode {
	return payload.DataNameAndContentOrReturnCode{Code: &payload.ReturnCode{Value: v}}
}

func newTestDataGetter(t *testing.T, routing config.RoutingConfig) (*client.DataGetter, *service.Demultiplexer, *fakeRouter) {
	t.Helper()
	router := &fakeRouter{}
	sender := ids.NodeId(mkIdentity(0x01))
	dg, demux := client.NewDataGetter(router, envelope.PersonaDataGetter, sender, routing)
	dg.Start(context.Background())
	t.Cleanup(dg.Stop)
	return dg, demux, router
}

// A single reply resolves the future even though expected_count is far
// larger, because successes_required is fixed at 1.
func TestGetQuickSuccess(t *testing.T) {
	dg, demux, router := newTestDataGetter(t, config.RoutingConfig{GroupSize: 4, DefaultTimeout: time.Second})
	name := payload.DataName{Type: uint32(ids.DataTagImmutable), RawName: mkIdentity(0x20)}

	router.setOnSend(func(taskID ids.TaskId) {
		data := buildGetReply(t, envelope.PersonaDataGetter, taskID, successReply(name, "hello"))
		demux.HandleMessage(data, ids.NodeId(mkIdentity(0x30)), envelope.Receiver{})
	})

	got, err := dg.Get(context.Background(), name)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), got.Content)
	assert.Equal(t, 0, dg.Stats()["get"])
}

// Five copies of the same successful reply arrive; the op completes on
// the first and the remaining four are silently dropped.
func TestGetDuplicateRepliesCompleteOnFirst(t *testing.T) {
	dg, demux, router := newTestDataGetter(t, config.RoutingConfig{GroupSize: 4, DefaultTimeout: time.Second})
	name := payload.DataName{Type: uint32(ids.DataTagImmutable), RawName: mkIdentity(0x21)}

	router.setOnSend(func(taskID ids.TaskId) {
		data := buildGetReply(t, envelope.PersonaDataGetter, taskID, successReply(name, "hello"))
		for i := 0; i < 5; i++ {
			demux.HandleMessage(data, ids.NodeId(mkIdentity(0x30)), envelope.Receiver{})
		}
	})

	got, err := dg.Get(context.Background(), name)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), got.Content)
}

// No success ever lands; after expected_count (8) replies, the
// most-frequent error wins.
func TestGetMajorityErrorFallback(t *testing.T) {
	dg, demux, router := newTestDataGetter(t, config.RoutingConfig{GroupSize: 4, DefaultTimeout: time.Second})
	name := payload.DataName{Type: uint32(ids.DataTagImmutable), RawName: mkIdentity(0x22)}

	sequence := []payload.ErrorValue{
		payload.ErrValueNoSuchElement, payload.ErrValueInvalidParameter,
		payload.ErrValueNoSuchElement, payload.ErrValueInvalidParameter,
		payload.ErrValueNoSuchElement, payload.ErrValueInvalidParameter,
		payload.ErrValueInvalidParameter, payload.ErrValueInvalidParameter,
	}
	router.setOnSend(func(taskID ids.TaskId) {
		for _, v := range sequence {
			data := buildGetReply(t, envelope.PersonaDataGetter, taskID, errorReply(v))
			demux.HandleMessage(data, ids.NodeId(mkIdentity(0x30)), envelope.Receiver{})
		}
	})

	_, err := dg.Get(context.Background(), name)
	require.Error(t, err)
	assert.Equal(t, merrors.ErrInvalidParameter, merrors.CodeOf(err))
}

// Frequencies end tied 2/2; the code that first reached 2 wins.
func TestGetTieBreakFirstToReachWinningFrequency(t *testing.T) {
	dg, demux, router := newTestDataGetter(t, config.RoutingConfig{GroupSize: 2, DefaultTimeout: time.Second})
	name := payload.DataName{Type: uint32(ids.DataTagImmutable), RawName: mkIdentity(0x23)}

	sequence := []payload.ErrorValue{
		payload.ErrValueNoSuchElement, payload.ErrValueInvalidParameter,
		payload.ErrValueNoSuchElement, payload.ErrValueInvalidParameter,
	}
	router.setOnSend(func(taskID ids.TaskId) {
		for _, v := range sequence {
			data := buildGetReply(t, envelope.PersonaDataGetter, taskID, errorReply(v))
			demux.HandleMessage(data, ids.NodeId(mkIdentity(0x30)), envelope.Receiver{})
		}
	})

	_, err := dg.Get(context.Background(), name)
	require.Error(t, err)
	assert.Equal(t, merrors.ErrNoSuchElement, merrors.CodeOf(err))
}

// No replies arrive before the deadline, so the sink is fulfilled with
// Timeout; a reply delivered after completion is dropped without effect.
func TestGetTimeout(t *testing.T) {
	dg, demux, router := newTestDataGetter(t, config.RoutingConfig{GroupSize: 4, DefaultTimeout: 5 * time.Millisecond})
	name := payload.DataName{Type: uint32(ids.DataTagImmutable), RawName: mkIdentity(0x24)}

	var lastTaskID ids.TaskId
	router.setOnSend(func(taskID ids.TaskId) { lastTaskID = taskID })

	_, err := dg.Get(context.Background(), name)
	require.Error(t, err)
	assert.Equal(t, merrors.ErrTimeout, merrors.CodeOf(err))

	late := buildGetReply(t, envelope.PersonaDataGetter, lastTaskID, successReply(name, "too late"))
	assert.NotPanics(t, func() {
		demux.HandleMessage(late, ids.NodeId(mkIdentity(0x30)), envelope.Receiver{})
	})
}

// A misaddressed reply is logged and dropped without disturbing the
// pending op, which then completes normally once the correctly addressed
// reply arrives.
func TestGetPersonaMismatchDropped(t *testing.T) {
	dg, demux, router := newTestDataGetter(t, config.RoutingConfig{GroupSize: 4, DefaultTimeout: time.Second})
	name := payload.DataName{Type: uint32(ids.DataTagImmutable), RawName: mkIdentity(0x25)}

	router.setOnSend(func(taskID ids.TaskId) {
		misaddressed := buildGetReply(t, envelope.PersonaMaidManager, taskID, successReply(name, "wrong persona"))
		demux.HandleMessage(misaddressed, ids.NodeId(mkIdentity(0x30)), envelope.Receiver{})

		correct := buildGetReply(t, envelope.PersonaDataGetter, taskID, successReply(name, "right persona"))
		demux.HandleMessage(correct, ids.NodeId(mkIdentity(0x30)), envelope.Receiver{})
	})

	got, err := dg.Get(context.Background(), name)
	require.NoError(t, err)
	assert.Equal(t, []byte("right persona"), got.Content)
}

func newTestMaidNode(t *testing.T, routing config.RoutingConfig) (*client.MaidNode, *service.Demultiplexer, *fakeRouter) {
	t.Helper()
	router := &fakeRouter{}
	id, err := identity.New(ids.NodeId(mkIdentity(0x02)), make([]byte, 32), "test", time.Minute)
	require.NoError(t, err)
	mn, demux := client.NewMaidNode(router, id, routing)
	mn.Start(context.Background())
	t.Cleanup(mn.Stop)
	return mn, demux, router
}

// TestCreateAccountQuickSuccess exercises the bare-ReturnCode reply family
// (codeResult) through the full read-write façade with the same fixed
// success quorum as the read-only path.
func TestCreateAccountQuickSuccess(t *testing.T) {
	mn, demux, router := newTestMaidNode(t, config.RoutingConfig{GroupSize: 4, DefaultTimeout: time.Second})

	router.setOnSend(func(taskID ids.TaskId) {
		raw, err := payload.OK().Serialise()
		require.NoError(t, err)
		env := envelope.Envelope{
			Action:             envelope.ActionCreateAccount,
			SourcePersona:      envelope.PersonaMaidManager,
			DestinationPersona: envelope.PersonaMaidNode,
			MessageId:          ids.MessageId(taskID),
			Payload:            raw,
		}
		data, err := env.Serialise()
		require.NoError(t, err)
		demux.HandleMessage(data, ids.NodeId(mkIdentity(0x31)), envelope.Receiver{})
	})

	require.NoError(t, mn.CreateAccount(context.Background()))
}

// Put returns as soon as the router accepts the envelope, without
// registering any pending op.
func TestPutIsFireAndForget(t *testing.T) {
	mn, _, router := newTestMaidNode(t, config.RoutingConfig{GroupSize: 4, DefaultTimeout: time.Second})

	sent := make(chan struct{}, 1)
	router.setOnSend(func(ids.TaskId) { sent <- struct{}{} })

	name := payload.DataName{Type: uint32(ids.DataTagImmutable), RawName: mkIdentity(0x26)}
	content := payload.DataNameAndContent{Name: name, Content: []byte("stored")}
	require.NoError(t, mn.Put(context.Background(), content, mkIdentity(0x27)))

	select {
	case <-sent:
	case <-time.After(time.Second):
		t.Fatal("router never saw the Put envelope")
	}
	assert.Equal(t, 0, mn.Stats()["code"], "Put must not register a pending op")
}
