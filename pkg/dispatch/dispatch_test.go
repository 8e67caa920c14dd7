package dispatch_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/maidnode/pkg/dispatch"
	"github.com/marmos91/maidnode/pkg/envelope"
	"github.com/marmos91/maidnode/pkg/ids"
	"github.com/marmos91/maidnode/pkg/payload"
)

func mkIdentity(b byte) ids.Identity {
	var id ids.Identity
	for i := range id {
		id[i] = b
	}
	return id
}

// fakeRouter records the last envelope handed to Send, standing in for the
// overlay routing layer.
type fakeRouter struct {
	mu  sync.Mutex
	env envelope.Envelope
	n   int
}

func (r *fakeRouter) Send(_ context.Context, env envelope.Envelope) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.env = env
	r.n++
	return nil
}

func (r *fakeRouter) last() envelope.Envelope {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.env
}

func TestSendGetAddressesDataGroupAndCachesHint(t *testing.T) {
	router := &fakeRouter{}
	sender := ids.NodeId(mkIdentity(0x01))
	d := dispatch.New(router, envelope.PersonaDataGetter, sender)

	name := payload.DataName{Type: uint32(ids.DataTagImmutable), RawName: mkIdentity(0x42)}
	require.NoError(t, d.SendGet(context.Background(), ids.TaskId(7), name))

	env := router.last()
	assert.Equal(t, envelope.ActionGet, env.Action)
	assert.Equal(t, envelope.PersonaDataGetter, env.SourcePersona)
	assert.Equal(t, envelope.PersonaDataManager, env.DestinationPersona)
	assert.Equal(t, ids.MessageId(7), env.MessageId)
	assert.Equal(t, envelope.CacheGetCacheable, env.CachingHint)

	group, ok := env.Receiver.Group()
	require.True(t, ok, "Get must address a group, not a single node")
	assert.Equal(t, ids.GroupAround(ids.NodeFromIdentity(name.RawName)), group)

	got, err := payload.ParseDataName(env.Payload)
	require.NoError(t, err)
	assert.Equal(t, name, got)
}

func TestSendPutAddressesMaidManagerGroupAroundSender(t *testing.T) {
	router := &fakeRouter{}
	sender := ids.NodeId(mkIdentity(0x02))
	d := dispatch.New(router, envelope.PersonaMaidNode, sender)

	name := payload.DataName{Type: uint32(ids.DataTagImmutable), RawName: mkIdentity(0x43)}
	data := payload.DataAndPmidHint{
		Data:     payload.DataNameAndContent{Name: name, Content: []byte("hello")},
		PmidHint: mkIdentity(0x99),
	}
	require.NoError(t, d.SendPut(context.Background(), data))

	env := router.last()
	assert.Equal(t, envelope.ActionPut, env.Action)
	assert.Equal(t, envelope.PersonaMaidManager, env.DestinationPersona)
	assert.Equal(t, envelope.CachePutCacheable, env.CachingHint)

	group, ok := env.Receiver.Group()
	require.True(t, ok, "Put must address the MaidManager group, not a single node")
	assert.Equal(t, ids.GroupAround(sender), group)
}

func TestSendGetPmidHealthAddressesPmidManagerGroupAroundTarget(t *testing.T) {
	router := &fakeRouter{}
	sender := ids.NodeId(mkIdentity(0x03))
	d := dispatch.New(router, envelope.PersonaMaidNode, sender)

	pmidName := mkIdentity(0x55)
	require.NoError(t, d.SendGetPmidHealth(context.Background(), ids.TaskId(3), pmidName))

	env := router.last()
	assert.Equal(t, envelope.ActionGetPmidHealth, env.Action)
	assert.Equal(t, envelope.PersonaPmidManager, env.DestinationPersona)

	group, ok := env.Receiver.Group()
	require.True(t, ok)
	assert.Equal(t, ids.GroupAround(ids.NodeFromIdentity(pmidName)), group)
}

func TestSendWithNonMatchingSourcePersonaPanics(t *testing.T) {
	router := &fakeRouter{}
	sender := ids.NodeId(mkIdentity(0x04))
	// Put is only ever sent with source persona MaidNode; a DataGetter
	// façade dispatching it is a programmer error and must abort.
	d := dispatch.New(router, envelope.PersonaDataGetter, sender)

	name := payload.DataName{Type: uint32(ids.DataTagImmutable), RawName: mkIdentity(0x44)}
	data := payload.DataAndPmidHint{Data: payload.DataNameAndContent{Name: name, Content: []byte("x")}}
	assert.Panics(t, func() {
		_ = d.SendPut(context.Background(), data)
	})
}

func TestSendDeleteAddressesMaidManager(t *testing.T) {
	router := &fakeRouter{}
	sender := ids.NodeId(mkIdentity(0x05))
	d := dispatch.New(router, envelope.PersonaMaidNode, sender)

	name := payload.DataName{Type: uint32(ids.DataTagImmutable), RawName: mkIdentity(0x45)}
	require.NoError(t, d.SendDelete(context.Background(), name))

	env := router.last()
	assert.Equal(t, envelope.ActionDelete, env.Action)
	assert.Equal(t, envelope.PersonaMaidManager, env.DestinationPersona)
}
