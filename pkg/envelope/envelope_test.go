package envelope_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/maidnode/pkg/envelope"
	"github.com/marmos91/maidnode/pkg/ids"
	"github.com/marmos91/maidnode/pkg/merrors"
)

func TestEnvelopeRoundTrip(t *testing.T) {
	e := envelope.Envelope{
		Action:             envelope.ActionGet,
		SourcePersona:      envelope.PersonaMaidNode,
		DestinationPersona: envelope.PersonaDataManager,
		MessageId:          ids.MessageId(42),
		Payload:            []byte("payload bytes"),
	}
	data, err := e.Serialise()
	require.NoError(t, err)

	got, err := envelope.Parse(data)
	require.NoError(t, err)
	assert.Equal(t, e.Action, got.Action)
	assert.Equal(t, e.SourcePersona, got.SourcePersona)
	assert.Equal(t, e.DestinationPersona, got.DestinationPersona)
	assert.Equal(t, e.MessageId, got.MessageId)
	assert.Equal(t, e.Payload, got.Payload)
}

func TestEnvelopeParseRejectsTruncatedHeader(t *testing.T) {
	_, err := envelope.Parse([]byte{0x01})
	require.Error(t, err)
	assert.Equal(t, merrors.ErrParse, merrors.CodeOf(err))
}

func TestEnvelopeParseRejectsTruncatedPayload(t *testing.T) {
	e := envelope.Envelope{Action: envelope.ActionPut, MessageId: ids.MessageId(1), Payload: []byte("abcdef")}
	data, err := e.Serialise()
	require.NoError(t, err)
	_, err = envelope.Parse(data[:len(data)-4])
	require.Error(t, err)
	assert.Equal(t, merrors.ErrParse, merrors.CodeOf(err))
}

func TestReceiverNodeOrGroup(t *testing.T) {
	var n ids.NodeId
	n[0] = 0x01
	toNode := envelope.ToNode(n)
	assert.False(t, toNode.IsGroup())
	gotNode, ok := toNode.Node()
	assert.True(t, ok)
	assert.Equal(t, n, gotNode)
	_, ok = toNode.Group()
	assert.False(t, ok)

	var g ids.GroupId
	g[0] = 0x02
	toGroup := envelope.ToGroup(g)
	assert.True(t, toGroup.IsGroup())
	gotGroup, ok := toGroup.Group()
	assert.True(t, ok)
	assert.Equal(t, g, gotGroup)
}

func TestHintFor(t *testing.T) {
	assert.Equal(t, envelope.CacheGetCacheable, envelope.HintFor(envelope.ActionGet, ids.DataTagImmutable))
	assert.Equal(t, envelope.CachePutCacheable, envelope.HintFor(envelope.ActionPut, ids.DataTagImmutable))
	assert.Equal(t, envelope.CacheNone, envelope.HintFor(envelope.ActionGet, ids.DataTagStructured))
	assert.Equal(t, envelope.CacheNone, envelope.HintFor(envelope.ActionCreateAccount, ids.DataTagImmutable))
}

func TestMappingOverridesWireBytes(t *testing.T) {
	m, err := envelope.NewMapping(
		map[string]uint8{"MaidNode": 0x20, "DataManager": 0x21},
		map[string]uint8{"Get": 0x40},
	)
	require.NoError(t, err)

	e := envelope.Envelope{
		Action:             envelope.ActionGet,
		SourcePersona:      envelope.PersonaMaidNode,
		DestinationPersona: envelope.PersonaDataManager,
		MessageId:          ids.MessageId(7),
		Payload:            []byte("abc"),
	}
	data, err := m.Serialise(e)
	require.NoError(t, err)
	assert.Equal(t, byte(0x40), data[0])
	assert.Equal(t, byte(0x20), data[1])
	assert.Equal(t, byte(0x21), data[2])

	got, err := m.Parse(data)
	require.NoError(t, err)
	assert.Equal(t, e.Action, got.Action)
	assert.Equal(t, e.SourcePersona, got.SourcePersona)
	assert.Equal(t, e.DestinationPersona, got.DestinationPersona)
	assert.Equal(t, e.MessageId, got.MessageId)
	assert.Equal(t, e.Payload, got.Payload)
}

func TestMappingRejectsUnknownNames(t *testing.T) {
	_, err := envelope.NewMapping(map[string]uint8{"NoSuchPersona": 1}, nil)
	require.Error(t, err)

	_, err = envelope.NewMapping(nil, map[string]uint8{"NoSuchAction": 1})
	require.Error(t, err)
}

func TestMappingRejectsDuplicateWireValues(t *testing.T) {
	_, err := envelope.NewMapping(map[string]uint8{"MaidNode": 3}, nil)
	require.Error(t, err, "3 is already VersionManager's wire byte")

	_, err = envelope.NewMapping(nil, map[string]uint8{"Get": 1})
	require.Error(t, err, "1 is already Put's wire byte")
}

func TestMappingParseRejectsUnmappedWireBytes(t *testing.T) {
	e := envelope.Envelope{
		Action:             envelope.ActionGet,
		SourcePersona:      envelope.PersonaDataManager,
		DestinationPersona: envelope.PersonaMaidNode,
		MessageId:          ids.MessageId(9),
		Payload:            []byte("abc"),
	}
	data, err := e.Serialise()
	require.NoError(t, err)

	data[0] = 0xEE
	_, err = envelope.Parse(data)
	require.Error(t, err)
	assert.Equal(t, merrors.ErrParse, merrors.CodeOf(err))
}
