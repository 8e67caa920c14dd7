package envelope

import (
	"bytes"
	"fmt"

	xdrutil "github.com/marmos91/maidnode/pkg/envelope/xdr"
	"github.com/marmos91/maidnode/pkg/ids"
	"github.com/marmos91/maidnode/pkg/merrors"
)

// Mapping translates between this module's Action/Persona constants and the
// wire-byte values an existing vault side pre-assigns to them. Interop
// requires these values be supplied by configuration rather than assumed, so
// the mapping is injected at the wire boundary (the transport's send path
// and the demultiplexer's parse path); everything between those two points
// works with the logical constants only.
//
// The zero-configuration mapping is the identity: each constant's own
// numeric value is its wire byte.
type Mapping struct {
	actionToWire  map[Action]uint8
	wireToAction  map[uint8]Action
	personaToWire map[Persona]uint8
	wireToPersona map[uint8]Persona
}

var knownActions = []Action{
	ActionGet, ActionPut, ActionDelete, ActionGetVersions, ActionGetBranch,
	ActionPutVersion, ActionDeleteBranchUntilFork, ActionCreateAccount,
	ActionRemoveAccount, ActionRegisterPmid, ActionUnregisterPmid,
	ActionGetPmidHealth, ActionFetchIdentity,
}

var knownPersonas = []Persona{
	PersonaMaidNode, PersonaMaidManager, PersonaDataManager,
	PersonaVersionManager, PersonaDataGetter, PersonaPmidManager,
}

// DefaultMapping returns the identity mapping over every known action and
// persona.
func DefaultMapping() *Mapping {
	m := &Mapping{
		actionToWire:  make(map[Action]uint8, len(knownActions)),
		wireToAction:  make(map[uint8]Action, len(knownActions)),
		personaToWire: make(map[Persona]uint8, len(knownPersonas)),
		wireToPersona: make(map[uint8]Persona, len(knownPersonas)),
	}
	for _, a := range knownActions {
		m.actionToWire[a] = uint8(a)
		m.wireToAction[uint8(a)] = a
	}
	for _, p := range knownPersonas {
		m.personaToWire[p] = uint8(p)
		m.wireToPersona[uint8(p)] = p
	}
	return m
}

// NewMapping builds a Mapping from the identity defaults plus the supplied
// overrides, keyed by the String() name of each persona/action (the shape
// pkg/config surfaces). It rejects unknown names and wire values assigned to
// more than one constant.
func NewMapping(personas, actions map[string]uint8) (*Mapping, error) {
	m := DefaultMapping()

	for name, wire := range personas {
		p, ok := personaByName(name)
		if !ok {
			return nil, fmt.Errorf("envelope: unknown persona %q in wire mapping", name)
		}
		m.personaToWire[p] = wire
	}
	for name, wire := range actions {
		a, ok := actionByName(name)
		if !ok {
			return nil, fmt.Errorf("envelope: unknown action %q in wire mapping", name)
		}
		m.actionToWire[a] = wire
	}

	m.wireToPersona = make(map[uint8]Persona, len(m.personaToWire))
	for p, wire := range m.personaToWire {
		if other, dup := m.wireToPersona[wire]; dup {
			return nil, fmt.Errorf("envelope: personas %s and %s both map to wire value %d", other, p, wire)
		}
		m.wireToPersona[wire] = p
	}
	m.wireToAction = make(map[uint8]Action, len(m.actionToWire))
	for a, wire := range m.actionToWire {
		if other, dup := m.wireToAction[wire]; dup {
			return nil, fmt.Errorf("envelope: actions %s and %s both map to wire value %d", other, a, wire)
		}
		m.wireToAction[wire] = a
	}
	return m, nil
}

func personaByName(name string) (Persona, bool) {
	for _, p := range knownPersonas {
		if p.String() == name {
			return p, true
		}
	}
	return 0, false
}

func actionByName(name string) (Action, bool) {
	for _, a := range knownActions {
		if a.String() == name {
			return a, true
		}
	}
	return 0, false
}

// Serialise encodes e's wire header with this mapping's byte assignments.
func (m *Mapping) Serialise(e Envelope) ([]byte, error) {
	actionWire, ok := m.actionToWire[e.Action]
	if !ok {
		return nil, merrors.New(merrors.ErrParse, fmt.Sprintf("envelope: no wire value for action %s", e.Action))
	}
	sourceWire, ok := m.personaToWire[e.SourcePersona]
	if !ok {
		return nil, merrors.New(merrors.ErrParse, fmt.Sprintf("envelope: no wire value for source persona %s", e.SourcePersona))
	}
	destWire, ok := m.personaToWire[e.DestinationPersona]
	if !ok {
		return nil, merrors.New(merrors.ErrParse, fmt.Sprintf("envelope: no wire value for destination persona %s", e.DestinationPersona))
	}

	var buf bytes.Buffer
	buf.WriteByte(actionWire)
	buf.WriteByte(sourceWire)
	buf.WriteByte(destWire)
	if err := xdrutil.WriteUint32(&buf, uint32(e.MessageId)); err != nil {
		return nil, err
	}
	if err := xdrutil.WriteOpaque(&buf, e.Payload); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Parse decodes an envelope's wire header, translating wire bytes back to
// logical constants. A wire byte outside the mapping is a ParseError: bytes
// this client cannot name carry no routable meaning, so the demultiplexer
// soft-drops them the same way it drops any other malformed envelope.
func (m *Mapping) Parse(data []byte) (Header, error) {
	if len(data) < 3 {
		return Header{}, merrors.New(merrors.ErrParse, "envelope: truncated header")
	}
	r := bytes.NewReader(data)

	actionByte, err := r.ReadByte()
	if err != nil {
		return Header{}, merrors.Wrap(merrors.ErrParse, "envelope: read action", err)
	}
	sourceByte, err := r.ReadByte()
	if err != nil {
		return Header{}, merrors.Wrap(merrors.ErrParse, "envelope: read source persona", err)
	}
	destByte, err := r.ReadByte()
	if err != nil {
		return Header{}, merrors.Wrap(merrors.ErrParse, "envelope: read destination persona", err)
	}
	messageID, err := xdrutil.DecodeUint32(r)
	if err != nil {
		return Header{}, merrors.Wrap(merrors.ErrParse, "envelope: read message id", err)
	}
	payload, err := xdrutil.DecodeOpaque(r)
	if err != nil {
		return Header{}, merrors.Wrap(merrors.ErrParse, "envelope: read payload", err)
	}

	action, ok := m.wireToAction[actionByte]
	if !ok {
		return Header{}, merrors.New(merrors.ErrParse, fmt.Sprintf("envelope: unmapped wire action %d", actionByte))
	}
	source, ok := m.wireToPersona[sourceByte]
	if !ok {
		return Header{}, merrors.New(merrors.ErrParse, fmt.Sprintf("envelope: unmapped wire source persona %d", sourceByte))
	}
	dest, ok := m.wireToPersona[destByte]
	if !ok {
		return Header{}, merrors.New(merrors.ErrParse, fmt.Sprintf("envelope: unmapped wire destination persona %d", destByte))
	}

	return Header{
		Action:             action,
		SourcePersona:      source,
		DestinationPersona: dest,
		MessageId:          ids.MessageId(messageID),
		Payload:            payload,
	}, nil
}
