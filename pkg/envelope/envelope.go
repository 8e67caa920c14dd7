// Package envelope defines the routing message every dispatched operation
// and every inbound reply is wrapped in: a fixed header of (action, source
// persona, destination persona, message id) plus an opaque payload, and the
// sender/receiver addressing the routing layer carries alongside it.
package envelope

import (
	"github.com/marmos91/maidnode/pkg/ids"
)

// Receiver addresses either a single overlay node or a routing group; an
// envelope carries exactly one of the two, never both.
type Receiver struct {
	node  *ids.NodeId
	group *ids.GroupId
}

// ToNode builds a Receiver addressing a single overlay node.
func ToNode(n ids.NodeId) Receiver { return Receiver{node: &n} }

// ToGroup builds a Receiver addressing a routing group.
func ToGroup(g ids.GroupId) Receiver { return Receiver{group: &g} }

// IsGroup reports whether this receiver addresses a group rather than a
// single node.
func (r Receiver) IsGroup() bool { return r.group != nil }

// Node returns the addressed node and true, or the zero NodeId and false if
// this receiver addresses a group.
func (r Receiver) Node() (ids.NodeId, bool) {
	if r.node == nil {
		return ids.NodeId{}, false
	}
	return *r.node, true
}

// Group returns the addressed group and true, or the zero GroupId and false
// if this receiver addresses a single node.
func (r Receiver) Group() (ids.GroupId, bool) {
	if r.group == nil {
		return ids.GroupId{}, false
	}
	return *r.group, true
}

// Envelope is the unit of transport between this client and the overlay.
// Only the fields under the "wire header" comment are part of the
// serialized form Serialise/Parse round-trip; Sender/Receiver are the
// routing layer's own addressing, carried alongside the envelope rather
// than inside its wire header.
type Envelope struct {
	// --- wire header ---
	Action             Action
	SourcePersona      Persona
	DestinationPersona Persona
	MessageId          ids.MessageId
	Payload            []byte
	// --- routing layer addressing, not serialized by this package ---
	Sender   ids.NodeId
	Receiver Receiver
	// CachingHint advises the router whether replies to this envelope may
	// be served from or primed into an intermediate cache. Like
	// Sender/Receiver this is routing-layer metadata, not part of the
	// wire header: the core never reads it back.
	CachingHint CachingHint
}

var defaultMapping = DefaultMapping()

// Serialise encodes the envelope's wire header under the identity wire
// mapping: { action: u8, source_persona: u8, destination_persona: u8,
// message_id: u32, payload: opaque bytes }. Deployments interoperating with
// a vault side that pre-assigns different wire bytes serialize through an
// injected Mapping instead.
func (e Envelope) Serialise() ([]byte, error) {
	return defaultMapping.Serialise(e)
}

// Header is the subset of a parsed envelope the demultiplexer acts on
// before any payload-specific typed_parse runs.
type Header struct {
	Action             Action
	SourcePersona      Persona
	DestinationPersona Persona
	MessageId          ids.MessageId
	Payload            []byte
}

// Parse decodes an envelope's wire header from inbound bytes under the
// identity wire mapping. It returns ParseError on truncated or malformed
// input; it performs no persona or action validation beyond the mapping
// lookup. That is the demultiplexer's job.
func Parse(data []byte) (Header, error) {
	return defaultMapping.Parse(data)
}
