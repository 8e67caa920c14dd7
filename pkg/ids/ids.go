// Package ids defines the identifier types shared across the maidnode
// request/response core: overlay node and group addresses, content/identity
// hashes, and the task/message correlators used to match replies to
// outstanding requests.
package ids

import (
	"encoding/hex"
	"fmt"
)

// IdentitySize is the width, in bytes, of an Identity (content address or
// public-key fingerprint) and of a NodeId (overlay network address).
const IdentitySize = 32

// Identity is a fixed-width cryptographic hash used as a content address or
// a public-key fingerprint.
type Identity [IdentitySize]byte

// String renders the identity as hex for logging.
func (id Identity) String() string {
	return hex.EncodeToString(id[:])
}

// IsZero reports whether the identity is the zero value.
func (id Identity) IsZero() bool {
	return id == Identity{}
}

// ParseIdentity decodes a hex-encoded identity, as loaded from config or
// supplied on the command line. It requires exactly IdentitySize bytes.
func ParseIdentity(s string) (Identity, error) {
	var id Identity
	b, err := hex.DecodeString(s)
	if err != nil {
		return id, fmt.Errorf("ids: invalid identity hex: %w", err)
	}
	if len(b) != IdentitySize {
		return id, fmt.Errorf("ids: identity must be %d bytes, got %d", IdentitySize, len(b))
	}
	copy(id[:], b)
	return id, nil
}

// NodeId is the fixed-width opaque address of a single overlay node.
type NodeId Identity

// String renders the node id as hex for logging.
func (n NodeId) String() string {
	return Identity(n).String()
}

// GroupId is a NodeId reinterpreted as the address of the closest-N group of
// nodes clustered around it. The routing layer resolves group membership;
// this type only carries the group's rendezvous address.
type GroupId Identity

// String renders the group id as hex for logging.
func (g GroupId) String() string {
	return Identity(g).String()
}

// GroupAround returns the GroupId whose rendezvous point is the given NodeId.
func GroupAround(n NodeId) GroupId {
	return GroupId(n)
}

// NodeFromIdentity reinterprets a content/identity hash as a NodeId, the way
// the dispatcher resolves a data name's raw_name into the address of the
// group responsible for it.
func NodeFromIdentity(id Identity) NodeId {
	return NodeId(id)
}

// TaskId is the 32-bit correlator a caller allocates for an outstanding
// operation. It is embedded in the outbound envelope and used by the
// Registry to route replies back to the pending operation. It is unique,
// per the Registry's invariant, only among currently-live operations.
type TaskId uint32

// MessageId is the 32-bit correlator carried at the envelope level. For
// operations that expect a reply, MessageId and TaskId are the same value;
// fire-and-forget operations use a MessageId with no corresponding
// Registry entry.
type MessageId uint32

func (t TaskId) String() string    { return fmt.Sprintf("task-%08x", uint32(t)) }
func (m MessageId) String() string { return fmt.Sprintf("msg-%08x", uint32(m)) }

// DataTagValue discriminates the family of data a DataName addresses.
type DataTagValue uint32

const (
	// DataTagImmutable marks a content-addressed immutable blob.
	DataTagImmutable DataTagValue = iota
	// DataTagStructured marks mutable/structured (versioned) data.
	DataTagStructured
	// DataTagPassport marks a passport/identity artifact (e.g. a public Pmid).
	DataTagPassport
	// DataTagPmid marks a storage-node (Pmid) identity record.
	DataTagPmid
)

func (t DataTagValue) String() string {
	switch t {
	case DataTagImmutable:
		return "Immutable"
	case DataTagStructured:
		return "Structured"
	case DataTagPassport:
		return "Passport"
	case DataTagPmid:
		return "Pmid"
	default:
		return fmt.Sprintf("DataTag(%d)", uint32(t))
	}
}
