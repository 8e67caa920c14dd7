// Package grpcrouter is a concrete dispatch.Router over a single gRPC
// bidirectional stream: a point-to-point transport adapter letting
// integration tests (and cmd/maidnode) exercise the full dispatch-to-
// demultiplexer round trip without standing up the real overlay routing
// layer.
//
// Envelope bytes are opaque to gRPC here — there is no .proto schema to
// generate from, since the wire format is already owned by pkg/envelope.
// rawCodec overrides the registered "proto" codec so every message on this
// stream passes through as raw bytes, the same technique a transparent
// gRPC proxy uses to forward frames it never decodes.
package grpcrouter

import (
	"fmt"

	"google.golang.org/grpc/encoding"
)

// rawFrame is the sole message type exchanged over the Exchange stream: one
// serialized envelope per frame.
type rawFrame []byte

type rawCodec struct{}

func (rawCodec) Marshal(v interface{}) ([]byte, error) {
	switch m := v.(type) {
	case *rawFrame:
		return []byte(*m), nil
	case rawFrame:
		return []byte(m), nil
	default:
		return nil, fmt.Errorf("grpcrouter: unexpected message type %T", v)
	}
}

func (rawCodec) Unmarshal(data []byte, v interface{}) error {
	frame, ok := v.(*rawFrame)
	if !ok {
		return fmt.Errorf("grpcrouter: unexpected message type %T", v)
	}
	*frame = append((*frame)[:0], data...)
	return nil
}

// Name deliberately overrides the stdlib "proto" codec name: grpc-go
// selects a codec by this name when no per-call content-subtype is set, so
// registering under "proto" makes every Exchange call on this stream use
// rawCodec without requiring CallOption plumbing at every call site.
func (rawCodec) Name() string { return "proto" }

func init() {
	encoding.RegisterCodec(rawCodec{})
}
