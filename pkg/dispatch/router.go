package dispatch

import (
	"context"

	"github.com/marmos91/maidnode/pkg/envelope"
)

// Router is the external routing-layer collaborator: send(envelope) plus
// an install-once inbound delivery hook. The Dispatcher only ever calls
// Send; the inbound hook is wired by pkg/service, not here, keeping the
// Dispatcher free of any per-operation or inbound state.
type Router interface {
	// Send hands a fully addressed, serialized envelope to the overlay
	// routing layer. The Dispatcher never waits on a reply here; Send
	// returning nil means the message was accepted for transmission, not
	// that it was delivered.
	Send(ctx context.Context, env envelope.Envelope) error
}
