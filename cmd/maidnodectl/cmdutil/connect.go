// Package cmdutil provides the connection helper maidnodectl's one-shot
// operation commands share: each subcommand dials the configured peer,
// issues a single operation, and tears the connection down again, unlike
// maidnode's own start command which keeps the connection open for the
// life of the process.
package cmdutil

import (
	"context"
	"fmt"
	"sync"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/marmos91/maidnode/pkg/client"
	"github.com/marmos91/maidnode/pkg/config"
	"github.com/marmos91/maidnode/pkg/envelope"
	"github.com/marmos91/maidnode/pkg/identity"
	"github.com/marmos91/maidnode/pkg/ids"
	"github.com/marmos91/maidnode/pkg/transport/grpcrouter"
)

// lazyRouter closes the same construction cycle cmd/maidnode/commands/
// start.go does: NewMaidNode needs a dispatch.Router to build its
// Dispatcher, but grpcrouter.Dial needs the Demultiplexer NewMaidNode
// returns as its inbound delivery hook.
type lazyRouter struct {
	mu sync.Mutex
	r  *grpcrouter.Router
}

func (l *lazyRouter) bind(r *grpcrouter.Router) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.r = r
}

func (l *lazyRouter) Send(ctx context.Context, env envelope.Envelope) error {
	l.mu.Lock()
	r := l.r
	l.mu.Unlock()
	if r == nil {
		return fmt.Errorf("maidnodectl: router not yet connected")
	}
	return r.Send(ctx, env)
}

// Conn bundles a connected MaidNode façade with the teardown it needs once
// the command's single operation has completed.
type Conn struct {
	Node *client.MaidNode

	conn   *grpc.ClientConn
	router *grpcrouter.Router
}

// Close tears the connection down in the reverse order Connect built it.
func (c *Conn) Close() {
	c.Node.Stop()
	if c.router != nil {
		_ = c.router.Close()
	}
	if c.conn != nil {
		_ = c.conn.Close()
	}
}

// Connect loads cfg's identity, dials its configured peer, and returns a
// running MaidNode façade ready to issue one operation.
func Connect(ctx context.Context, cfg *config.Config) (*Conn, error) {
	nodeID, err := ids.ParseIdentity(cfg.Identity.NodeId)
	if err != nil {
		return nil, fmt.Errorf("invalid identity.node_id: %w", err)
	}
	id, err := identity.New(ids.NodeId(nodeID), []byte(cfg.Identity.Secret), cfg.Identity.Issuer, cfg.Identity.TTL)
	if err != nil {
		return nil, fmt.Errorf("failed to construct signing identity: %w", err)
	}

	dialOpts := []grpc.DialOption{}
	if cfg.Peer.Insecure {
		dialOpts = append(dialOpts, grpc.WithTransportCredentials(insecure.NewCredentials()))
	}
	conn, err := grpc.NewClient(cfg.Peer.Addr, dialOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to construct gRPC client for peer %s: %w", cfg.Peer.Addr, err)
	}

	wireMapping, err := cfg.Routing.WireMapping()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("invalid routing wire mapping: %w", err)
	}

	lr := &lazyRouter{}
	maidNode, demux := client.NewMaidNode(lr, id, cfg.Routing)
	demux.SetWireMapping(wireMapping)
	router, err := grpcrouter.Dial(ctx, conn, demux)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to dial peer %s: %w", cfg.Peer.Addr, err)
	}
	router.SetWireMapping(wireMapping)
	lr.bind(router)

	maidNode.Start(ctx)

	return &Conn{Node: maidNode, conn: conn, router: router}, nil
}
