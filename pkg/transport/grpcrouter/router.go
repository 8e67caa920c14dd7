package grpcrouter

import (
	"context"
	"fmt"
	"io"
	"sync"

	"google.golang.org/grpc"

	"github.com/marmos91/maidnode/internal/logger"
	"github.com/marmos91/maidnode/pkg/envelope"
	"github.com/marmos91/maidnode/pkg/ids"
)

// MessageHandler is the inbound delivery hook both Router and Server drive
// every received frame into. pkg/service.Demultiplexer satisfies this.
type MessageHandler interface {
	HandleMessage(data []byte, sender ids.NodeId, receiver envelope.Receiver)
}

// Router is a dispatch.Router backed by a single long-lived gRPC
// bidirectional stream, standing in for the real overlay routing layer:
// one Router talks to exactly one peer over exactly one stream, with no
// multi-hop routing, retry, or group addressing of its own.
type Router struct {
	stream  grpc.ClientStream
	demux   MessageHandler
	mapping *envelope.Mapping

	mu     sync.Mutex
	closed bool
}

// Dial opens conn's Exchange stream and starts delivering inbound frames to
// demux.HandleMessage. The returned Router's Send method is safe for
// concurrent use; the caller must call Close when done.
func Dial(ctx context.Context, conn *grpc.ClientConn, demux MessageHandler) (*Router, error) {
	stream, err := conn.NewStream(ctx, &clientStreamDesc, fullMethod)
	if err != nil {
		return nil, fmt.Errorf("grpcrouter: open stream: %w", err)
	}

	r := &Router{stream: stream, demux: demux, mapping: envelope.DefaultMapping()}
	go r.recvLoop()
	return r, nil
}

// SetWireMapping installs the injected persona/action wire-constant mapping
// outbound envelopes are serialized under. Passing nil restores the identity
// mapping. Install-once, before the first Send.
func (r *Router) SetWireMapping(m *envelope.Mapping) {
	if m == nil {
		m = envelope.DefaultMapping()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.mapping = m
}

// Send implements dispatch.Router.
func (r *Router) Send(ctx context.Context, env envelope.Envelope) error {
	r.mu.Lock()
	mapping := r.mapping
	r.mu.Unlock()
	data, err := mapping.Serialise(env)
	if err != nil {
		return fmt.Errorf("grpcrouter: serialise envelope: %w", err)
	}
	frame := rawFrame(data)

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return fmt.Errorf("grpcrouter: router closed")
	}
	return r.stream.SendMsg(&frame)
}

// Close half-closes the send side of the underlying stream. It does not
// block for the peer to finish sending; recvLoop exits on its own once the
// stream ends.
func (r *Router) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true
	return r.stream.CloseSend()
}

func (r *Router) recvLoop() {
	for {
		var frame rawFrame
		if err := r.stream.RecvMsg(&frame); err != nil {
			if err != io.EOF {
				logger.Warn("grpcrouter: stream recv ended", "error", err)
			}
			return
		}
		r.demux.HandleMessage([]byte(frame), ids.NodeId{}, envelope.Receiver{})
	}
}

// Server hosts the peer side of the Exchange stream: a grpc.Server with one
// registered stream method, symmetric with Router so a test harness's fake
// vault can accept a connection and push replies back through it without
// standing up the real overlay.
type Server struct {
	grpcServer *grpc.Server
	demux      MessageHandler
	mapping    *envelope.Mapping

	mu      sync.Mutex
	streams []grpc.ServerStream
}

// NewServer constructs a Server that delivers every frame it accepts to
// demux.HandleMessage and registers it on grpcServer. Call grpcServer.Serve
// separately once all services are registered.
func NewServer(grpcServer *grpc.Server, demux MessageHandler) *Server {
	s := &Server{grpcServer: grpcServer, demux: demux, mapping: envelope.DefaultMapping()}
	grpcServer.RegisterService(&serviceDesc, s)
	return s
}

// SetWireMapping installs the injected persona/action wire-constant mapping
// outbound envelopes are serialized under, symmetric with Router's. Passing
// nil restores the identity mapping.
func (s *Server) SetWireMapping(m *envelope.Mapping) {
	if m == nil {
		m = envelope.DefaultMapping()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mapping = m
}

// exchange implements exchangeServer: it is invoked once per accepted
// stream, for as long as the peer keeps it open.
func (s *Server) exchange(stream grpc.ServerStream) error {
	s.mu.Lock()
	s.streams = append(s.streams, stream)
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, st := range s.streams {
			if st == stream {
				s.streams = append(s.streams[:i], s.streams[i+1:]...)
				break
			}
		}
	}()

	for {
		var frame rawFrame
		if err := stream.RecvMsg(&frame); err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
		s.demux.HandleMessage([]byte(frame), ids.NodeId{}, envelope.Receiver{})
	}
}

// Send broadcasts env to every stream currently connected to this Server.
// A test harness with a single connected client uses this to push replies
// back to it; Server carries no per-peer addressing of its own, matching
// its scope as a point-to-point test/demo adapter rather than a routing
// layer.
func (s *Server) Send(ctx context.Context, env envelope.Envelope) error {
	s.mu.Lock()
	mapping := s.mapping
	streams := append([]grpc.ServerStream(nil), s.streams...)
	s.mu.Unlock()

	data, err := mapping.Serialise(env)
	if err != nil {
		return fmt.Errorf("grpcrouter: serialise envelope: %w", err)
	}
	frame := rawFrame(data)

	if len(streams) == 0 {
		return fmt.Errorf("grpcrouter: no connected peer to send to")
	}
	for _, st := range streams {
		if err := st.SendMsg(&frame); err != nil {
			return err
		}
	}
	return nil
}
