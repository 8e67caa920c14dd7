package grpcrouter

import "google.golang.org/grpc"

// serviceName and the single Exchange stream method name are hand-written
// because there is no .proto schema backing this adapter: the wire format
// is pkg/envelope's own header-plus-opaque-payload encoding, not protobuf.
const (
	serviceName  = "maidnode.grpcrouter.Exchange"
	streamMethod = "Exchange"
)

// exchangeServer is implemented by the side that accepts the stream. Only
// Server implements it: the harness's fake vault is the gRPC server, with
// the client-under-test dialing in as Router.
type exchangeServer interface {
	exchange(grpc.ServerStream) error
}

// serviceDesc describes the single bidirectional-streaming method this
// adapter exposes. It is registered against whichever *grpc.Server hosts
// the harness side of the connection.
var serviceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*exchangeServer)(nil),
	Streams: []grpc.StreamDesc{
		{
			StreamName:    streamMethod,
			Handler:       exchangeHandler,
			ServerStreams: true,
			ClientStreams: true,
		},
	},
	Metadata: "pkg/transport/grpcrouter/service.go",
}

func exchangeHandler(srv interface{}, stream grpc.ServerStream) error {
	return srv.(exchangeServer).exchange(stream)
}

// fullMethod is the string grpc.ClientConn.NewStream expects: "/service/method".
const fullMethod = "/" + serviceName + "/" + streamMethod

var clientStreamDesc = grpc.StreamDesc{
	StreamName:    streamMethod,
	ServerStreams: true,
	ClientStreams: true,
}
