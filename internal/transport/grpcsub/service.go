// Package grpcsub carries signal payloads over a gRPC server stream. The
// service has one method, Subscribe, which streams BytesValue messages; it is
// declared by hand so no generated code is needed.
package grpcsub

import (
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
)

// #region service-desc
const (
	serviceName   = "stimloop.SignalService"
	subscribeName = "Subscribe"
	subscribePath = "/" + serviceName + "/" + subscribeName
)

// SignalServer is the server side of the signal service.
type SignalServer interface {
	Subscribe(*emptypb.Empty, grpc.ServerStream) error
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*SignalServer)(nil),
	Streams: []grpc.StreamDesc{
		{
			StreamName:    subscribeName,
			Handler:       subscribeHandler,
			ServerStreams: true,
		},
	},
	Metadata: "stimloop/signal.proto",
}

func subscribeHandler(srv any, stream grpc.ServerStream) error {
	in := new(emptypb.Empty)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(SignalServer).Subscribe(in, stream)
}

// RegisterSignalServer registers srv on s.
func RegisterSignalServer(s grpc.ServiceRegistrar, srv SignalServer) {
	s.RegisterService(&serviceDesc, srv)
}

// #endregion service-desc
