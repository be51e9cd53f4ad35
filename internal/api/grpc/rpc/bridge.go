package rpc

import (
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const BridgeServiceName = "appblock.v1.Bridge"

const Bridge_Attach_FullMethodName = "/appblock.v1.Bridge/Attach"

// BridgeServer is the server API for the Bridge service. The platform shim
// keeps a single Attach stream open for its whole lifetime.
type BridgeServer interface {
	Attach(grpc.BidiStreamingServer[structpb.Struct, structpb.Struct]) error
}

func RegisterBridgeServer(s grpc.ServiceRegistrar, srv BridgeServer) {
	s.RegisterService(&Bridge_ServiceDesc, srv)
}

func _Bridge_Attach_Handler(srv interface{}, stream grpc.ServerStream) error {
	return srv.(BridgeServer).Attach(&grpc.GenericServerStream[structpb.Struct, structpb.Struct]{ServerStream: stream})
}

// Bridge_ServiceDesc is the grpc.ServiceDesc for the Bridge service.
var Bridge_ServiceDesc = grpc.ServiceDesc{
	ServiceName: BridgeServiceName,
	HandlerType: (*BridgeServer)(nil),
	Methods:     []grpc.MethodDesc{},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "Attach",
			Handler:       _Bridge_Attach_Handler,
			ServerStreams: true,
			ClientStreams: true,
		},
	},
	Metadata: "appblock/v1/bridge",
}
