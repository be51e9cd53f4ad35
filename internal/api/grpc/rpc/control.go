// Package rpc describes the appblock gRPC services. Messages are
// well-known protobuf types, so no generated code is needed.
package rpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const ControlServiceName = "appblock.v1.Control"

const (
	Control_GetStatus_FullMethodName             = "/appblock.v1.Control/GetStatus"
	Control_TurnOn_FullMethodName                = "/appblock.v1.Control/TurnOn"
	Control_TurnOff_FullMethodName               = "/appblock.v1.Control/TurnOff"
	Control_RecoverPassword_FullMethodName       = "/appblock.v1.Control/RecoverPassword"
	Control_SendVerificationEmail_FullMethodName = "/appblock.v1.Control/SendVerificationEmail"
	Control_VerifyOtp_FullMethodName             = "/appblock.v1.Control/VerifyOtp"
	Control_CancelVerification_FullMethodName    = "/appblock.v1.Control/CancelVerification"
)

// ControlServer is the server API for the Control service.
type ControlServer interface {
	GetStatus(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	TurnOn(context.Context, *wrapperspb.StringValue) (*emptypb.Empty, error)
	TurnOff(context.Context, *wrapperspb.StringValue) (*wrapperspb.BoolValue, error)
	RecoverPassword(context.Context, *emptypb.Empty) (*emptypb.Empty, error)
	SendVerificationEmail(context.Context, *wrapperspb.StringValue) (*wrapperspb.Int32Value, error)
	VerifyOtp(context.Context, *wrapperspb.StringValue) (*wrapperspb.BoolValue, error)
	CancelVerification(context.Context, *emptypb.Empty) (*emptypb.Empty, error)
}

func RegisterControlServer(s grpc.ServiceRegistrar, srv ControlServer) {
	s.RegisterService(&Control_ServiceDesc, srv)
}

// unary builds a method descriptor the way protoc-gen-go-grpc does.
func unary[Req proto.Message, Resp any](
	name string,
	newReq func() Req,
	call func(ControlServer, context.Context, Req) (Resp, error),
) grpc.MethodDesc {
	fullMethod := "/" + ControlServiceName + "/" + name

	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
			in := newReq()
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(ControlServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{
				Server:     srv,
				FullMethod: fullMethod,
			}
			handler := func(ctx context.Context, req interface{}) (interface{}, error) {
				return call(srv.(ControlServer), ctx, req.(Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

func newEmpty() *emptypb.Empty { return new(emptypb.Empty) }

func newString() *wrapperspb.StringValue { return new(wrapperspb.StringValue) }

// Control_ServiceDesc is the grpc.ServiceDesc for the Control service.
var Control_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ControlServiceName,
	HandlerType: (*ControlServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("GetStatus", newEmpty, ControlServer.GetStatus),
		unary("TurnOn", newString, ControlServer.TurnOn),
		unary("TurnOff", newString, ControlServer.TurnOff),
		unary("RecoverPassword", newEmpty, ControlServer.RecoverPassword),
		unary("SendVerificationEmail", newString, ControlServer.SendVerificationEmail),
		unary("VerifyOtp", newString, ControlServer.VerifyOtp),
		unary("CancelVerification", newEmpty, ControlServer.CancelVerification),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "appblock/v1/control",
}

// ControlClient is the client API for the Control service.
type ControlClient struct {
	cc grpc.ClientConnInterface
}

func NewControlClient(cc grpc.ClientConnInterface) *ControlClient {
	return &ControlClient{cc: cc}
}

func (c *ControlClient) GetStatus(ctx context.Context, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, Control_GetStatus_FullMethodName, &emptypb.Empty{}, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ControlClient) TurnOn(ctx context.Context, password string, opts ...grpc.CallOption) error {
	return c.cc.Invoke(ctx, Control_TurnOn_FullMethodName, wrapperspb.String(password), new(emptypb.Empty), opts...)
}

func (c *ControlClient) TurnOff(ctx context.Context, password string, opts ...grpc.CallOption) (bool, error) {
	out := new(wrapperspb.BoolValue)
	if err := c.cc.Invoke(ctx, Control_TurnOff_FullMethodName, wrapperspb.String(password), out, opts...); err != nil {
		return false, err
	}
	return out.GetValue(), nil
}

func (c *ControlClient) RecoverPassword(ctx context.Context, opts ...grpc.CallOption) error {
	return c.cc.Invoke(ctx, Control_RecoverPassword_FullMethodName, &emptypb.Empty{}, new(emptypb.Empty), opts...)
}

func (c *ControlClient) SendVerificationEmail(ctx context.Context, email string, opts ...grpc.CallOption) (int32, error) {
	out := new(wrapperspb.Int32Value)
	if err := c.cc.Invoke(ctx, Control_SendVerificationEmail_FullMethodName, wrapperspb.String(email), out, opts...); err != nil {
		return 0, err
	}
	return out.GetValue(), nil
}

func (c *ControlClient) VerifyOtp(ctx context.Context, code string, opts ...grpc.CallOption) (bool, error) {
	out := new(wrapperspb.BoolValue)
	if err := c.cc.Invoke(ctx, Control_VerifyOtp_FullMethodName, wrapperspb.String(code), out, opts...); err != nil {
		return false, err
	}
	return out.GetValue(), nil
}

func (c *ControlClient) CancelVerification(ctx context.Context, opts ...grpc.CallOption) error {
	return c.cc.Invoke(ctx, Control_CancelVerification_FullMethodName, &emptypb.Empty{}, new(emptypb.Empty), opts...)
}
