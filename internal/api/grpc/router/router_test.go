package router

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	grpcctx "github.com/dtroode/appblock/internal/api/grpc/context"
	"github.com/dtroode/appblock/internal/api/grpc/rpc"
	"github.com/dtroode/appblock/internal/bridge"
	"github.com/dtroode/appblock/internal/controller"
	"github.com/dtroode/appblock/internal/model"
	"github.com/dtroode/appblock/internal/testutil"
)

type controlStub struct {
	panicOnTurnOn bool
}

func (controlStub) Status(context.Context) controller.Status {
	return controller.Status{BlockEnabled: true}
}

func (c controlStub) TurnOn(context.Context, string) error {
	if c.panicOnTurnOn {
		panic("boom")
	}
	return nil
}

func (controlStub) TurnOff(context.Context, string) (bool, error) { return false, nil }
func (controlStub) RecoverPassword(context.Context) error         { return model.ErrNoRegisteredEmail }

func (controlStub) SendVerificationEmail(context.Context, string) (int, error) {
	return 180, nil
}

func (controlStub) VerifyOtp(context.Context, string) (bool, error) { return true, nil }

func (controlStub) CancelVerification(context.Context) {}

type hubStub struct{}

func (hubStub) Serve(bridge.Stream) error { return nil }

type tokenStub struct {
	clientID uuid.UUID
}

func (s tokenStub) GetClientID(_ context.Context, token string) (uuid.UUID, error) {
	if token != "good" {
		return uuid.Nil, errors.New("bad token")
	}
	return s.clientID, nil
}

func startRouter(t *testing.T, control controlStub) (*rpc.ControlClient, *grpc.ClientConn) {
	t.Helper()

	r := New(control, hubStub{}, tokenStub{clientID: uuid.New()}, grpcctx.NewManager(), testutil.MakeNoopLogger())
	s := r.Register()
	r.SetServing(true)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = s.Serve(ln) }()
	t.Cleanup(s.Stop)

	conn, err := grpc.NewClient(ln.Addr().String(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return rpc.NewControlClient(conn), conn
}

func withToken(ctx context.Context, token string) context.Context {
	return metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+token)
}

func TestRouter_Register(t *testing.T) {
	t.Parallel()

	r := New(controlStub{}, hubStub{}, tokenStub{}, grpcctx.NewManager(), testutil.MakeNoopLogger())
	s := r.Register()
	require.NotNil(t, s)

	info := s.GetServiceInfo()
	assert.Contains(t, info, rpc.ControlServiceName)
	assert.Contains(t, info, rpc.BridgeServiceName)
	assert.Contains(t, info, healthpb.Health_ServiceDesc.ServiceName)
}

func TestRouter_Authentication(t *testing.T) {
	t.Parallel()

	client, _ := startRouter(t, controlStub{})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	tests := []struct {
		name     string
		ctx      context.Context
		wantCode codes.Code
	}{
		{name: "no token", ctx: ctx, wantCode: codes.Unauthenticated},
		{name: "bad token", ctx: withToken(ctx, "bad"), wantCode: codes.Unauthenticated},
		{name: "good token", ctx: withToken(ctx, "good"), wantCode: codes.OK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := client.GetStatus(tt.ctx)
			assert.Equal(t, tt.wantCode, status.Code(err))
			if tt.wantCode == codes.OK {
				assert.True(t, out.GetFields()["block_enabled"].GetBoolValue())
			}
		})
	}
}

func TestRouter_HealthNeedsNoToken(t *testing.T) {
	t.Parallel()

	_, conn := startRouter(t, controlStub{})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	resp, err := healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{Service: rpc.ControlServiceName})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus())
}

func TestRouter_ErrorsAndPanics(t *testing.T) {
	t.Parallel()

	client, _ := startRouter(t, controlStub{panicOnTurnOn: true})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	ctx = withToken(ctx, "good")

	err := client.TurnOn(ctx, "Secret123")
	assert.Equal(t, codes.Internal, status.Code(err))

	err = client.RecoverPassword(ctx)
	assert.Equal(t, codes.FailedPrecondition, status.Code(err))

	remaining, err := client.SendVerificationEmail(ctx, "user@example.com")
	require.NoError(t, err)
	assert.Equal(t, int32(180), remaining)

	verified, err := client.VerifyOtp(ctx, "123456")
	require.NoError(t, err)
	assert.True(t, verified)
}
