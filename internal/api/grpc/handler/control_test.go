package handler

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	grpcctx "github.com/dtroode/appblock/internal/api/grpc/context"
	"github.com/dtroode/appblock/internal/api/grpc/rpc"
	"github.com/dtroode/appblock/internal/controller"
	"github.com/dtroode/appblock/internal/flow"
	"github.com/dtroode/appblock/internal/model"
	"github.com/dtroode/appblock/internal/permission"
	"github.com/dtroode/appblock/internal/testutil"
)

var _ rpc.ControlServer = (*Control)(nil)

type controlServiceMock struct {
	mock.Mock
}

func newControlServiceMock(t *testing.T) *controlServiceMock {
	m := &controlServiceMock{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *controlServiceMock) Status(ctx context.Context) controller.Status {
	return m.Called(ctx).Get(0).(controller.Status)
}

func (m *controlServiceMock) TurnOn(ctx context.Context, password string) error {
	return m.Called(ctx, password).Error(0)
}

func (m *controlServiceMock) TurnOff(ctx context.Context, password string) (bool, error) {
	ret := m.Called(ctx, password)
	return ret.Bool(0), ret.Error(1)
}

func (m *controlServiceMock) RecoverPassword(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *controlServiceMock) SendVerificationEmail(ctx context.Context, email string) (int, error) {
	ret := m.Called(ctx, email)
	return ret.Int(0), ret.Error(1)
}

func (m *controlServiceMock) VerifyOtp(ctx context.Context, code string) (bool, error) {
	ret := m.Called(ctx, code)
	return ret.Bool(0), ret.Error(1)
}

func (m *controlServiceMock) CancelVerification(ctx context.Context) {
	m.Called(ctx)
}

func authedContext() context.Context {
	return grpcctx.NewManager().SetClientIDToContext(context.Background(), uuid.New())
}

func TestControl_GetStatus(t *testing.T) {
	t.Parallel()

	svc := newControlServiceMock(t)
	svc.On("Status", mock.Anything).Return(controller.Status{
		BlockEnabled:    true,
		EmailRegistered: true,
		PermissionStep:  permission.StepNotification,
		BridgeAttached:  true,
		Verification: controller.Verification{
			Phase:            flow.PhaseOtpSent,
			Email:            "user@example.com",
			RemainingSeconds: 42,
		},
	})

	h := NewControl(svc, grpcctx.NewManager(), testutil.MakeNoopLogger())
	out, err := h.GetStatus(authedContext(), &emptypb.Empty{})
	require.NoError(t, err)

	fields := out.GetFields()
	assert.True(t, fields["block_enabled"].GetBoolValue())
	assert.True(t, fields["email_registered"].GetBoolValue())
	assert.Equal(t, "notification", fields["permission_step"].GetStringValue())
	assert.True(t, fields["bridge_attached"].GetBoolValue())
	assert.Equal(t, "otp_sent", fields["verification"].GetStringValue())
	assert.Equal(t, "user@example.com", fields["verification_email"].GetStringValue())
	assert.Equal(t, float64(42), fields["remaining_seconds"].GetNumberValue())
}

func TestControl_TurnOn(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		svcErr   error
		wantCode codes.Code
	}{
		{name: "success", wantCode: codes.OK},
		{name: "invalid password", svcErr: model.ErrInvalidInput, wantCode: codes.InvalidArgument},
		{
			name:     "store failure",
			svcErr:   model.NewDataStoreFailure(model.ContextBlockState, assert.AnError),
			wantCode: codes.Internal,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			svc := newControlServiceMock(t)
			svc.On("TurnOn", mock.Anything, "Secret123").Return(tt.svcErr).Once()

			h := NewControl(svc, grpcctx.NewManager(), testutil.MakeNoopLogger())
			out, err := h.TurnOn(authedContext(), wrapperspb.String("Secret123"))

			assert.Equal(t, tt.wantCode, status.Code(err))
			if tt.wantCode == codes.OK {
				assert.NotNil(t, out)
			} else {
				assert.Nil(t, out)
			}
		})
	}
}

func TestControl_TurnOff(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		matched     bool
		svcErr      error
		wantMatched bool
		wantCode    codes.Code
	}{
		{name: "match", matched: true, wantMatched: true, wantCode: codes.OK},
		{name: "mismatch is not an error", matched: false, wantMatched: false, wantCode: codes.OK},
		{
			name:     "store failure",
			svcErr:   model.NewDataStoreFailure(model.ContextBlockState, assert.AnError),
			wantCode: codes.Internal,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			svc := newControlServiceMock(t)
			svc.On("TurnOff", mock.Anything, "pw").Return(tt.matched, tt.svcErr).Once()

			h := NewControl(svc, grpcctx.NewManager(), testutil.MakeNoopLogger())
			out, err := h.TurnOff(authedContext(), wrapperspb.String("pw"))

			assert.Equal(t, tt.wantCode, status.Code(err))
			if tt.wantCode == codes.OK {
				assert.Equal(t, tt.wantMatched, out.GetValue())
			}
		})
	}
}

func TestControl_RecoverPassword(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		svcErr   error
		wantCode codes.Code
	}{
		{name: "success", wantCode: codes.OK},
		{name: "no email on file", svcErr: model.ErrNoRegisteredEmail, wantCode: codes.FailedPrecondition},
		{name: "mail failure", svcErr: fmt.Errorf("%w: timeout", model.ErrMailSendFailed), wantCode: codes.Unavailable},
		{
			name:     "password not stored",
			svcErr:   model.NewDataStoreFailure(model.ContextPassword, assert.AnError),
			wantCode: codes.Internal,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			svc := newControlServiceMock(t)
			svc.On("RecoverPassword", mock.Anything).Return(tt.svcErr).Once()

			h := NewControl(svc, grpcctx.NewManager(), testutil.MakeNoopLogger())
			_, err := h.RecoverPassword(authedContext(), &emptypb.Empty{})
			assert.Equal(t, tt.wantCode, status.Code(err))
		})
	}
}

func TestControl_EmailVerification(t *testing.T) {
	t.Parallel()

	svc := newControlServiceMock(t)
	svc.On("SendVerificationEmail", mock.Anything, "user@example.com").Return(180, nil).Once()
	svc.On("SendVerificationEmail", mock.Anything, "bad").Return(0, model.ErrInvalidInput).Once()
	svc.On("VerifyOtp", mock.Anything, "123456").Return(true, nil).Once()
	svc.On("VerifyOtp", mock.Anything, "000000").Return(false, nil).Once()
	svc.On("CancelVerification", mock.Anything).Once()

	h := NewControl(svc, grpcctx.NewManager(), testutil.MakeNoopLogger())
	ctx := authedContext()

	remaining, err := h.SendVerificationEmail(ctx, wrapperspb.String("user@example.com"))
	require.NoError(t, err)
	assert.Equal(t, int32(180), remaining.GetValue())

	_, err = h.SendVerificationEmail(ctx, wrapperspb.String("bad"))
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	verified, err := h.VerifyOtp(ctx, wrapperspb.String("123456"))
	require.NoError(t, err)
	assert.True(t, verified.GetValue())

	verified, err = h.VerifyOtp(ctx, wrapperspb.String("000000"))
	require.NoError(t, err)
	assert.False(t, verified.GetValue())

	_, err = h.CancelVerification(ctx, &emptypb.Empty{})
	require.NoError(t, err)
}
