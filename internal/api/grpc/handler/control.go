package handler

import (
	"context"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/dtroode/appblock/internal/controller"
	"github.com/dtroode/appblock/internal/logger"
	"github.com/dtroode/appblock/internal/model"
)

// ControlService defines the user intents exposed over gRPC.
type ControlService interface {
	Status(ctx context.Context) controller.Status
	TurnOn(ctx context.Context, password string) error
	TurnOff(ctx context.Context, password string) (bool, error)
	RecoverPassword(ctx context.Context) error
	SendVerificationEmail(ctx context.Context, email string) (int, error)
	VerifyOtp(ctx context.Context, code string) (bool, error)
	CancelVerification(ctx context.Context)
}

// Control handles the appblock.v1.Control service.
type Control struct {
	controlService ControlService
	contextManager model.ContextManager
	logger         *logger.Logger
}

// NewControl creates a new Control handler.
func NewControl(controlService ControlService, contextManager model.ContextManager, logger *logger.Logger) *Control {
	return &Control{
		controlService: controlService,
		contextManager: contextManager,
		logger:         logger,
	}
}

// GetStatus returns the block switch, email registration, permission step
// and verification progress.
func (h *Control) GetStatus(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	st := h.controlService.Status(ctx)

	out, err := structpb.NewStruct(map[string]interface{}{
		"block_enabled":      st.BlockEnabled,
		"email_registered":   st.EmailRegistered,
		"permission_step":    st.PermissionStep.String(),
		"bridge_attached":    st.BridgeAttached,
		"verification":       st.Verification.Phase.String(),
		"verification_email": st.Verification.Email,
		"remaining_seconds":  st.Verification.RemainingSeconds,
	})
	if err != nil {
		h.logger.Error("Control handler: failed to encode status", "error", err.Error())
		return nil, status.Error(codes.Internal, "internal server error")
	}

	return out, nil
}

// TurnOn stores the password and enables blocking.
func (h *Control) TurnOn(ctx context.Context, req *wrapperspb.StringValue) (*emptypb.Empty, error) {
	h.logger.Debug("Control handler: processing turn on request", "client_id", h.clientID(ctx))

	if err := h.controlService.TurnOn(ctx, req.GetValue()); err != nil {
		h.logger.Error("Control handler: turn on failed",
			"client_id", h.clientID(ctx),
			"error", err.Error())
		return nil, handleError(err)
	}

	h.logger.Info("Control handler: blocking turned on", "client_id", h.clientID(ctx))
	return &emptypb.Empty{}, nil
}

// TurnOff disables blocking when the password matches. A mismatch is not
// an error: the response carries false.
func (h *Control) TurnOff(ctx context.Context, req *wrapperspb.StringValue) (*wrapperspb.BoolValue, error) {
	h.logger.Debug("Control handler: processing turn off request", "client_id", h.clientID(ctx))

	matched, err := h.controlService.TurnOff(ctx, req.GetValue())
	if err != nil {
		h.logger.Error("Control handler: turn off failed",
			"client_id", h.clientID(ctx),
			"error", err.Error())
		return nil, handleError(err)
	}

	if matched {
		h.logger.Info("Control handler: blocking turned off", "client_id", h.clientID(ctx))
	} else {
		h.logger.Info("Control handler: wrong password", "client_id", h.clientID(ctx))
	}
	return wrapperspb.Bool(matched), nil
}

// RecoverPassword mails a generated password to the registered address.
func (h *Control) RecoverPassword(ctx context.Context, _ *emptypb.Empty) (*emptypb.Empty, error) {
	if err := h.controlService.RecoverPassword(ctx); err != nil {
		h.logger.Error("Control handler: password recovery failed",
			"client_id", h.clientID(ctx),
			"error", err.Error())
		return nil, handleError(err)
	}

	return &emptypb.Empty{}, nil
}

// SendVerificationEmail mails a one-time code and returns the seconds left
// to enter it.
func (h *Control) SendVerificationEmail(ctx context.Context, req *wrapperspb.StringValue) (*wrapperspb.Int32Value, error) {
	remaining, err := h.controlService.SendVerificationEmail(ctx, req.GetValue())
	if err != nil {
		h.logger.Error("Control handler: verification email failed",
			"client_id", h.clientID(ctx),
			"error", err.Error())
		return nil, handleError(err)
	}

	return wrapperspb.Int32(int32(remaining)), nil
}

func (h *Control) VerifyOtp(ctx context.Context, req *wrapperspb.StringValue) (*wrapperspb.BoolValue, error) {
	verified, err := h.controlService.VerifyOtp(ctx, req.GetValue())
	if err != nil {
		h.logger.Error("Control handler: otp verification failed",
			"client_id", h.clientID(ctx),
			"error", err.Error())
		return nil, handleError(err)
	}

	return wrapperspb.Bool(verified), nil
}

func (h *Control) CancelVerification(ctx context.Context, _ *emptypb.Empty) (*emptypb.Empty, error) {
	h.controlService.CancelVerification(ctx)
	return &emptypb.Empty{}, nil
}

func (h *Control) clientID(ctx context.Context) string {
	id, ok := h.contextManager.GetClientIDFromContext(ctx)
	if !ok {
		return ""
	}
	return id.String()
}
