package handler

import (
	"context"
	"errors"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/dtroode/appblock/internal/bridge"
	"github.com/dtroode/appblock/internal/logger"
)

// BridgeHub runs shim sessions.
type BridgeHub interface {
	Serve(stream bridge.Stream) error
}

// Bridge handles the appblock.v1.Bridge service.
type Bridge struct {
	hub    BridgeHub
	logger *logger.Logger
}

// NewBridge creates a new Bridge handler.
func NewBridge(hub BridgeHub, logger *logger.Logger) *Bridge {
	return &Bridge{hub: hub, logger: logger}
}

// Attach hands the stream to the hub for the lifetime of the session.
func (h *Bridge) Attach(stream grpc.BidiStreamingServer[structpb.Struct, structpb.Struct]) error {
	err := h.hub.Serve(stream)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, bridge.ErrReplaced):
		return status.Error(codes.Aborted, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	default:
		h.logger.Error("Bridge handler: session failed", "error", err.Error())
		return status.Error(codes.Unavailable, "bridge session failed")
	}
}
