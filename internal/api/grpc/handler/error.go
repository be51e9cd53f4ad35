package handler

import (
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/dtroode/appblock/internal/model"
)

func handleError(err error) error {
	var storeErr *model.DataStoreFailure
	switch {
	case errors.As(err, &storeErr):
		return status.Error(codes.Internal, "failed to store "+storeErr.Context)
	case errors.Is(err, model.ErrNoRegisteredEmail):
		return status.Error(codes.FailedPrecondition, "no registered email")
	case errors.Is(err, model.ErrBlockingEnabled):
		return status.Error(codes.FailedPrecondition, "blocking is already on")
	case errors.Is(err, model.ErrMailSendFailed):
		return status.Error(codes.Unavailable, "failed to send email")
	case errors.Is(err, model.ErrInvalidInput):
		return status.Error(codes.InvalidArgument, "invalid input")
	case errors.Is(err, model.ErrNotFound):
		return status.Error(codes.NotFound, "not found")
	default:
		return status.Error(codes.Internal, "internal server error")
	}
}
