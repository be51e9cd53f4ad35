package model

import (
	"errors"
	"fmt"
)

// Contexts reported by DataStoreFailure.
const (
	ContextBlockState = "block state"
	ContextPassword   = "password"
	ContextEmail      = "email"
)

var (
	// ErrNotFound is returned when a stored object does not exist.
	ErrNotFound = errors.New("not found")
	// ErrMailSendFailed wraps any failure of the mail transport.
	ErrMailSendFailed = errors.New("failed to send email")
	// ErrNoRegisteredEmail is returned when a mail to the registered
	// address is requested but none is stored.
	ErrNoRegisteredEmail = errors.New("no registered email")
	// ErrInvalidInput is returned when an action is attempted while the
	// typed input does not validate. No IO is performed.
	ErrInvalidInput = errors.New("invalid input")
	// ErrBlockingEnabled is returned when blocking is turned on while it
	// already is. The unlock password stays unchanged.
	ErrBlockingEnabled = errors.New("blocking is already on")
)

// DataStoreFailure reports a failed write of a persisted preference.
type DataStoreFailure struct {
	Context string
	Err     error
}

// NewDataStoreFailure wraps err with the given context.
func NewDataStoreFailure(context string, err error) *DataStoreFailure {
	return &DataStoreFailure{Context: context, Err: err}
}

func (e *DataStoreFailure) Error() string {
	return fmt.Sprintf("failed to store %s: %v", e.Context, e.Err)
}

func (e *DataStoreFailure) Unwrap() error {
	return e.Err
}
