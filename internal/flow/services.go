package flow

import (
	"context"

	"github.com/dtroode/appblock/internal/model"
)

// BlockStateService reads and writes the master switch.
type BlockStateService interface {
	Watch(ctx context.Context) <-chan bool
	Set(ctx context.Context, on bool) error
}

// PasswordService manages the unlock password.
type PasswordService interface {
	Generate() string
	IsValid(password string) bool
	StoreHashed(ctx context.Context, password string) error
	IsMatch(password string) bool
}

// EmailService manages the recovery address.
type EmailService interface {
	IsValid(email string) bool
	WatchRegistered(ctx context.Context) <-chan bool
	Store(ctx context.Context, email string) error
	Send(ctx context.Context, to string, content model.MailContent) error
	SendToRegistered(ctx context.Context, content model.MailContent) error
}
