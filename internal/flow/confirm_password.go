package flow

import (
	"context"

	"github.com/dtroode/appblock/internal/logger"
	"github.com/dtroode/appblock/internal/model"
)

// ConfirmPassword drives the dialog shown before blocking is turned off.
type ConfirmPassword struct {
	password PasswordService
	email    EmailService
	state    *stateHolder[PasswordDialogState]
	events   *eventQueue
	logger   *logger.Logger
}

func NewConfirmPassword(password PasswordService, email EmailService, logger *logger.Logger) *ConfirmPassword {
	return &ConfirmPassword{
		password: password,
		email:    email,
		state:    newStateHolder(PasswordDialogState{}),
		events:   newEventQueue("Confirm password", logger),
		logger:   logger,
	}
}

func (f *ConfirmPassword) State() PasswordDialogState {
	return f.state.get()
}

func (f *ConfirmPassword) Watch(ctx context.Context) <-chan PasswordDialogState {
	return f.state.watch(ctx)
}

func (f *ConfirmPassword) Events() <-chan Event {
	return f.events.ch
}

func (f *ConfirmPassword) Reset() {
	f.state.update(func(PasswordDialogState) PasswordDialogState {
		return PasswordDialogState{}
	})
}

func (f *ConfirmPassword) OnTypedValueChange(value string) {
	inputState := model.InputNone
	if value == "" {
		inputState = model.InputEmpty
	}

	f.state.update(func(s PasswordDialogState) PasswordDialogState {
		s.TypedValue = value
		s.PasswordState = inputState
		return s
	})
}

func (f *ConfirmPassword) ToggleVisibility() {
	f.state.update(func(s PasswordDialogState) PasswordDialogState {
		s.Visible = !s.Visible
		return s
	})
}

// Submit compares the typed password with the stored one and emits
// EventMatch or EventNotMatch.
func (f *ConfirmPassword) Submit() bool {
	matched := f.password.IsMatch(f.state.get().TypedValue)
	if matched {
		f.events.emit(Event{Kind: EventMatch})
	} else {
		f.events.emit(Event{Kind: EventNotMatch})
	}

	return matched
}

func (f *ConfirmPassword) OnPasswordWrong() {
	f.state.update(func(s PasswordDialogState) PasswordDialogState {
		s.PasswordState = model.InputInvalid
		return s
	})
}

// SendRecoveryEmail mails a freshly generated password to the registered
// address and stores its digest once the mail went out. content.Content
// is replaced with the new password.
func (f *ConfirmPassword) SendRecoveryEmail(ctx context.Context, content model.MailContent) error {
	newPassword := f.password.Generate()
	content.Content = newPassword

	f.events.emit(Event{Kind: EventShowLoading})
	defer f.events.emit(Event{Kind: EventHideLoading})

	if err := f.email.SendToRegistered(ctx, content); err != nil {
		f.logger.Warn("Confirm password flow: recovery email not sent", "error", err.Error())
		f.events.toast(err)
		return err
	}

	if err := f.password.StoreHashed(ctx, newPassword); err != nil {
		f.events.toast(err)
		return err
	}

	f.events.emit(Event{Kind: EventEmailSent})
	return nil
}
