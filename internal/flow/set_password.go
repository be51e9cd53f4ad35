package flow

import (
	"context"
	"unicode/utf8"

	"github.com/dtroode/appblock/internal/logger"
	"github.com/dtroode/appblock/internal/model"
	"github.com/dtroode/appblock/internal/service"
)

// PasswordDialogState is shared by both password dialogs.
type PasswordDialogState struct {
	TypedValue      string
	PasswordState   model.TextInputState
	Visible         bool
	EmailRegistered bool
}

// SetPassword drives the dialog shown before blocking is turned on.
type SetPassword struct {
	password PasswordService
	email    EmailService
	state    *stateHolder[PasswordDialogState]
	events   *eventQueue
	logger   *logger.Logger
}

func NewSetPassword(password PasswordService, email EmailService, logger *logger.Logger) *SetPassword {
	return &SetPassword{
		password: password,
		email:    email,
		state:    newStateHolder(PasswordDialogState{}),
		events:   newEventQueue("Set password", logger),
		logger:   logger,
	}
}

// Start tracks whether a recovery email is registered until ctx is done.
func (f *SetPassword) Start(ctx context.Context) {
	registered := f.email.WatchRegistered(ctx)
	go func() {
		for ok := range registered {
			f.state.update(func(s PasswordDialogState) PasswordDialogState {
				s.EmailRegistered = ok
				return s
			})
		}
	}()
}

func (f *SetPassword) State() PasswordDialogState {
	return f.state.get()
}

func (f *SetPassword) Watch(ctx context.Context) <-chan PasswordDialogState {
	return f.state.watch(ctx)
}

func (f *SetPassword) Events() <-chan Event {
	return f.events.ch
}

// Reset clears the typed password but keeps the registration flag.
func (f *SetPassword) Reset() {
	f.state.update(func(s PasswordDialogState) PasswordDialogState {
		return PasswordDialogState{EmailRegistered: s.EmailRegistered}
	})
}

// OnTypedValueChange ignores input longer than the maximum password length.
func (f *SetPassword) OnTypedValueChange(value string) {
	if utf8.RuneCountInString(value) > service.PasswordMaxLength {
		return
	}

	inputState := model.InputInvalid
	switch {
	case f.password.IsValid(value):
		inputState = model.InputValid
	case value == "":
		inputState = model.InputEmpty
	}

	f.state.update(func(s PasswordDialogState) PasswordDialogState {
		s.TypedValue = value
		s.PasswordState = inputState
		return s
	})
}

func (f *SetPassword) ToggleVisibility() {
	f.state.update(func(s PasswordDialogState) PasswordDialogState {
		s.Visible = !s.Visible
		return s
	})
}

// Submit stores the typed password. The dialog may close on EventNavigate.
func (f *SetPassword) Submit(ctx context.Context) error {
	st := f.state.get()
	if st.PasswordState != model.InputValid {
		return model.ErrInvalidInput
	}

	f.events.emit(Event{Kind: EventShowLoading})
	defer f.events.emit(Event{Kind: EventHideLoading})

	if err := f.password.StoreHashed(ctx, st.TypedValue); err != nil {
		f.events.toast(err)
		return err
	}

	f.events.emit(Event{Kind: EventNavigate})
	return nil
}
