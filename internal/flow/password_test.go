package flow

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dtroode/appblock/internal/mocks"
	"github.com/dtroode/appblock/internal/model"
	"github.com/dtroode/appblock/internal/service"
	"github.com/dtroode/appblock/internal/testutil"
)

func TestSetPassword_OnTypedValueChange(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		value     string
		wantTyped string
		wantState model.TextInputState
	}{
		{name: "empty", value: "", wantTyped: "", wantState: model.InputEmpty},
		{name: "too short", value: "abc", wantTyped: "abc", wantState: model.InputInvalid},
		{name: "valid", value: "Abc12345", wantTyped: "Abc12345", wantState: model.InputValid},
		{name: "symbol", value: "Abc-12345", wantTyped: "Abc-12345", wantState: model.InputInvalid},
		{name: "longer than 14 ignored", value: strings.Repeat("a", 15), wantTyped: "", wantState: model.InputEmpty},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			store := newStore(t, nil)
			f := NewSetPassword(service.NewPassword(store, testutil.MakeNoopLogger()), nil, testutil.MakeNoopLogger())

			f.OnTypedValueChange(tt.value)

			assert.Equal(t, tt.wantTyped, f.State().TypedValue)
			assert.Equal(t, tt.wantState, f.State().PasswordState)
		})
	}
}

func TestSetPassword_Submit(t *testing.T) {
	ctx := context.Background()
	store := newStore(t, nil)
	passwords := service.NewPassword(store, testutil.MakeNoopLogger())
	f := NewSetPassword(passwords, nil, testutil.MakeNoopLogger())

	f.OnTypedValueChange("short")
	assert.ErrorIs(t, f.Submit(ctx), model.ErrInvalidInput)
	_, stored := store.Get(model.KeyPassword)
	assert.False(t, stored)
	assert.Empty(t, drain(f.Events()))

	f.OnTypedValueChange("Abc12345")
	require.NoError(t, f.Submit(ctx))

	assert.True(t, passwords.IsMatch("Abc12345"))
	assert.False(t, passwords.IsMatch("short"))
	assert.Equal(t, []EventKind{EventShowLoading, EventNavigate, EventHideLoading}, drain(f.Events()))
}

func TestSetPassword_ResetKeepsRegistration(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := newStore(t, map[string]string{model.KeyEmail: "me@example.com"})
	f := NewSetPassword(
		service.NewPassword(store, testutil.MakeNoopLogger()),
		service.NewEmail(store, nil, testutil.MakeNoopLogger()),
		testutil.MakeNoopLogger(),
	)
	f.Start(ctx)
	assert.Eventually(t, func() bool { return f.State().EmailRegistered }, time.Second, 5*time.Millisecond)

	f.OnTypedValueChange("Abc12345")
	f.ToggleVisibility()
	f.Reset()

	assert.Equal(t, PasswordDialogState{EmailRegistered: true}, f.State())
}

func TestConfirmPassword_TypingAndMatch(t *testing.T) {
	store := newStore(t, map[string]string{model.KeyPassword: service.HashPassword("Abc12345")})
	f := NewConfirmPassword(service.NewPassword(store, testutil.MakeNoopLogger()), nil, testutil.MakeNoopLogger())

	f.OnTypedValueChange("")
	assert.Equal(t, model.InputEmpty, f.State().PasswordState)

	f.OnTypedValueChange("Abc12345")
	assert.Equal(t, model.InputNone, f.State().PasswordState)
	assert.True(t, f.Submit())
	assert.Equal(t, []EventKind{EventMatch}, drain(f.Events()))

	f.Reset()
	assert.Equal(t, PasswordDialogState{}, f.State())
}

func TestConfirmPassword_SendRecoveryEmail(t *testing.T) {
	ctx := context.Background()
	texts := model.MailContent{Title: "Temporary password", ContentDescription: "Use it once"}

	t.Run("no registered email passes through", func(t *testing.T) {
		store := newStore(t, map[string]string{model.KeyPassword: service.HashPassword("Abc12345")})
		passwords := service.NewPassword(store, testutil.MakeNoopLogger())
		sender := mocks.NewMailSender(t)
		f := NewConfirmPassword(passwords, service.NewEmail(store, sender, testutil.MakeNoopLogger()), testutil.MakeNoopLogger())

		err := f.SendRecoveryEmail(ctx, texts)

		assert.ErrorIs(t, err, model.ErrNoRegisteredEmail)
		assert.NotErrorIs(t, err, model.ErrMailSendFailed)
		assert.True(t, passwords.IsMatch("Abc12345"))
		assert.Equal(t, []EventKind{EventShowLoading, EventToast, EventHideLoading}, drain(f.Events()))
	})

	t.Run("send failure keeps old password", func(t *testing.T) {
		store := newStore(t, map[string]string{
			model.KeyPassword: service.HashPassword("Abc12345"),
			model.KeyEmail:    "me@example.com",
		})
		passwords := service.NewPassword(store, testutil.MakeNoopLogger())
		sender := mocks.NewMailSender(t)
		sender.On("Send", mock.Anything, "me@example.com", mock.Anything).Return(errors.New("dial tcp: timeout"))
		f := NewConfirmPassword(passwords, service.NewEmail(store, sender, testutil.MakeNoopLogger()), testutil.MakeNoopLogger())

		err := f.SendRecoveryEmail(ctx, texts)

		assert.ErrorIs(t, err, model.ErrMailSendFailed)
		assert.True(t, passwords.IsMatch("Abc12345"))
	})

	t.Run("new password mailed then stored", func(t *testing.T) {
		store := newStore(t, map[string]string{
			model.KeyPassword: service.HashPassword("Abc12345"),
			model.KeyEmail:    "me@example.com",
		})
		passwords := service.NewPassword(store, testutil.MakeNoopLogger())
		sender := mocks.NewMailSender(t)
		var mailed model.MailContent
		sender.On("Send", mock.Anything, "me@example.com", mock.Anything).
			Run(func(args mock.Arguments) { mailed = args.Get(2).(model.MailContent) }).
			Return(nil).Once()
		f := NewConfirmPassword(passwords, service.NewEmail(store, sender, testutil.MakeNoopLogger()), testutil.MakeNoopLogger())

		require.NoError(t, f.SendRecoveryEmail(ctx, texts))

		assert.Equal(t, texts.Title, mailed.Title)
		assert.True(t, passwords.IsValid(mailed.Content))
		assert.True(t, passwords.IsMatch(mailed.Content))
		assert.False(t, passwords.IsMatch("Abc12345"))
		assert.Equal(t, []EventKind{EventShowLoading, EventEmailSent, EventHideLoading}, drain(f.Events()))
	})
}
