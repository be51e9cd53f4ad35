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

var testTexts = model.MailContent{Title: "Verification code", ContentDescription: "Enter this code"}

func newReducer() RegisterEmailReducer {
	return RegisterEmailReducer{IsValidEmail: service.NewEmail(nil, nil, testutil.MakeNoopLogger()).IsValid}
}

func TestRegisterEmailReducer_EmailTyped(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		value     string
		wantState model.TextInputState
		wantPhase Phase
	}{
		{name: "empty", value: "", wantState: model.InputEmpty, wantPhase: PhaseIdle},
		{name: "valid", value: "me@example.com", wantState: model.InputNone, wantPhase: PhaseAwaitingEmail},
		{name: "invalid", value: "me@", wantState: model.InputInvalid, wantPhase: PhaseAwaitingEmail},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s := newReducer().Reduce(RegisterEmailState{}, EmailTyped{Value: tt.value})

			assert.Equal(t, tt.value, s.TypedEmail)
			assert.Equal(t, tt.wantState, s.EmailState)
			assert.Equal(t, tt.wantPhase, s.Phase)
		})
	}
}

func TestRegisterEmailReducer_EmailTooLongIgnored(t *testing.T) {
	r := newReducer()
	s := r.Reduce(RegisterEmailState{}, EmailTyped{Value: "me@example.com"})

	next := r.Reduce(s, EmailTyped{Value: strings.Repeat("a", service.MaxEmailLength+1)})

	assert.Equal(t, s, next)
}

func TestRegisterEmailReducer_EmailEditResetsSession(t *testing.T) {
	r := newReducer()
	s := r.Reduce(RegisterEmailState{}, EmailTyped{Value: "me@example.com"})
	s = r.Reduce(s, OtpSent{Code: "123456"})
	s = r.Reduce(s, OtpTyped{Value: "123"})

	s = r.Reduce(s, EmailTyped{Value: "you@example.com"})

	assert.Equal(t, RegisterEmailState{
		TypedEmail: "you@example.com",
		EmailState: model.InputNone,
		Phase:      PhaseAwaitingEmail,
	}, s)
}

func TestRegisterEmailReducer_OtpTyped(t *testing.T) {
	r := newReducer()
	s := r.Reduce(RegisterEmailState{}, OtpSent{Code: "000042"})

	s = r.Reduce(s, OtpTyped{Value: "00004"})
	assert.Equal(t, model.InputEmpty, s.OtpState)

	s = r.Reduce(s, OtpTyped{Value: "000042"})
	assert.Equal(t, model.InputNone, s.OtpState)

	s = r.Reduce(s, OtpTyped{Value: "0000421"})
	assert.Equal(t, "000042", s.TypedOtp)
}

func TestRegisterEmailReducer_CountdownExpires(t *testing.T) {
	r := newReducer()
	s := r.Reduce(RegisterEmailState{}, EmailTyped{Value: "me@example.com"})
	s = r.Reduce(s, OtpSent{Code: "123456"})

	require.Equal(t, 180, s.RemainingSeconds)
	require.Equal(t, model.InputValid, s.EmailState)

	for range 179 {
		s = r.Reduce(s, CountdownTick{})
	}
	assert.Equal(t, 1, s.RemainingSeconds)
	assert.Equal(t, PhaseOtpSent, s.Phase)
	assert.Equal(t, "123456", s.Otp)

	s = r.Reduce(s, CountdownTick{})
	assert.Equal(t, PhaseExpired, s.Phase)
	assert.Equal(t, "", s.Otp)
	assert.Equal(t, 0, s.RemainingSeconds)
	assert.Equal(t, "me@example.com", s.TypedEmail)
	assert.Equal(t, model.InputNone, s.EmailState)

	// ticks after expiry change nothing
	assert.Equal(t, s, r.Reduce(s, CountdownTick{}))
}

func TestRegisterEmailReducer_OtpRejectedOnlyWhileSent(t *testing.T) {
	r := newReducer()

	idle := r.Reduce(RegisterEmailState{}, OtpRejected{})
	assert.Equal(t, model.InputEmpty, idle.OtpState)

	s := r.Reduce(RegisterEmailState{}, OtpSent{Code: "123456"})
	s = r.Reduce(s, OtpRejected{})
	assert.Equal(t, model.InputInvalid, s.OtpState)
	assert.Equal(t, PhaseOtpSent, s.Phase)
}

type registerFixture struct {
	flow   *RegisterEmail
	store  model.PreferenceStore
	sender *mocks.MailSender
	ticker *manualTicker
}

func newRegisterFixture(t *testing.T, codes ...string) *registerFixture {
	t.Helper()

	store := newStore(t, nil)
	sender := mocks.NewMailSender(t)
	ticker := newManualTicker()

	next := 0
	f := NewRegisterEmail(
		service.NewEmail(store, sender, testutil.MakeNoopLogger()),
		testutil.MakeNoopLogger(),
		WithTicker(ticker.start),
		WithOtpGenerator(func() string {
			code := codes[next]
			next++
			return code
		}),
	)
	t.Cleanup(f.Close)

	return &registerFixture{flow: f, store: store, sender: sender, ticker: ticker}
}

func remainingIs(f *RegisterEmail, seconds int) func() bool {
	return func() bool { return f.State().RemainingSeconds == seconds }
}

func TestRegisterEmail_VerifyAtLastSecond(t *testing.T) {
	ctx := context.Background()
	fx := newRegisterFixture(t, "042042")
	fx.sender.On("Send", mock.Anything, "me@example.com", mock.MatchedBy(func(c model.MailContent) bool {
		return c.Content == "042042" && c.Title == testTexts.Title
	})).Return(nil).Once()

	fx.flow.OnTypedEmailChange("me@example.com")
	require.NoError(t, fx.flow.SendVerificationEmail(ctx, testTexts))

	st := fx.flow.State()
	assert.Equal(t, 180, st.RemainingSeconds)
	assert.Equal(t, PhaseOtpSent, st.Phase)
	assert.Equal(t, model.InputValid, st.EmailState)

	fx.ticker.tick(t, 179)
	require.Eventually(t, remainingIs(fx.flow, 1), time.Second, time.Millisecond)

	fx.flow.OnTypedOtpChange("042042")
	matched, err := fx.flow.SubmitOtp(ctx)
	require.NoError(t, err)
	assert.True(t, matched)

	st = fx.flow.State()
	assert.Equal(t, PhaseVerified, st.Phase)
	assert.Equal(t, "", st.Otp)
	email, _ := fx.store.Get(model.KeyEmail)
	assert.Equal(t, "me@example.com", email)
	assert.Equal(t, []EventKind{EventShowLoading, EventHideLoading, EventMatch, EventNavigate}, drain(fx.flow.Events()))
}

func TestRegisterEmail_CountdownExpires(t *testing.T) {
	ctx := context.Background()
	fx := newRegisterFixture(t, "123456")
	fx.sender.On("Send", mock.Anything, "me@example.com", mock.Anything).Return(nil).Once()

	fx.flow.OnTypedEmailChange("me@example.com")
	require.NoError(t, fx.flow.SendVerificationEmail(ctx, testTexts))

	fx.ticker.tick(t, 180)
	require.Eventually(t, func() bool { return fx.flow.State().Phase == PhaseExpired }, time.Second, time.Millisecond)

	st := fx.flow.State()
	assert.Equal(t, "", st.Otp)
	assert.Equal(t, 0, st.RemainingSeconds)
	assert.Equal(t, model.InputNone, st.EmailState)

	fx.flow.OnTypedOtpChange("123456")
	matched, err := fx.flow.SubmitOtp(ctx)
	require.NoError(t, err)
	assert.False(t, matched)
	_, stored := fx.store.Get(model.KeyEmail)
	assert.False(t, stored)
}

func TestRegisterEmail_WrongCodeFlagsInput(t *testing.T) {
	ctx := context.Background()
	fx := newRegisterFixture(t, "123456")
	fx.sender.On("Send", mock.Anything, "me@example.com", mock.Anything).Return(nil).Once()

	fx.flow.OnTypedEmailChange("me@example.com")
	require.NoError(t, fx.flow.SendVerificationEmail(ctx, testTexts))

	fx.flow.OnTypedOtpChange("654321")
	matched, err := fx.flow.SubmitOtp(ctx)
	require.NoError(t, err)
	assert.False(t, matched)
	assert.Equal(t, model.InputInvalid, fx.flow.State().OtpState)
	assert.Equal(t, PhaseOtpSent, fx.flow.State().Phase)

	// retry before expiry
	fx.flow.OnTypedOtpChange("123456")
	matched, err = fx.flow.SubmitOtp(ctx)
	require.NoError(t, err)
	assert.True(t, matched)
}

func TestRegisterEmail_InvalidEmailNotSent(t *testing.T) {
	fx := newRegisterFixture(t)

	fx.flow.OnTypedEmailChange("not-an-email")
	err := fx.flow.SendVerificationEmail(context.Background(), testTexts)

	assert.ErrorIs(t, err, model.ErrInvalidInput)
	fx.sender.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything)
	assert.Empty(t, drain(fx.flow.Events()))
}

func TestRegisterEmail_SendFailure(t *testing.T) {
	fx := newRegisterFixture(t, "123456")
	fx.sender.On("Send", mock.Anything, "me@example.com", mock.Anything).Return(errors.New("connection refused"))

	fx.flow.OnTypedEmailChange("me@example.com")
	err := fx.flow.SendVerificationEmail(context.Background(), testTexts)

	assert.ErrorIs(t, err, model.ErrMailSendFailed)
	assert.Equal(t, PhaseAwaitingEmail, fx.flow.State().Phase)
	assert.Equal(t, "", fx.flow.State().Otp)
	assert.Equal(t, []EventKind{EventShowLoading, EventToast, EventHideLoading}, drain(fx.flow.Events()))
}

func TestRegisterEmail_ResendReplacesSession(t *testing.T) {
	ctx := context.Background()
	fx := newRegisterFixture(t, "111111", "222222")
	fx.sender.On("Send", mock.Anything, "me@example.com", mock.Anything).Return(nil).Twice()

	fx.flow.OnTypedEmailChange("me@example.com")
	require.NoError(t, fx.flow.SendVerificationEmail(ctx, testTexts))
	fx.ticker.tick(t, 10)
	require.Eventually(t, remainingIs(fx.flow, 170), time.Second, time.Millisecond)

	require.NoError(t, fx.flow.SendVerificationEmail(ctx, testTexts))
	assert.Equal(t, 180, fx.flow.State().RemainingSeconds)
	assert.Equal(t, "222222", fx.flow.State().Otp)

	fx.flow.OnTypedOtpChange("111111")
	matched, err := fx.flow.SubmitOtp(ctx)
	require.NoError(t, err)
	assert.False(t, matched)
}

func TestRegisterEmail_ResetStartsClean(t *testing.T) {
	fx := newRegisterFixture(t, "123456")
	fx.sender.On("Send", mock.Anything, "me@example.com", mock.Anything).Return(nil).Once()

	fx.flow.OnTypedEmailChange("me@example.com")
	require.NoError(t, fx.flow.SendVerificationEmail(context.Background(), testTexts))
	fx.flow.OnTypedOtpChange("123")

	fx.flow.Reset()

	assert.Equal(t, RegisterEmailState{}, fx.flow.State())

	require.Eventually(t, fx.ticker.stopped.Load, time.Second, time.Millisecond)
	select {
	case fx.ticker.ch <- time.Now():
		t.Fatal("countdown still running after reset")
	case <-time.After(20 * time.Millisecond):
	}
}
