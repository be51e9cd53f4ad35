package flow

import (
	"context"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/dtroode/appblock/internal/logger"
	"github.com/dtroode/appblock/internal/model"
	"github.com/dtroode/appblock/internal/service"
)

// OtpLifetime is how long a sent code stays valid.
const OtpLifetime = 180 * time.Second

// Phase is the stage of an email verification attempt.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseAwaitingEmail
	PhaseOtpSent
	PhaseExpired
	PhaseVerified
)

func (p Phase) String() string {
	switch p {
	case PhaseAwaitingEmail:
		return "awaiting_email"
	case PhaseOtpSent:
		return "otp_sent"
	case PhaseExpired:
		return "expired"
	case PhaseVerified:
		return "verified"
	default:
		return "idle"
	}
}

// RegisterEmailState is what the registration screen renders. Otp is
// empty while no code is outstanding.
type RegisterEmailState struct {
	TypedEmail       string
	TypedOtp         string
	Otp              string
	EmailState       model.TextInputState
	OtpState         model.TextInputState
	RemainingSeconds int
	Loading          bool
	Phase            Phase
}

// RegisterEmailAction is an input of RegisterEmailReducer.
type RegisterEmailAction interface {
	registerEmailAction()
}

type (
	EmailTyped        struct{ Value string }
	OtpSent           struct{ Code string }
	CountdownTick     struct{}
	OtpTyped          struct{ Value string }
	OtpRejected       struct{}
	OtpAccepted       struct{}
	LoadingChanged    struct{ Loading bool }
	RegistrationReset struct{}
)

func (EmailTyped) registerEmailAction()        {}
func (OtpSent) registerEmailAction()           {}
func (CountdownTick) registerEmailAction()     {}
func (OtpTyped) registerEmailAction()          {}
func (OtpRejected) registerEmailAction()       {}
func (OtpAccepted) registerEmailAction()       {}
func (LoadingChanged) registerEmailAction()    {}
func (RegistrationReset) registerEmailAction() {}

// RegisterEmailReducer is the pure state machine of email verification.
type RegisterEmailReducer struct {
	IsValidEmail func(string) bool
}

// Reduce returns the state that follows s after action.
func (r RegisterEmailReducer) Reduce(s RegisterEmailState, action RegisterEmailAction) RegisterEmailState {
	switch a := action.(type) {
	case EmailTyped:
		if utf8.RuneCountInString(a.Value) > service.MaxEmailLength {
			return s
		}
		return r.editing(a.Value)

	case OtpSent:
		s.Otp = a.Code
		s.TypedOtp = ""
		s.OtpState = model.InputEmpty
		s.EmailState = model.InputValid
		s.RemainingSeconds = int(OtpLifetime / time.Second)
		s.Phase = PhaseOtpSent
		return s

	case CountdownTick:
		if s.Phase != PhaseOtpSent || s.RemainingSeconds <= 0 {
			return s
		}
		s.RemainingSeconds--
		if s.RemainingSeconds == 0 {
			expired := r.editing(s.TypedEmail)
			expired.Phase = PhaseExpired
			return expired
		}
		return s

	case OtpTyped:
		if utf8.RuneCountInString(a.Value) > service.OtpLength {
			return s
		}
		s.TypedOtp = a.Value
		s.OtpState = model.InputEmpty
		if utf8.RuneCountInString(a.Value) == service.OtpLength {
			s.OtpState = model.InputNone
		}
		return s

	case OtpRejected:
		if s.Phase == PhaseOtpSent {
			s.OtpState = model.InputInvalid
		}
		return s

	case OtpAccepted:
		s.Otp = ""
		s.RemainingSeconds = 0
		s.Phase = PhaseVerified
		return s

	case LoadingChanged:
		s.Loading = a.Loading
		return s

	case RegistrationReset:
		return RegisterEmailState{}
	}

	return s
}

func (r RegisterEmailReducer) editing(email string) RegisterEmailState {
	s := RegisterEmailState{TypedEmail: email}
	switch {
	case email == "":
		s.EmailState = model.InputEmpty
	case r.IsValidEmail(email):
		s.EmailState = model.InputNone
		s.Phase = PhaseAwaitingEmail
	default:
		s.EmailState = model.InputInvalid
		s.Phase = PhaseAwaitingEmail
	}
	return s
}

// TickerFunc starts a ticker and returns its channel and stop function.
type TickerFunc func(d time.Duration) (<-chan time.Time, func())

func realTicker(d time.Duration) (<-chan time.Time, func()) {
	t := time.NewTicker(d)
	return t.C, t.Stop
}

// RegisterEmailOption configures RegisterEmail.
type RegisterEmailOption func(*RegisterEmail)

// WithTicker replaces the one-second countdown ticker.
func WithTicker(ticker TickerFunc) RegisterEmailOption {
	return func(f *RegisterEmail) {
		f.newTicker = ticker
	}
}

// WithOtpGenerator replaces the one-time code generator.
func WithOtpGenerator(generate func() string) RegisterEmailOption {
	return func(f *RegisterEmail) {
		f.generateOtp = generate
	}
}

// RegisterEmail verifies an address with a mailed one-time code and
// stores it. At most one code is outstanding; sending again, editing the
// address or resetting discards the previous session and its countdown.
type RegisterEmail struct {
	email       EmailService
	reducer     RegisterEmailReducer
	state       *stateHolder[RegisterEmailState]
	events      *eventQueue
	newTicker   TickerFunc
	generateOtp func() string
	logger      *logger.Logger

	// mu guards the session generation and serializes session transitions.
	mu              sync.Mutex
	generation      uint64
	cancelCountdown context.CancelFunc
}

func NewRegisterEmail(email EmailService, logger *logger.Logger, opts ...RegisterEmailOption) *RegisterEmail {
	f := &RegisterEmail{
		email:       email,
		reducer:     RegisterEmailReducer{IsValidEmail: email.IsValid},
		state:       newStateHolder(RegisterEmailState{}),
		events:      newEventQueue("Register email", logger),
		newTicker:   realTicker,
		generateOtp: service.GenerateOtp,
		logger:      logger,
	}
	for _, opt := range opts {
		opt(f)
	}

	return f
}

func (f *RegisterEmail) State() RegisterEmailState {
	return f.state.get()
}

func (f *RegisterEmail) Watch(ctx context.Context) <-chan RegisterEmailState {
	return f.state.watch(ctx)
}

func (f *RegisterEmail) Events() <-chan Event {
	return f.events.ch
}

func (f *RegisterEmail) dispatch(action RegisterEmailAction) RegisterEmailState {
	return f.state.update(func(s RegisterEmailState) RegisterEmailState {
		return f.reducer.Reduce(s, action)
	})
}

// OnTypedEmailChange edits the address. Any outstanding code is dropped.
func (f *RegisterEmail) OnTypedEmailChange(value string) {
	if utf8.RuneCountInString(value) > service.MaxEmailLength {
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.endSessionLocked()
	f.dispatch(EmailTyped{Value: value})
}

func (f *RegisterEmail) OnTypedOtpChange(value string) {
	f.dispatch(OtpTyped{Value: value})
}

// SendVerificationEmail mails a new code to the typed address and starts
// the countdown. content.Content is replaced with the code.
func (f *RegisterEmail) SendVerificationEmail(ctx context.Context, content model.MailContent) error {
	f.mu.Lock()
	st := f.state.get()
	if st.EmailState != model.InputNone && st.EmailState != model.InputValid {
		f.mu.Unlock()
		return model.ErrInvalidInput
	}
	f.endSessionLocked()
	if st.Phase == PhaseOtpSent {
		f.dispatch(EmailTyped{Value: st.TypedEmail})
	}
	generation := f.generation
	f.mu.Unlock()

	code := f.generateOtp()
	content.Content = code

	f.events.emit(Event{Kind: EventShowLoading})
	defer f.events.emit(Event{Kind: EventHideLoading})

	if err := f.email.Send(ctx, st.TypedEmail, content); err != nil {
		f.events.toast(err)
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.generation != generation {
		f.logger.Debug("Register email flow: verification superseded", "generation", generation)
		return nil
	}
	f.dispatch(OtpSent{Code: code})
	f.startCountdownLocked(generation)

	return nil
}

// SubmitOtp checks the typed code. On a match the address is stored and
// the session ends as verified; a mismatch flags the code as invalid.
func (f *RegisterEmail) SubmitOtp(ctx context.Context) (bool, error) {
	st := f.state.get()
	if st.Phase != PhaseOtpSent || st.Otp == "" || st.TypedOtp != st.Otp {
		f.dispatch(OtpRejected{})
		f.events.emit(Event{Kind: EventNotMatch})
		return false, nil
	}
	f.events.emit(Event{Kind: EventMatch})

	f.dispatch(LoadingChanged{Loading: true})
	defer f.dispatch(LoadingChanged{Loading: false})

	if err := f.email.Store(ctx, st.TypedEmail); err != nil {
		f.events.toast(err)
		return true, err
	}

	f.mu.Lock()
	f.endSessionLocked()
	f.dispatch(OtpAccepted{})
	f.mu.Unlock()

	f.events.emit(Event{Kind: EventNavigate})
	return true, nil
}

// Reset discards everything, as when the screen is left.
func (f *RegisterEmail) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.endSessionLocked()
	f.dispatch(RegistrationReset{})
}

// Close stops the countdown. The flow must not be used afterwards.
func (f *RegisterEmail) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.endSessionLocked()
}

func (f *RegisterEmail) endSessionLocked() {
	f.generation++
	if f.cancelCountdown != nil {
		f.cancelCountdown()
		f.cancelCountdown = nil
	}
}

func (f *RegisterEmail) startCountdownLocked(generation uint64) {
	ctx, cancel := context.WithCancel(context.Background())
	f.cancelCountdown = cancel
	ticks, stop := f.newTicker(time.Second)

	go func() {
		defer stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticks:
				f.mu.Lock()
				if f.generation != generation {
					f.mu.Unlock()
					return
				}
				next := f.dispatch(CountdownTick{})
				if next.Phase != PhaseOtpSent {
					f.cancelCountdown = nil
					f.mu.Unlock()
					cancel()
					f.logger.Debug("Register email flow: code expired")
					return
				}
				f.mu.Unlock()
			}
		}
	}()
}
