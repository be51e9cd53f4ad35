package controller

import (
	"context"
	"sync"
	"unicode/utf8"

	"github.com/dtroode/appblock/internal/config"
	"github.com/dtroode/appblock/internal/flow"
	"github.com/dtroode/appblock/internal/logger"
	"github.com/dtroode/appblock/internal/model"
	"github.com/dtroode/appblock/internal/permission"
	"github.com/dtroode/appblock/internal/service"
)

// Status is a snapshot of everything a client renders.
type Status struct {
	BlockEnabled    bool
	EmailRegistered bool
	PermissionStep  permission.Step
	BridgeAttached  bool
	Verification    Verification
}

// Verification describes the email registration in progress.
type Verification struct {
	Phase            flow.Phase
	Email            string
	RemainingSeconds int
}

type BlockStateReader interface {
	Enabled() bool
}

type EmailReader interface {
	Registered() (string, bool)
}

type StepReader interface {
	Step() permission.Step
}

type AttachReader interface {
	Attached() bool
}

// Controller drives the flows on behalf of remote clients. Calls are
// serialised because the flows hold the state of a single screen.
type Controller struct {
	home            *flow.Home
	setPassword     *flow.SetPassword
	confirmPassword *flow.ConfirmPassword
	registerEmail   *flow.RegisterEmail

	blockState BlockStateReader
	email      EmailReader
	steps      StepReader
	bridge     AttachReader

	mail   config.Mail
	logger *logger.Logger

	mu sync.Mutex
}

func New(
	home *flow.Home,
	setPassword *flow.SetPassword,
	confirmPassword *flow.ConfirmPassword,
	registerEmail *flow.RegisterEmail,
	blockState BlockStateReader,
	email EmailReader,
	steps StepReader,
	bridge AttachReader,
	mail config.Mail,
	logger *logger.Logger,
) *Controller {
	return &Controller{
		home:            home,
		setPassword:     setPassword,
		confirmPassword: confirmPassword,
		registerEmail:   registerEmail,
		blockState:      blockState,
		email:           email,
		steps:           steps,
		bridge:          bridge,
		mail:            mail,
		logger:          logger,
	}
}

// Start runs the flow subscriptions and logs their events until ctx is
// done.
func (c *Controller) Start(ctx context.Context) {
	c.home.Start(ctx)
	c.setPassword.Start(ctx)

	go c.logEvents(ctx, "home", c.home.Events())
	go c.logEvents(ctx, "set password", c.setPassword.Events())
	go c.logEvents(ctx, "confirm password", c.confirmPassword.Events())
	go c.logEvents(ctx, "register email", c.registerEmail.Events())
}

func (c *Controller) logEvents(ctx context.Context, name string, events <-chan flow.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-events:
			if ev.Err != nil {
				c.logger.Debug("Controller: flow event", "flow", name, "kind", ev.Kind.String(), "error", ev.Err.Error())
				continue
			}
			c.logger.Debug("Controller: flow event", "flow", name, "kind", ev.Kind.String())
		}
	}
}

// Close stops the verification countdown.
func (c *Controller) Close() {
	c.registerEmail.Close()
}

func (c *Controller) Status(_ context.Context) Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	st := c.registerEmail.State()
	_, registered := c.email.Registered()
	return Status{
		BlockEnabled:    c.blockState.Enabled(),
		EmailRegistered: registered,
		PermissionStep:  c.steps.Step(),
		BridgeAttached:  c.bridge.Attached(),
		Verification: Verification{
			Phase:            st.Phase,
			Email:            st.TypedEmail,
			RemainingSeconds: st.RemainingSeconds,
		},
	}
}

// TurnOn sets password as the new unlock password and enables blocking.
// While blocking is on the switch only offers the confirm dialog, so the
// stored password can not be replaced.
func (c *Controller) TurnOn(ctx context.Context, password string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.blockState.Enabled() {
		return model.ErrBlockingEnabled
	}

	if utf8.RuneCountInString(password) > service.PasswordMaxLength {
		return model.ErrInvalidInput
	}

	c.home.RequestToggle(true)
	defer c.home.DismissSetPassword()

	c.setPassword.Reset()
	c.setPassword.OnTypedValueChange(password)
	if err := c.setPassword.Submit(ctx); err != nil {
		return err
	}

	return c.home.TurnOn(ctx)
}

// TurnOff disables blocking when password matches. A wrong password
// leaves the block state untouched and reports false.
func (c *Controller) TurnOff(ctx context.Context, password string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.home.RequestToggle(false)
	defer c.home.DismissConfirmPassword()

	c.confirmPassword.Reset()
	c.confirmPassword.OnTypedValueChange(password)
	if !c.confirmPassword.Submit() {
		c.confirmPassword.OnPasswordWrong()
		c.logger.Info("Controller: wrong password, blocking stays on")
		return false, nil
	}

	if err := c.home.TurnOff(ctx); err != nil {
		return true, err
	}
	return true, nil
}

// RecoverPassword mails a new password to the registered address.
func (c *Controller) RecoverPassword(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.confirmPassword.SendRecoveryEmail(ctx, model.MailContent{
		Title:              c.mail.RecoveryTitle,
		ContentDescription: c.mail.RecoveryDescription,
		ExtraDescription:   c.mail.RecoveryExtra,
	})
}

// SendVerificationEmail starts a verification session for email and
// returns the seconds the code stays valid.
func (c *Controller) SendVerificationEmail(ctx context.Context, email string) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if utf8.RuneCountInString(email) > service.MaxEmailLength {
		return 0, model.ErrInvalidInput
	}

	c.registerEmail.OnTypedEmailChange(email)
	err := c.registerEmail.SendVerificationEmail(ctx, model.MailContent{
		Title:              c.mail.OtpTitle,
		ContentDescription: c.mail.OtpDescription,
		ExtraDescription:   c.mail.OtpExtra,
	})
	if err != nil {
		return 0, err
	}

	return c.registerEmail.State().RemainingSeconds, nil
}

// VerifyOtp submits code for the running session.
func (c *Controller) VerifyOtp(ctx context.Context, code string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if utf8.RuneCountInString(code) > service.OtpLength {
		return false, model.ErrInvalidInput
	}

	c.registerEmail.OnTypedOtpChange(code)
	return c.registerEmail.SubmitOtp(ctx)
}

// CancelVerification drops the running session.
func (c *Controller) CancelVerification(_ context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.registerEmail.Reset()
}
