package model

import "context"

// HomeOptions are the launch flags of the home navigation intent.
type HomeOptions struct {
	ExcludeFromRecents bool
	ForwardResult      bool
	NewTask            bool
	PreviousIsTop      bool
	ResetTaskIfNeeded  bool
}

// DefaultHomeOptions sends the user home without leaving a trace in recents.
var DefaultHomeOptions = HomeOptions{
	ExcludeFromRecents: true,
	ForwardResult:      true,
	NewTask:            true,
	PreviousIsTop:      true,
	ResetTaskIfNeeded:  true,
}

// Navigator brings the user to the home screen.
type Navigator interface {
	GoHome(ctx context.Context, opts HomeOptions) error
}

// NotificationService controls the persistent companion notification.
// Both operations are idempotent.
type NotificationService interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// MailContent holds the texts rendered into an outgoing email.
type MailContent struct {
	Title              string
	Content            string
	ContentDescription string
	ExtraDescription   string
}

// MailSender delivers an email to a single recipient.
type MailSender interface {
	Send(ctx context.Context, to string, content MailContent) error
}
