package mail

import (
	"context"
	"embed"
	"fmt"
	"html/template"

	gomail "github.com/wneessen/go-mail"

	"github.com/dtroode/appblock/internal/config"
	"github.com/dtroode/appblock/internal/logger"
	"github.com/dtroode/appblock/internal/model"
)

//go:embed templates/message.html
var templates embed.FS

var messageTemplate = template.Must(template.ParseFS(templates, "templates/message.html"))

var _ model.MailSender = (*SMTPSender)(nil)

type dialer interface {
	DialAndSendWithContext(ctx context.Context, messages ...*gomail.Msg) error
}

// SMTPSender delivers mail through an authenticated SMTP server.
type SMTPSender struct {
	client dialer
	from   string
	logger *logger.Logger
}

// NewSMTPSender creates a sender that requires STARTTLS and plain auth.
func NewSMTPSender(cfg config.SMTP, logger *logger.Logger) (*SMTPSender, error) {
	client, err := gomail.NewClient(cfg.Host,
		gomail.WithPort(cfg.Port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(cfg.Username),
		gomail.WithPassword(cfg.Password),
		gomail.WithTLSPolicy(gomail.TLSMandatory),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create smtp client: %w", err)
	}

	from := cfg.From
	if from == "" {
		from = cfg.Username
	}

	return newSMTPSender(client, from, logger), nil
}

func newSMTPSender(client dialer, from string, logger *logger.Logger) *SMTPSender {
	return &SMTPSender{
		client: client,
		from:   from,
		logger: logger,
	}
}

// Send renders content into the HTML template and delivers it to to.
func (s *SMTPSender) Send(ctx context.Context, to string, content model.MailContent) error {
	msg, err := s.build(to, content)
	if err != nil {
		return err
	}

	if err := s.client.DialAndSendWithContext(ctx, msg); err != nil {
		s.logger.Error("Mail sender: failed to send", "to", to, "error", err.Error())
		return fmt.Errorf("failed to send mail: %w", err)
	}

	s.logger.Info("Mail sender: sent", "to", to, "subject", content.Title)
	return nil
}

func (s *SMTPSender) build(to string, content model.MailContent) (*gomail.Msg, error) {
	msg := gomail.NewMsg()
	if err := msg.From(s.from); err != nil {
		return nil, fmt.Errorf("invalid sender address: %w", err)
	}
	if err := msg.To(to); err != nil {
		return nil, fmt.Errorf("invalid recipient address: %w", err)
	}
	msg.Subject(content.Title)

	if err := msg.SetBodyHTMLTemplate(messageTemplate, content); err != nil {
		return nil, fmt.Errorf("failed to render mail: %w", err)
	}
	msg.AddAlternativeString(gomail.TypeTextPlain, content.Content)

	return msg, nil
}

// LogSender writes outgoing mail to the log instead of delivering it. It
// is used when no SMTP account is configured, so codes and recovery
// passwords are read from the daemon log.
type LogSender struct {
	logger *logger.Logger
}

func NewLogSender(logger *logger.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(_ context.Context, to string, content model.MailContent) error {
	s.logger.Warn("Mail sender: smtp not configured, mail written to log",
		"to", to,
		"subject", content.Title,
		"content", content.Content,
	)
	return nil
}
