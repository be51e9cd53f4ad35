package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/dtroode/appblock/internal/logger"
	"github.com/dtroode/appblock/internal/model"
)

// MaxEmailLength is the longest accepted address.
const MaxEmailLength = 254

var emailPattern = regexp.MustCompile(
	`^[a-zA-Z0-9+._%\-]{1,256}@[a-zA-Z0-9][a-zA-Z0-9\-]{0,64}(\.[a-zA-Z0-9][a-zA-Z0-9\-]{0,25})+$`,
)

// Email stores the recovery address and sends mail to it.
type Email struct {
	store  model.PreferenceStore
	sender model.MailSender
	logger *logger.Logger
}

func NewEmail(store model.PreferenceStore, sender model.MailSender, logger *logger.Logger) *Email {
	return &Email{
		store:  store,
		sender: sender,
		logger: logger,
	}
}

// IsValid reports whether email is a syntactically valid address.
func (s *Email) IsValid(email string) bool {
	return len(email) <= MaxEmailLength && emailPattern.MatchString(email)
}

// Registered returns the stored address, if any.
func (s *Email) Registered() (string, bool) {
	email, ok := s.store.Get(model.KeyEmail)
	if !ok || strings.TrimSpace(email) == "" {
		return "", false
	}
	return email, true
}

// WatchRegistered emits whether a non-blank address is stored.
func (s *Email) WatchRegistered(ctx context.Context) <-chan bool {
	return watchPreference(ctx, s.store, model.KeyEmail, func(pref model.Preference) bool {
		return pref.Present && strings.TrimSpace(pref.Value) != ""
	})
}

// Store persists email as the recovery address.
func (s *Email) Store(ctx context.Context, email string) error {
	if err := s.store.Set(ctx, model.KeyEmail, email); err != nil {
		s.logger.Error("Email service: failed to store email", "error", err.Error())
		return model.NewDataStoreFailure(model.ContextEmail, err)
	}

	s.logger.Info("Email service: email registered")
	return nil
}

// Send delivers content to the given address.
func (s *Email) Send(ctx context.Context, to string, content model.MailContent) error {
	if err := s.sender.Send(ctx, to, content); err != nil {
		s.logger.Error("Email service: failed to send email", "title", content.Title, "error", err.Error())
		return fmt.Errorf("%w: %v", model.ErrMailSendFailed, err)
	}

	return nil
}

// SendToRegistered delivers content to the stored address.
func (s *Email) SendToRegistered(ctx context.Context, content model.MailContent) error {
	to, ok := s.Registered()
	if !ok {
		return model.ErrNoRegisteredEmail
	}

	return s.Send(ctx, to, content)
}
