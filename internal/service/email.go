package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/resend/resend-go/v2"
)

var (
	ErrEmailNotConfigured = errors.New("email service not configured (missing RESEND_API_KEY)")
)

type EmailService struct {
	client    *resend.Client
	fromEmail string
	logOnly   bool
	appURL    string
	appName   string
}

// NewEmailService sends through Resend. With logOnly set (or no API key in
// log mode) messages are written to the log instead.
func NewEmailService(apiKey, fromEmail, appURL, appName string, logOnly bool) *EmailService {
	var client *resend.Client
	if apiKey != "" && !logOnly {
		client = resend.NewClient(apiKey)
	}

	return &EmailService{
		client:    client,
		fromEmail: fromEmail,
		logOnly:   logOnly,
		appURL:    appURL,
		appName:   appName,
	}
}

func (s *EmailService) SendAccountCreatedEmail(ctx context.Context, email, name string) error {
	loginURL := fmt.Sprintf("%s/auth", s.appURL)
	subject, body := accountCreatedEmailTemplate(name, email, loginURL, s.appName)
	return s.send(ctx, "account_created", email, subject, body)
}

func (s *EmailService) SendPasswordChangedEmail(ctx context.Context, email, name string) error {
	subject, body := passwordChangedEmailTemplate(name, s.appName)
	return s.send(ctx, "password_changed", email, subject, body)
}

func (s *EmailService) send(ctx context.Context, kind, to, subject, body string) error {
	if s.logOnly {
		slog.Info("email sent (log mode)", "type", kind, "to", to, "subject", subject)
		return nil
	}

	if s.client == nil {
		return ErrEmailNotConfigured
	}

	params := &resend.SendEmailRequest{
		From:    s.fromEmail,
		To:      []string{to},
		Subject: subject,
		Text:    body,
	}

	_, err := s.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		return fmt.Errorf("failed to send %s email: %w", kind, err)
	}

	slog.Info("email sent", "type", kind, "to", to)
	return nil
}
