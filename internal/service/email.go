package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/resend/resend-go/v2"
)

type EmailService struct {
	client    *resend.Client
	fromEmail string
	isDev     bool
	appURL    string
	appName   string
}

func NewEmailService(apiKey, fromEmail, appURL, appName string, isDev bool) *EmailService {
	var client *resend.Client
	if apiKey != "" && !isDev {
		client = resend.NewClient(apiKey)
	}

	return &EmailService{
		client:    client,
		fromEmail: fromEmail,
		isDev:     isDev,
		appURL:    appURL,
		appName:   appName,
	}
}

func (s *EmailService) SendVerificationEmail(ctx context.Context, email, token, name string) error {
	verifyURL := fmt.Sprintf("%s/auth/callback?token=%s&type=signup", s.appURL, token)
	subject, body := verificationEmailTemplate(displayName(name), verifyURL, s.appName)
	return s.send(ctx, "email_verification", email, subject, body, verifyURL)
}

func (s *EmailService) SendPasswordResetEmail(ctx context.Context, email, token string) error {
	resetURL := fmt.Sprintf("%s/auth/reset-password/%s", s.appURL, token)
	subject, body := passwordResetEmailTemplate(resetURL, s.appName)
	return s.send(ctx, "password_reset", email, subject, body, resetURL)
}

func (s *EmailService) SendWelcomeEmail(ctx context.Context, email, name string) error {
	subject, body := welcomeEmailTemplate(displayName(name), s.appURL, s.appName)
	return s.send(ctx, "welcome", email, subject, body, s.appURL)
}

func (s *EmailService) SendAccountMergedEmail(ctx context.Context, email, name string) error {
	subject, body := accountMergedEmailTemplate(displayName(name), s.appURL+"/auth/login", s.appName)
	return s.send(ctx, "account_merged", email, subject, body, "")
}

// send delivers through Resend. In development the email is only logged,
// including its link so flows can be followed locally.
func (s *EmailService) send(ctx context.Context, kind, to, subject, body, url string) error {
	if s.isDev {
		slog.Info("email sent (dev mode)", "type", kind, "to", to, "subject", subject, "url", url)
		return nil
	}

	if s.client == nil {
		return fmt.Errorf("email service not configured (missing RESEND_API_KEY)")
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

func displayName(name string) string {
	if name == "" {
		return "there"
	}
	return name
}
