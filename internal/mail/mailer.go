// Package mail delivers transactional email: two-factor login codes and
// password-reset links.
package mail

import (
	"context"
	"fmt"

	"taskboard/internal/config"
	"taskboard/internal/middleware"

	gomail "github.com/wneessen/go-mail"
)

// Mailer sends the transactional messages the login flows depend on.
type Mailer interface {
	SendTwoFactorCode(ctx context.Context, to, name, code string) error
	SendPasswordReset(ctx context.Context, to, name, resetURL string) error
}

// NewFromConfig returns an SMTP mailer when SMTP_HOST is configured, and a
// log-only mailer otherwise so local development works without a relay.
func NewFromConfig(cfg *config.Config) (Mailer, error) {
	if cfg.SMTPHost == "" {
		middleware.Logger.Info("SMTP not configured, emails are logged only")
		return &LogMailer{}, nil
	}

	opts := []gomail.Option{
		gomail.WithPort(cfg.SMTPPort),
		gomail.WithTLSPolicy(gomail.TLSOpportunistic),
	}
	if cfg.SMTPUser != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(cfg.SMTPUser),
			gomail.WithPassword(cfg.SMTPPassword),
		)
	}

	client, err := gomail.NewClient(cfg.SMTPHost, opts...)
	if err != nil {
		return nil, fmt.Errorf("smtp client: %w", err)
	}

	return &SMTPMailer{client: client, from: cfg.FromEmail}, nil
}

// SMTPMailer delivers mail through an SMTP relay.
type SMTPMailer struct {
	client *gomail.Client
	from   string
}

func (m *SMTPMailer) send(ctx context.Context, to, subject, html string) error {
	msg := gomail.NewMsg()
	if err := msg.From(m.from); err != nil {
		return fmt.Errorf("mail from: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("mail to: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextHTML, html)

	if err := m.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	return nil
}

func (m *SMTPMailer) SendTwoFactorCode(ctx context.Context, to, name, code string) error {
	return m.send(ctx, to, "Your verification code", twoFactorBody(name, code))
}

func (m *SMTPMailer) SendPasswordReset(ctx context.Context, to, name, resetURL string) error {
	return m.send(ctx, to, "Reset your password", resetBody(name, resetURL))
}

// LogMailer writes messages to the structured log instead of sending them.
type LogMailer struct{}

func (m *LogMailer) SendTwoFactorCode(ctx context.Context, to, name, code string) error {
	middleware.Logger.InfoContext(ctx, "two-factor code email (log only)",
		"to", to, "name", name, "code", code)
	return nil
}

func (m *LogMailer) SendPasswordReset(ctx context.Context, to, name, resetURL string) error {
	middleware.Logger.InfoContext(ctx, "password reset email (log only)",
		"to", to, "name", name, "reset_url", resetURL)
	return nil
}

func twoFactorBody(name, code string) string {
	return fmt.Sprintf(`
<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2>Verification code</h2>
  <p>Hi, <strong>%s</strong>!</p>
  <p>Your two-factor verification code is:</p>
  <div style="background: #EDF2F7; padding: 20px; text-align: center; margin: 20px 0; border-radius: 8px;">
    <h1 style="font-size: 32px; letter-spacing: 8px; margin: 0;">%s</h1>
  </div>
  <p>This code expires in <strong>10 minutes</strong>.</p>
  <p>If you did not request this code you can ignore this email.</p>
</div>`, name, code)
}

func resetBody(name, resetURL string) string {
	return fmt.Sprintf(`
<p>Hi, %s!</p>
<p>Click the link below to reset your password:</p>
<a href="%s" target="_blank">%s</a>
<p>This link expires in 15 minutes.</p>`, name, resetURL, resetURL)
}
