// Package mailer sends transactional mail, currently password-reset links.
package mailer

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"
)

// Mailer sends transactional mail.
type Mailer interface {
	SendPasswordReset(ctx context.Context, to, token string) error
}

// SMTPConfig contains SMTP connection settings and the frontend base URL used
// to build reset links.
type SMTPConfig struct {
	Host        string
	Port        int
	Username    string
	Password    string
	From        string
	FrontendURL string
}

// SMTPMailer implements Mailer over plain SMTP.
type SMTPMailer struct {
	cfg    SMTPConfig
	logger *slog.Logger
}

// NewSMTPMailer creates a mailer from the given config.
func NewSMTPMailer(cfg SMTPConfig, logger *slog.Logger) *SMTPMailer {
	if logger == nil {
		logger = slog.Default()
	}
	return &SMTPMailer{cfg: cfg, logger: logger}
}

// SendPasswordReset mails a reset link carrying the token.
func (m *SMTPMailer) SendPasswordReset(ctx context.Context, to, token string) error {
	msg := BuildResetMessage(m.cfg.From, to, ResetLink(m.cfg.FrontendURL, token))

	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}

	if err := smtp.SendMail(addr, auth, m.cfg.From, []string{to}, []byte(msg)); err != nil {
		m.logger.ErrorContext(ctx, "failed to send password reset mail",
			slog.String("to", to),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("failed to send mail: %w", err)
	}

	return nil
}

// ResetLink builds the frontend reset URL for a token.
func ResetLink(frontendURL, token string) string {
	return strings.TrimSuffix(frontendURL, "/") + "/reset-password?token=" + token
}

// BuildResetMessage renders the full RFC 5322 message for a reset mail.
func BuildResetMessage(from, to, link string) string {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + to + "\r\n")
	b.WriteString("Subject: Reset your password\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	b.WriteString("\r\n")
	b.WriteString("Someone requested a password reset for your account.\r\n\r\n")
	b.WriteString("Open the link below within 5 minutes to choose a new password:\r\n\r\n")
	b.WriteString(link + "\r\n\r\n")
	b.WriteString("If you did not request this, you can ignore this mail.\r\n")
	return b.String()
}

// NoopMailer logs the reset link instead of sending mail. Used in development
// when no SMTP server is configured.
type NoopMailer struct {
	FrontendURL string
	Logger      *slog.Logger
}

// SendPasswordReset logs the reset link.
func (m NoopMailer) SendPasswordReset(ctx context.Context, to, token string) error {
	logger := m.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.InfoContext(ctx, "password reset requested",
		slog.String("to", to),
		slog.String("link", ResetLink(m.FrontendURL, token)),
	)
	return nil
}
