package mailer_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/unbored-app/unbored/internal/infrastructure/mailer"
)

func TestResetLink(t *testing.T) {
	assert.Equal(t,
		"https://app.example.com/reset-password?token=abc",
		mailer.ResetLink("https://app.example.com", "abc"),
	)
	// trailing slash collapses
	assert.Equal(t,
		"https://app.example.com/reset-password?token=abc",
		mailer.ResetLink("https://app.example.com/", "abc"),
	)
}

func TestBuildResetMessage(t *testing.T) {
	msg := mailer.BuildResetMessage("no-reply@unbored.app", "alice@example.com", "https://x/reset-password?token=t")

	assert.Contains(t, msg, "From: no-reply@unbored.app\r\n")
	assert.Contains(t, msg, "To: alice@example.com\r\n")
	assert.Contains(t, msg, "Subject: Reset your password\r\n")
	assert.Contains(t, msg, "https://x/reset-password?token=t")
	// headers and body are separated by a blank line
	assert.Contains(t, msg, "\r\n\r\n")
}

func TestNoopMailer(t *testing.T) {
	m := mailer.NoopMailer{FrontendURL: "http://localhost:3000"}

	assert.NoError(t, m.SendPasswordReset(context.Background(), "alice@example.com", "tok"))
}
