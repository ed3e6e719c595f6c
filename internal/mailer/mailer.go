// Package mailer sends transactional email through Resend.
package mailer

import (
	"context"
	"fmt"

	"github.com/resend/resend-go/v2"
)

// Mailer sends account email from a fixed sender address.
type Mailer struct {
	client *resend.Client
	from   string
}

// New creates a Mailer authenticated with the given Resend API key.
func New(apiKey, from string) *Mailer {
	return &Mailer{
		client: resend.NewClient(apiKey),
		from:   from,
	}
}

// SendPasswordReset emails a password reset link to the user.
func (m *Mailer) SendPasswordReset(ctx context.Context, toEmail, username, resetLink string) error {
	params := &resend.SendEmailRequest{
		From:    m.from,
		To:      []string{toEmail},
		Subject: "Password Reset Request",
		Html: fmt.Sprintf(
			`<p>Hi %s,</p>`+
				`<p>You requested a password reset. Click the link below to reset your password:</p>`+
				`<a href="%s">Reset Password</a>`+
				`<p>If you did not request this, please ignore this email.</p>`,
			username, resetLink),
	}

	if _, err := m.client.Emails.SendWithContext(ctx, params); err != nil {
		return fmt.Errorf("sending reset email: %w", err)
	}
	return nil
}
