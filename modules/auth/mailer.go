package auth

import (
	"context"
	"fmt"

	"github.com/barberbook/backend/pkg/email"
	"github.com/barberbook/backend/pkg/tenant"
)

// Mailer sends the password recovery email. The auth service never learns
// how the message is delivered.
type Mailer interface {
	SendPasswordReset(ctx context.Context, to string, tn *tenant.Tenant, resetURL string) error
}

type emailMailer struct {
	sender email.Sender
}

// NewMailer adapts an email.Sender into the auth module's Mailer.
func NewMailer(sender email.Sender) Mailer {
	return &emailMailer{sender: sender}
}

func (m *emailMailer) SendPasswordReset(ctx context.Context, to string, tn *tenant.Tenant, resetURL string) error {
	body := fmt.Sprintf(`<p>Hello,</p>
<p>A password reset was requested for your %s administrator account.</p>
<p><a href="%s">Reset your password</a></p>
<p>The link is valid for one hour and can be used once. If you did not
request this, you can ignore this email.</p>`, tn.Name, resetURL)

	return m.sender.SendEmail(ctx, email.SendEmailParams{
		SendTo:   to,
		Subject:  fmt.Sprintf("Reset your %s password", tn.Name),
		BodyHTML: body,
		Tag:      "password-reset",
	})
}
