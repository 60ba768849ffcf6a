package email

import (
	"context"
	"fmt"
	"html"
	"log/slog"

	"github.com/resend/resend-go/v2"
	"github.com/yefosr/cms-backend/internal/models"
)

// Notifier sends contact-form notification emails through Resend. When no API
// key is configured the notifier is a no-op: Send logs a warning and returns
// nil, so a missing provider never fails the contact flow.
type Notifier struct {
	client *resend.Client
	to     string
	from   string
	log    *slog.Logger
}

// NewNotifier builds a Notifier. apiKey may be empty (disabled notifier).
func NewNotifier(apiKey, to, from string, log *slog.Logger) *Notifier {
	n := &Notifier{to: to, from: from, log: log}
	if apiKey != "" {
		n.client = resend.NewClient(apiKey)
	}
	return n
}

// Enabled reports whether the notifier has a configured provider and recipient.
func (n *Notifier) Enabled() bool {
	return n.client != nil && n.to != ""
}

// SendContactNotification emails the admin about a new contact message.
// Best-effort: callers treat a returned error as a logged warning, not a
// failure of the submission itself.
func (n *Notifier) SendContactNotification(ctx context.Context, m models.ContactMessage) error {
	if !n.Enabled() {
		n.log.Warn("email notifications disabled, skipping contact notification",
			"subject", m.Subject)
		return nil
	}

	subject := m.Subject
	if subject == "" {
		subject = "No Subject"
	}

	_, err := n.client.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    n.from,
		To:      []string{n.to},
		Subject: fmt.Sprintf("New Contact Form Message: %s", subject),
		Html:    contactTemplate(m),
	})
	if err != nil {
		return fmt.Errorf("send contact notification: %w", err)
	}
	return nil
}

func contactTemplate(m models.ContactMessage) string {
	phone := ""
	if m.Phone != "" {
		phone = fmt.Sprintf("<p><strong>Phone:</strong> %s</p>", html.EscapeString(m.Phone))
	}
	return fmt.Sprintf(`<div style="font-family: Arial, sans-serif; max-width: 600px;">
  <h1>New Contact Form Submission</h1>
  <p><strong>From:</strong> %s</p>
  <p><strong>Email:</strong> %s</p>
  %s
  <p><strong>Subject:</strong> %s</p>
  <div style="background-color:#f5f5f5;padding:15px;">
    <p style="white-space: pre-line;">%s</p>
  </div>
</div>`,
		html.EscapeString(m.Name),
		html.EscapeString(m.Email),
		phone,
		html.EscapeString(m.Subject),
		html.EscapeString(m.Message),
	)
}
