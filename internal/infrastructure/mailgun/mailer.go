package mailgun

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	mg "github.com/mailgun/mailgun-go/v4"

	"github.com/go-newsletter-signup/internal/config"
)

const sendTimeout = 10 * time.Second

// Mailer delivers plain-text mail through the Mailgun HTTP API.
type Mailer struct {
	client *mg.MailgunImpl
	sender string
}

// NewMailer builds a Mailgun client. cfg.MailgunAPIBase selects another
// endpoint such as mg.APIBaseEU; it must end in the API version (/v3).
func NewMailer(cfg *config.Config, senderName string) *Mailer {
	from := mail.Address{Name: senderName, Address: cfg.MailSender}
	client := mg.NewMailgun(cfg.MailgunDomain, cfg.MailgunAPIKey)
	if cfg.MailgunAPIBase != "" {
		client.SetAPIBase(strings.TrimRight(cfg.MailgunAPIBase, "/"))
	}
	return &Mailer{client: client, sender: from.String()}
}

func (m *Mailer) SendEmail(ctx context.Context, to, subject, body string) error {
	msg := m.client.NewMessage(m.sender, subject, body, to)
	c, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()
	if _, _, err := m.client.Send(c, msg); err != nil {
		return fmt.Errorf("mailgun send: %w", err)
	}
	return nil
}
