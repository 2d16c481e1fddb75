// Package mailing composes the validation and welcome emails and hands them
// to a transport. Delivery problems are reported as false, never as a panic.
package mailing

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"text/template"
	"time"

	"github.com/go-newsletter-signup/internal/config"
)

// Mail kinds used in logs.
const (
	KindValidation = "validation"
	KindWelcome    = "welcome"
)

// Mailer is a mail transport (SMTP, Mailgun).
type Mailer interface {
	SendEmail(ctx context.Context, to, subject, body string) error
}

type templateData struct {
	Email         string
	SenderName    string
	ValidationURL string
	ExpiryMinutes int
	Preferences   []string
}

type Dispatcher struct {
	mailer  Mailer
	baseURL string
	maxAge  time.Duration
	sender  string

	validationSubject *template.Template
	validationBody    *template.Template
	welcomeSubject    *template.Template
	welcomeBody       *template.Template
}

// NewDispatcher parses the site's mail templates once. baseURL is the public
// origin the validation link is built on; maxAge is the token window quoted
// in the validation email.
func NewDispatcher(m Mailer, site *config.Site, baseURL string, maxAge time.Duration) (*Dispatcher, error) {
	d := &Dispatcher{
		mailer:  m,
		baseURL: strings.TrimRight(baseURL, "/"),
		maxAge:  maxAge,
		sender:  site.SenderName,
	}
	var err error
	if d.validationSubject, err = parse("validation_subject", site.ValidationSubject); err != nil {
		return nil, err
	}
	if d.validationBody, err = parse("validation_body", site.ValidationBody); err != nil {
		return nil, err
	}
	if d.welcomeSubject, err = parse("welcome_subject", site.WelcomeSubject); err != nil {
		return nil, err
	}
	if d.welcomeBody, err = parse("welcome_body", site.WelcomeBody); err != nil {
		return nil, err
	}
	return d, nil
}

func parse(name, src string) (*template.Template, error) {
	t, err := template.New(name).Option("missingkey=error").Parse(src)
	if err != nil {
		return nil, fmt.Errorf("parse %s template: %w", name, err)
	}
	return t, nil
}

// ValidationURL is the link a subscriber follows to confirm their address.
func (d *Dispatcher) ValidationURL(token string) string {
	return d.baseURL + "/validate/" + url.PathEscape(token)
}

// SendValidation mails the confirmation link for token to email.
func (d *Dispatcher) SendValidation(ctx context.Context, email, token string) bool {
	data := templateData{
		Email:         email,
		SenderName:    d.sender,
		ValidationURL: d.ValidationURL(token),
		ExpiryMinutes: int(d.maxAge / time.Minute),
	}
	return d.send(ctx, KindValidation, email, d.validationSubject, d.validationBody, data)
}

// SendWelcome mails the post-confirmation greeting listing preferences.
func (d *Dispatcher) SendWelcome(ctx context.Context, email string, preferences []string) bool {
	data := templateData{
		Email:       email,
		SenderName:  d.sender,
		Preferences: preferences,
	}
	return d.send(ctx, KindWelcome, email, d.welcomeSubject, d.welcomeBody, data)
}

func (d *Dispatcher) send(ctx context.Context, kind, to string, subjectTmpl, bodyTmpl *template.Template, data templateData) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("mail dispatch panicked", "kind", kind, "to", to, "panic", r)
			ok = false
		}
	}()

	subject, err := render(subjectTmpl, data)
	if err != nil {
		slog.Error("render mail subject", "kind", kind, "err", err)
		return false
	}
	body, err := render(bodyTmpl, data)
	if err != nil {
		slog.Error("render mail body", "kind", kind, "err", err)
		return false
	}
	if err := d.mailer.SendEmail(ctx, to, strings.TrimSpace(subject), body); err != nil {
		slog.Error("send mail", "kind", kind, "to", to, "err", err)
		return false
	}
	slog.Info("mail sent", "kind", kind, "to", to)
	return true
}

func render(t *template.Template, data templateData) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
