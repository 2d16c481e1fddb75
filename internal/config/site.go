package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/go-newsletter-signup/internal/pkg/validate"
)

// Site is the page text and email copy. Loaded once at startup.
//
// The four template strings are text/template sources. All of them receive
// .Email and .SenderName; validation templates also get .ValidationURL and
// .ExpiryMinutes, welcome templates get .Preferences.
type Site struct {
	Title       string   `yaml:"title" validate:"required"`
	Subtitle    string   `yaml:"subtitle"`
	Description string   `yaml:"description"` // markdown
	Categories  []string `yaml:"categories"`
	SenderName  string   `yaml:"sender_name" validate:"required"`

	ValidationSubject string `yaml:"validation_subject" validate:"required"`
	ValidationBody    string `yaml:"validation_body" validate:"required"`
	WelcomeSubject    string `yaml:"welcome_subject" validate:"required"`
	WelcomeBody       string `yaml:"welcome_body" validate:"required"`
}

// DefaultSite returns the built-in copy.
func DefaultSite() *Site {
	return &Site{
		Title:       "Our Newsletter",
		Subtitle:    "Stay up to date with the topics you care about",
		Description: "Sign up with your email address, confirm it, and tell us what you'd like to read.",
		Categories:  []string{"Technology", "Business", "Science", "Culture", "Sports"},
		SenderName:  "The Newsletter Team",

		ValidationSubject: "Please validate your email subscription",
		ValidationBody: `Welcome to our newsletter!

Please click the link below to confirm your email subscription:
{{.ValidationURL}}

This link will expire in {{.ExpiryMinutes}} minutes for security purposes.

If you didn't request this subscription, please ignore this email.

Best regards,
{{.SenderName}}
`,
		WelcomeSubject: "Welcome to our newsletter!",
		WelcomeBody: `Thank you for confirming your email subscription!

You're now subscribed to our newsletter and will receive updates based on your preferences.
{{- if .Preferences}}

Your content preferences:
{{- range .Preferences}}
• {{.}}
{{- end}}
{{- end}}

You can update your preferences or unsubscribe at any time by replying to this email.

Welcome aboard!
{{.SenderName}}
`,
	}
}

// LoadSite returns DefaultSite overlaid with the YAML file at path.
// An empty path yields the defaults. Fields absent from the file keep their
// default; fields the file blanks out are rejected if the pages or mails need them.
func LoadSite(path string) (*Site, error) {
	site := DefaultSite()
	if path == "" {
		return site, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read site config: %w", err)
	}
	if err := yaml.Unmarshal(b, site); err != nil {
		return nil, fmt.Errorf("parse site config %s: %w", path, err)
	}
	if err := validate.Struct(site); err != nil {
		return nil, fmt.Errorf("invalid site config %s: %w", path, err)
	}
	return site, nil
}
