package mailing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/go-newsletter-signup/internal/config"
)

type mockMailer struct{ mock.Mock }

func (m *mockMailer) SendEmail(ctx context.Context, to, subject, body string) error {
	return m.Called(ctx, to, subject, body).Error(0)
}

type panicMailer struct{}

func (panicMailer) SendEmail(context.Context, string, string, string) error { panic("boom") }

func newDispatcher(t *testing.T, m Mailer) *Dispatcher {
	t.Helper()
	d, err := NewDispatcher(m, config.DefaultSite(), "https://news.example.com/", time.Hour)
	require.NoError(t, err)
	return d
}

func TestDispatcher_ValidationURL(t *testing.T) {
	d := newDispatcher(t, &mockMailer{})
	assert.Equal(t, "https://news.example.com/validate/abc.def-ghi", d.ValidationURL("abc.def-ghi"))
}

func TestDispatcher_SendValidation(t *testing.T) {
	m := &mockMailer{}
	m.On("SendEmail", mock.Anything, "a@example.com", "Please validate your email subscription",
		mock.MatchedBy(func(body string) bool {
			return assert.Contains(t, body, "https://news.example.com/validate/tok123") &&
				assert.Contains(t, body, "expire in 60 minutes") &&
				assert.Contains(t, body, "The Newsletter Team")
		})).Return(nil)

	ok := newDispatcher(t, m).SendValidation(context.Background(), "a@example.com", "tok123")

	assert.True(t, ok)
	m.AssertExpectations(t)
}

func TestDispatcher_SendWelcome_ListsPreferences(t *testing.T) {
	m := &mockMailer{}
	var body string
	m.On("SendEmail", mock.Anything, "a@example.com", "Welcome to our newsletter!", mock.Anything).
		Run(func(args mock.Arguments) { body = args.String(3) }).
		Return(nil)

	ok := newDispatcher(t, m).SendWelcome(context.Background(), "a@example.com", []string{"Technology", "Sports"})

	require.True(t, ok)
	assert.Contains(t, body, "Your content preferences:")
	assert.Contains(t, body, "• Technology\n• Sports")
}

func TestDispatcher_SendWelcome_NoPreferences(t *testing.T) {
	m := &mockMailer{}
	var body string
	m.On("SendEmail", mock.Anything, "a@example.com", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { body = args.String(3) }).
		Return(nil)

	require.True(t, newDispatcher(t, m).SendWelcome(context.Background(), "a@example.com", nil))
	assert.NotContains(t, body, "Your content preferences")
}

func TestDispatcher_TransportFailureReturnsFalse(t *testing.T) {
	m := &mockMailer{}
	m.On("SendEmail", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(errors.New("connection refused"))

	d := newDispatcher(t, m)
	assert.False(t, d.SendValidation(context.Background(), "a@example.com", "tok"))
	assert.False(t, d.SendWelcome(context.Background(), "a@example.com", nil))
}

func TestDispatcher_PanicIsContained(t *testing.T) {
	d := newDispatcher(t, panicMailer{})
	assert.NotPanics(t, func() {
		assert.False(t, d.SendValidation(context.Background(), "a@example.com", "tok"))
	})
}

func TestNewDispatcher_BadTemplate(t *testing.T) {
	site := config.DefaultSite()
	site.WelcomeBody = "{{.Nope"
	_, err := NewDispatcher(&mockMailer{}, site, "http://localhost", time.Hour)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "welcome_body")
}

func TestDispatcher_UnknownFieldFailsRender(t *testing.T) {
	site := config.DefaultSite()
	site.ValidationSubject = "{{.Missing}}"
	d, err := NewDispatcher(&mockMailer{}, site, "http://localhost", time.Hour)
	require.NoError(t, err)
	assert.False(t, d.SendValidation(context.Background(), "a@example.com", "tok"))
}
