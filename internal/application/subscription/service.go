package subscription

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-newsletter-signup/internal/application/mailing"
	"github.com/go-newsletter-signup/internal/domain"
	"github.com/go-newsletter-signup/internal/pkg/metrics"
	"github.com/go-newsletter-signup/internal/pkg/validate"
)

// Operation names used in logs and metrics.
const (
	opSignup            = "signup"
	opUpdatePreferences = "update_preferences"
	opConfirmValidation = "confirm_validation"
)

// Service drives a subscriber through NONE -> PENDING -> VALIDATED.
// Expected conditions come back as a domain.Result; the error return is
// reserved for store and token-signing failures.
type Service interface {
	Signup(ctx context.Context, email string) (domain.Result, error)
	UpdatePreferences(ctx context.Context, email string, tags []string) (domain.Result, error)
	ConfirmValidation(ctx context.Context, token string) (domain.Result, error)
}

// SubscriberStore persists subscriber records keyed by normalized email.
type SubscriberStore interface {
	Find(ctx context.Context, email string) (*domain.Subscriber, error)
	Insert(ctx context.Context, s *domain.Subscriber) error
	UpdateFields(ctx context.Context, email string, fields domain.Fields) (int64, error)
	// MarkValidated flips a pending record to validated and drops its token
	// fields in one write. It returns false when no pending record matched.
	MarkValidated(ctx context.Context, email string, at time.Time) (bool, error)
	Delete(ctx context.Context, email string) error
}

type tokenCodec interface {
	Issue(email string) (string, error)
	Verify(token string, maxAge time.Duration) (string, error)
}

type mailDispatcher interface {
	SendValidation(ctx context.Context, email, token string) bool
	SendWelcome(ctx context.Context, email string, preferences []string) bool
}

type eventPublisher interface {
	Publish(ctx context.Context, e domain.Event) error
}

type service struct {
	store   SubscriberStore
	codec   tokenCodec
	mail    mailDispatcher
	events  eventPublisher
	metrics *metrics.Metrics
	maxAge  time.Duration
	now     func() time.Time
}

// ServiceDeps wires the lifecycle service. Events and Metrics are optional.
type ServiceDeps struct {
	Store       SubscriberStore
	Codec       tokenCodec
	Mail        mailDispatcher
	Events      eventPublisher
	Metrics     *metrics.Metrics
	TokenMaxAge time.Duration
	Now         func() time.Time
}

func NewService(deps ServiceDeps) Service {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		store:   deps.Store,
		codec:   deps.Codec,
		mail:    deps.Mail,
		events:  deps.Events,
		metrics: deps.Metrics,
		maxAge:  deps.TokenMaxAge,
		now:     now,
	}
}

func (s *service) Signup(ctx context.Context, raw string) (res domain.Result, err error) {
	defer s.observe(opSignup, time.Now(), &res, &err)

	email := domain.NormalizeEmail(raw)
	if email == "" {
		return domain.NewResult(domain.OutcomeMissingEmail), nil
	}
	if !validate.Email(email) {
		return domain.NewResult(domain.OutcomeInvalidEmail), nil
	}
	existing, err := s.find(ctx, email)
	if err != nil {
		return domain.Result{}, err
	}
	if existing != nil {
		return s.signupExisting(ctx, existing)
	}
	return s.signupNew(ctx, email)
}

func (s *service) signupExisting(ctx context.Context, sub *domain.Subscriber) (domain.Result, error) {
	if sub.State() == domain.StateValidated {
		return domain.NewResult(domain.OutcomeAlreadySubscribed), nil
	}
	tok, err := s.codec.Issue(sub.Email)
	if err != nil {
		return domain.Result{}, err
	}
	if !s.sendValidation(ctx, sub.Email, tok) {
		return domain.NewResult(domain.OutcomeMailFailure), nil
	}
	matched, err := s.store.UpdateFields(ctx, sub.Email, domain.Fields{
		domain.FieldValidationToken: tok,
		domain.FieldTokenCreatedAt:  s.now().UTC(),
	})
	if err != nil {
		return domain.Result{}, fmt.Errorf("store resent token: %w", err)
	}
	if matched == 0 {
		slog.WarnContext(ctx, "subscriber vanished after validation email was resent", "email", sub.Email)
	}
	return domain.NewResult(domain.OutcomeResentOk), nil
}

func (s *service) signupNew(ctx context.Context, email string) (domain.Result, error) {
	tok, err := s.codec.Issue(email)
	if err != nil {
		return domain.Result{}, err
	}
	sub := domain.NewPendingSubscriber(email, tok, s.now().UTC())
	if err := s.store.Insert(ctx, sub); err != nil {
		if !errors.Is(err, domain.ErrDuplicateKey) {
			return domain.Result{}, fmt.Errorf("insert subscriber: %w", err)
		}
		// A concurrent signup created the record first; branch on what it left.
		existing, findErr := s.find(ctx, email)
		if findErr != nil {
			return domain.Result{}, findErr
		}
		if existing == nil {
			return domain.Result{}, fmt.Errorf("subscriber %s deleted during concurrent signup: %w", email, err)
		}
		return s.signupExisting(ctx, existing)
	}

	if !s.sendValidation(ctx, email, tok) {
		if err := s.store.Delete(ctx, email); err != nil {
			slog.ErrorContext(ctx, "compensating delete failed; pending subscriber left behind", "email", email, "err", err)
		}
		return domain.NewResult(domain.OutcomeMailFailure), nil
	}
	s.publish(ctx, domain.EventSubscriberCreated, email)
	return domain.NewResult(domain.OutcomeCreatedOk), nil
}

func (s *service) UpdatePreferences(ctx context.Context, raw string, tags []string) (res domain.Result, err error) {
	defer s.observe(opUpdatePreferences, time.Now(), &res, &err)

	email := domain.NormalizeEmail(raw)
	if email == "" {
		return domain.NewResult(domain.OutcomeMissingEmail), nil
	}
	existing, err := s.find(ctx, email)
	if err != nil {
		return domain.Result{}, err
	}
	if existing == nil {
		return domain.NewResult(domain.OutcomeNotFound), nil
	}
	matched, err := s.store.UpdateFields(ctx, email, domain.Fields{
		domain.FieldContentPreferences: cleanTags(tags),
	})
	if err != nil {
		return domain.Result{}, fmt.Errorf("update preferences: %w", err)
	}
	if matched == 0 {
		return domain.NewResult(domain.OutcomeNotFound), nil
	}
	return domain.NewResult(domain.OutcomeUpdated), nil
}

func (s *service) ConfirmValidation(ctx context.Context, tok string) (res domain.Result, err error) {
	defer s.observe(opConfirmValidation, time.Now(), &res, &err)

	email, err := s.codec.Verify(tok, s.maxAge)
	if err != nil {
		slog.InfoContext(ctx, "rejected validation token", "err", err)
		return domain.NewResult(domain.OutcomeInvalidOrExpiredToken), nil
	}
	existing, err := s.find(ctx, email)
	if err != nil {
		return domain.Result{}, err
	}
	if existing == nil {
		return notFoundOnConfirm(), nil
	}
	if existing.State() == domain.StateValidated {
		return domain.NewResult(domain.OutcomeAlreadyValidated), nil
	}

	ok, err := s.store.MarkValidated(ctx, email, s.now().UTC())
	if err != nil {
		return domain.Result{}, fmt.Errorf("mark validated: %w", err)
	}
	if !ok {
		// Lost a race: another confirmation validated it, or the record is gone.
		again, err := s.find(ctx, email)
		if err != nil {
			return domain.Result{}, err
		}
		if again == nil {
			return notFoundOnConfirm(), nil
		}
		return domain.NewResult(domain.OutcomeAlreadyValidated), nil
	}

	sent := s.mail.SendWelcome(ctx, email, existing.ContentPreferences)
	s.metrics.RecordMail(mailing.KindWelcome, sent)
	if !sent {
		slog.WarnContext(ctx, "welcome email not delivered; validation kept", "email", email)
	}
	s.publish(ctx, domain.EventSubscriberValidated, email)
	return domain.NewResult(domain.OutcomeValidated), nil
}

// find returns nil, nil when the subscriber does not exist.
func (s *service) find(ctx context.Context, email string) (*domain.Subscriber, error) {
	sub, err := s.store.Find(ctx, email)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find subscriber: %w", err)
	}
	return sub, nil
}

func (s *service) sendValidation(ctx context.Context, email, tok string) bool {
	sent := s.mail.SendValidation(ctx, email, tok)
	s.metrics.RecordMail(mailing.KindValidation, sent)
	return sent
}

func (s *service) publish(ctx context.Context, eventType, email string) {
	if s.events == nil {
		return
	}
	e := domain.Event{Type: eventType, Email: email, At: s.now().UTC().Format(time.RFC3339)}
	if err := s.events.Publish(ctx, e); err != nil {
		slog.WarnContext(ctx, "failed to publish lifecycle event", "type", eventType, "email", email, "err", err)
	}
}

func (s *service) observe(op string, start time.Time, res *domain.Result, err *error) {
	s.metrics.ObserveOperation(op, start)
	if *err != nil {
		s.metrics.RecordOutcome(op, "error")
		return
	}
	s.metrics.RecordOutcome(op, string(res.Outcome))
}

func notFoundOnConfirm() domain.Result {
	return domain.Result{
		Outcome: domain.OutcomeNotFound,
		Message: "Subscriber not found. Please try subscribing again.",
	}
}

// cleanTags trims each tag and drops blanks, keeping order.
func cleanTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}
