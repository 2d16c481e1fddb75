package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/go-newsletter-signup/internal/domain"
)

// SubscriberRepo keeps subscribers in process memory. The mutex gives it the
// same unique-key guarantee the database backends get from their key constraint.
type SubscriberRepo struct {
	mu   sync.RWMutex
	subs map[string]domain.Subscriber
	now  func() time.Time
}

func NewSubscriberRepo() *SubscriberRepo {
	return &SubscriberRepo{subs: make(map[string]domain.Subscriber), now: time.Now}
}

func (r *SubscriberRepo) Find(_ context.Context, email string) (*domain.Subscriber, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.subs[email]
	if !ok {
		return nil, fmt.Errorf("subscriber not found: %w", domain.ErrNotFound)
	}
	return clone(s), nil
}

func (r *SubscriberRepo) Insert(_ context.Context, s *domain.Subscriber) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.subs[s.Email]; ok {
		return fmt.Errorf("subscriber %s: %w", s.Email, domain.ErrDuplicateKey)
	}
	r.subs[s.Email] = *clone(*s)
	return nil
}

func (r *SubscriberRepo) UpdateFields(_ context.Context, email string, fields domain.Fields) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.subs[email]
	if !ok {
		return 0, nil
	}
	for k, v := range fields {
		if err := apply(&s, k, v); err != nil {
			return 0, err
		}
	}
	s.UpdatedAt = r.now().UTC()
	r.subs[email] = s
	return 1, nil
}

func (r *SubscriberRepo) MarkValidated(_ context.Context, email string, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.subs[email]
	if !ok || s.EmailValidated {
		return false, nil
	}
	validated := at
	s.EmailValidated = true
	s.ValidationDate = &validated
	s.ValidationToken = ""
	s.TokenCreatedAt = nil
	s.UpdatedAt = at
	r.subs[email] = s
	return true, nil
}

func (r *SubscriberRepo) Delete(_ context.Context, email string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.subs, email)
	return nil
}

// Scan returns every subscriber ordered by email.
func (r *SubscriberRepo) Scan(_ context.Context) ([]domain.Subscriber, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Subscriber, 0, len(r.subs))
	for _, s := range r.subs {
		out = append(out, *clone(s))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, nil
}

func (r *SubscriberRepo) Ping(context.Context) error { return nil }

// Len reports the number of stored subscribers.
func (r *SubscriberRepo) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.subs)
}

func apply(s *domain.Subscriber, field string, v interface{}) error {
	switch field {
	case domain.FieldValidationToken:
		if v == nil {
			s.ValidationToken = ""
			return nil
		}
		tok, ok := v.(string)
		if !ok {
			return fmt.Errorf("field %s: want string, got %T", field, v)
		}
		s.ValidationToken = tok
	case domain.FieldTokenCreatedAt:
		if v == nil {
			s.TokenCreatedAt = nil
			return nil
		}
		t, ok := v.(time.Time)
		if !ok {
			return fmt.Errorf("field %s: want time.Time, got %T", field, v)
		}
		s.TokenCreatedAt = &t
	case domain.FieldContentPreferences:
		if v == nil {
			s.ContentPreferences = []string{}
			return nil
		}
		tags, ok := v.([]string)
		if !ok {
			return fmt.Errorf("field %s: want []string, got %T", field, v)
		}
		s.ContentPreferences = append([]string{}, tags...)
	default:
		return fmt.Errorf("field %s is not updatable: %w", field, domain.ErrBadRequest)
	}
	return nil
}

func clone(s domain.Subscriber) *domain.Subscriber {
	c := s
	c.ContentPreferences = append([]string{}, s.ContentPreferences...)
	if s.TokenCreatedAt != nil {
		t := *s.TokenCreatedAt
		c.TokenCreatedAt = &t
	}
	if s.ValidationDate != nil {
		t := *s.ValidationDate
		c.ValidationDate = &t
	}
	return &c
}
