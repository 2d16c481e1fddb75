package domain

import (
	"strings"
	"time"
)

// Attribute names shared by every store backend.
const (
	FieldEmail              = "email"
	FieldEmailValidated     = "email_validated"
	FieldValidationToken    = "validation_token"
	FieldTokenCreatedAt     = "token_created_at"
	FieldContentPreferences = "content_preferences"
	FieldSignupDate         = "signup_date"
	FieldValidationDate     = "validation_date"
	FieldUpdatedAt          = "updated_at"
)

// Subscriber is one newsletter signup, keyed by normalized email.
// ValidationToken and TokenCreatedAt are only present while EmailValidated is false.
type Subscriber struct {
	Email              string     `json:"email" dynamodbav:"email" bson:"email"`
	EmailValidated     bool       `json:"email_validated" dynamodbav:"email_validated" bson:"email_validated"`
	ValidationToken    string     `json:"validation_token,omitempty" dynamodbav:"validation_token,omitempty" bson:"validation_token,omitempty"`
	TokenCreatedAt     *time.Time `json:"token_created_at,omitempty" dynamodbav:"token_created_at,omitempty" bson:"token_created_at,omitempty"`
	ContentPreferences []string   `json:"content_preferences" dynamodbav:"content_preferences" bson:"content_preferences"`
	SignupDate         time.Time  `json:"signup_date" dynamodbav:"signup_date" bson:"signup_date"`
	ValidationDate     *time.Time `json:"validation_date" dynamodbav:"validation_date" bson:"validation_date"`
	UpdatedAt          time.Time  `json:"updated_at" dynamodbav:"updated_at" bson:"updated_at"`
}

// State returns the lifecycle state of a stored record. A nil record is StateNone.
func (s *Subscriber) State() State {
	switch {
	case s == nil:
		return StateNone
	case s.EmailValidated:
		return StateValidated
	default:
		return StatePending
	}
}

// NewPendingSubscriber builds the record inserted on a first signup.
func NewPendingSubscriber(email, token string, now time.Time) *Subscriber {
	issued := now
	return &Subscriber{
		Email:              email,
		ValidationToken:    token,
		TokenCreatedAt:     &issued,
		ContentPreferences: []string{},
		SignupDate:         now,
		UpdatedAt:          now,
	}
}

// NormalizeEmail trims and lower-cases an address. The result is the record key.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Fields is a partial update keyed by attribute name. A nil value removes the attribute.
type Fields map[string]interface{}

// State is the validation dimension of a subscriber.
type State string

const (
	StateNone      State = "none"
	StatePending   State = "pending"
	StateValidated State = "validated"
)
