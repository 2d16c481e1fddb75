// Package token issues and verifies signed, time-limited tokens that bind an
// email address to a purpose. It holds no state: a valid token proves only that
// the address requested the purpose within the verification window.
package token

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/go-newsletter-signup/internal/domain"
	"github.com/go-newsletter-signup/internal/pkg/id"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/hkdf"
)

// PurposeEmailValidation is the purpose bound into validation links.
const PurposeEmailValidation = "email-validation"

// DefaultMaxAge is the validation window used when callers pass zero.
const DefaultMaxAge = time.Hour

type claims struct {
	Purpose string `json:"pur"`
	jwt.RegisteredClaims
}

// Codec signs tokens with a key derived from the server secret and the purpose.
type Codec struct {
	key     []byte
	purpose string
	now     func() time.Time
}

// Option configures a Codec.
type Option func(*Codec)

// WithClock overrides the time source used for issuing and verifying.
func WithClock(now func() time.Time) Option {
	return func(c *Codec) { c.now = now }
}

// New builds a Codec for purpose. The secret must not be empty.
func New(secret []byte, purpose string, opts ...Option) (*Codec, error) {
	if len(secret) == 0 {
		return nil, errors.New("token secret is empty")
	}
	key := make([]byte, 32)
	if _, err := io.ReadFull(hkdf.New(sha256.New, secret, []byte(purpose), []byte("token-signing")), key); err != nil {
		return nil, fmt.Errorf("derive signing key: %w", err)
	}
	c := &Codec{key: key, purpose: purpose, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// NewEmailValidation builds the Codec used for validation links.
func NewEmailValidation(secret []byte, opts ...Option) (*Codec, error) {
	return New(secret, PurposeEmailValidation, opts...)
}

// Issue returns a new token for email. Every call yields a distinct value.
func (c *Codec) Issue(email string) (string, error) {
	cl := claims{
		Purpose: c.purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  email,
			IssuedAt: jwt.NewNumericDate(c.now()),
			ID:       id.New(),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, cl).SignedString(c.key)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks the signature, purpose and age of tokenStr and returns the
// bound email. Any failure returns domain.ErrInvalidToken.
func (c *Codec) Verify(tokenStr string, maxAge time.Duration) (string, error) {
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	var cl claims
	_, err := jwt.ParseWithClaims(tokenStr, &cl, func(*jwt.Token) (interface{}, error) {
		return c.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrInvalidToken, err)
	}
	if cl.Purpose != c.purpose {
		return "", fmt.Errorf("%w: purpose mismatch", domain.ErrInvalidToken)
	}
	if cl.IssuedAt == nil || cl.Subject == "" {
		return "", fmt.Errorf("%w: missing claims", domain.ErrInvalidToken)
	}
	if c.now().Sub(cl.IssuedAt.Time) > maxAge {
		return "", fmt.Errorf("%w: expired", domain.ErrInvalidToken)
	}
	return cl.Subject, nil
}
