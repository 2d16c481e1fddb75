package domain

import "errors"

// Sentinel errors for domain-level error discrimination.
// Stores wrap these so the lifecycle service and handlers can branch without
// leaking infrastructure details.
var (
	ErrNotFound     = errors.New("not found")
	ErrDuplicateKey = errors.New("duplicate key")
	ErrUnavailable  = errors.New("store unavailable")
	ErrInvalidToken = errors.New("invalid or expired token")
	ErrBadRequest   = errors.New("bad request")
)

// UnavailableError reports that a backend could not be reached. It matches
// ErrUnavailable under errors.Is.
type UnavailableError struct {
	Backend string
	Err     error
}

func (e *UnavailableError) Error() string {
	return e.Backend + " unavailable: " + e.Err.Error()
}

func (e *UnavailableError) Unwrap() error { return e.Err }

func (e *UnavailableError) Is(target error) bool { return target == ErrUnavailable }
