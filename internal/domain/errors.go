package domain

import "errors"

var (
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrValidation         = errors.New("validation failed")
	ErrInvalidTransition  = errors.New("booking status transition not allowed")
	ErrCancellationWindow = errors.New("booking can no longer be cancelled")
	ErrTooManyAttempts    = errors.New("too many login attempts")
)

// ValidationError carries a user-facing message and is matched by errors.Is(err, ErrValidation).
type ValidationError struct {
	Message string
	Fields  map[string]string
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Unwrap() error { return ErrValidation }

// Invalid builds a ValidationError with a single message.
func Invalid(msg string) error {
	return &ValidationError{Message: msg}
}
