package catalog

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a resource, or a resource/feedback pair,
	// does not exist.
	ErrNotFound = errors.New("not found")
	// ErrValidation is returned when client input is rejected before any
	// store mutation.
	ErrValidation = errors.New("invalid input")
)

// ValidationError describes a rejected input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// Invalid builds a ValidationError for field.
func Invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// NotFound wraps ErrNotFound with the kind and id that were looked up.
func NotFound(kind, id string) error {
	return fmt.Errorf("%s %q %w", kind, id, ErrNotFound)
}
