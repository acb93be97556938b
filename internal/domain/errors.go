package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is wrapped with the entity name, e.g. "user not found"
	ErrNotFound = errors.New("not found")
	// ErrValidation marks rejected input such as a duplicate email
	ErrValidation = errors.New("validation failed")
	// ErrForbidden marks an action the caller's role does not allow
	ErrForbidden = errors.New("forbidden")
)

// NotFound returns ErrNotFound prefixed with the entity name
func NotFound(entity string) error {
	return fmt.Errorf("%s %w", entity, ErrNotFound)
}

// Invalid returns ErrValidation with a reason
func Invalid(reason string) error {
	return fmt.Errorf("%w: %s", ErrValidation, reason)
}
