package models

import (
	"errors"
	"fmt"
)

// Domain error taxonomy. Services wrap these with context via %w; handlers
// map them to HTTP statuses in exactly one place.
var (
	// ErrValidation covers missing or malformed required input, including
	// malformed path identifiers.
	ErrValidation = errors.New("validation failed")
	// ErrForbidden means the role/ownership check failed. No state change.
	ErrForbidden = errors.New("forbidden")
	// ErrNotFound covers both unresolvable ids and records the actor has no
	// visibility into, so existence is never leaked.
	ErrNotFound = errors.New("not found")
	// ErrConflict is a lost atomic update, e.g. a claim race. The caller
	// should re-list and pick another booking, not retry the same one.
	ErrConflict = errors.New("conflict")
)

func Invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
