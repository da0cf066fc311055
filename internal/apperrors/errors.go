package apperrors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrUnauthorized indicates missing or invalid credentials.
var ErrUnauthorized = errors.New("unauthorized")

// ErrForbidden indicates the caller is not permitted to perform the action.
var ErrForbidden = errors.New("forbidden")

// ErrConflict indicates the requested change conflicts with current state.
var ErrConflict = errors.New("conflict with current state")

// ErrInternal indicates an unexpected internal failure.
var ErrInternal = errors.New("internal error")

// ErrRateUnavailable indicates a currency is missing from the fetched rate
// table. Callers must leave the normalized amount unset rather than assume
// parity.
var ErrRateUnavailable = errors.New("exchange rate unavailable")

// ValidationError aggregates every violated invariant of a request so the
// caller sees the full list, not just the first failure.
type ValidationError struct {
	Violations []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", ErrValidation.Error(), strings.Join(e.Violations, "; "))
}

// Unwrap makes errors.Is(err, ErrValidation) hold for aggregated violations.
func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// NewValidationError builds a ValidationError from the collected violations.
// Returns nil when there are none.
func NewValidationError(violations []string) error {
	if len(violations) == 0 {
		return nil
	}
	return &ValidationError{Violations: violations}
}
