package shared

import (
	"errors"
	"fmt"
)

// Error kinds. Every domain error matches exactly one of these through errors.Is,
// which is how handlers decide on a status code.
var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
)

// ValidationError reports malformed or out-of-range input rejected before persistence.
type ValidationError struct {
	Field  string
	Reason string
}

func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Is matches ErrValidation and any other ValidationError on the same field (or any field
// when the target field is empty).
func (e *ValidationError) Is(target error) bool {
	if target == ErrValidation {
		return true
	}
	t, ok := target.(*ValidationError)
	if !ok {
		return false
	}
	return t.Field == "" || t.Field == e.Field
}
