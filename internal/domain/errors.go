package domain

import (
	"errors"
	"fmt"
)

// ValidationError is returned when a record factory rejects its input.
// A failed construction never produces a partially valid entity; the error
// names the first offending field.
type ValidationError struct {
	Entity string // "opportunity" or "holding"
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: field %q %s", e.Entity, e.Field, e.Reason)
}

// IsValidationError reports whether err is (or wraps) a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
