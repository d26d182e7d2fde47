package projector

import (
	"errors"
	"fmt"
)

// FieldError reports an invalid observed-field configuration.
type FieldError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *FieldError) Error() string {
	return fmt.Sprintf("observed field %q: %s", e.Field, e.Message)
}

// IsFieldError returns true if err is or wraps a FieldError.
func IsFieldError(err error) bool {
	var e *FieldError
	return errors.As(err, &e)
}
