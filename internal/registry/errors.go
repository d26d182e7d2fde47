package registry

import (
	"errors"
	"fmt"
)

// UnknownChildTypeError reports a restore whose TypeKey was never registered.
// It is a configuration error, never a recoverable runtime condition.
type UnknownChildTypeError struct {
	ID      string
	TypeKey string
}

// Error implements the error interface.
func (e *UnknownChildTypeError) Error() string {
	return fmt.Sprintf("child %q: unknown type %q (was the kind registered?)", e.ID, e.TypeKey)
}

// ChildNotFoundError reports an operation on an id that is not registered.
type ChildNotFoundError struct {
	ID string
}

// Error implements the error interface.
func (e *ChildNotFoundError) Error() string {
	return fmt.Sprintf("child %q not found", e.ID)
}

// IsUnknownChildType returns true if err is or wraps an UnknownChildTypeError.
func IsUnknownChildType(err error) bool {
	var e *UnknownChildTypeError
	return errors.As(err, &e)
}

// IsChildNotFound returns true if err is or wraps a ChildNotFoundError.
func IsChildNotFound(err error) bool {
	var e *ChildNotFoundError
	return errors.As(err, &e)
}
