package journal

import (
	"errors"
	"fmt"
)

// IndexOutOfRangeError reports an index outside the journal's bounds.
// Only Drop returns it; Travel, Undo and Redo report out-of-range targets as
// "no result" instead.
type IndexOutOfRangeError struct {
	Op    string
	Index int
	Len   int
}

// Error implements the error interface.
func (e *IndexOutOfRangeError) Error() string {
	return fmt.Sprintf("%s: index %d out of range [0, %d)", e.Op, e.Index, e.Len)
}

// InvalidModelError reports an unknown model at configuration time.
type InvalidModelError struct {
	Value any
}

// Error implements the error interface.
func (e *InvalidModelError) Error() string {
	return fmt.Sprintf("invalid history model %v (want linear or branching)", e.Value)
}

// IsIndexOutOfRange returns true if err is or wraps an IndexOutOfRangeError.
func IsIndexOutOfRange(err error) bool {
	var e *IndexOutOfRangeError
	return errors.As(err, &e)
}

// IsInvalidModel returns true if err is or wraps an InvalidModelError.
func IsInvalidModel(err error) bool {
	var e *InvalidModelError
	return errors.As(err, &e)
}
