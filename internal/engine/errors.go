package engine

import (
	"errors"
	"fmt"
)

// RuntimeError represents an error detected by a Rewindable.
//
// Errors from the journal, projector and registry are returned unchanged (or
// wrapped); RuntimeError covers misuse of the facade itself:
//   - Not composite: child operation on a kind that owns no children
//   - Child cycle: adding an entity beneath itself
//   - Invalid child: nil child entity
//   - Invalid kind: bad kind declaration
type RuntimeError struct {
	// Code identifies the error category.
	Code RuntimeErrorCode

	// Message is a human-readable description.
	Message string

	// Kind names the entity kind involved.
	Kind string

	// ChildID identifies the child involved, if any.
	ChildID string
}

// RuntimeErrorCode categorizes runtime errors.
type RuntimeErrorCode string

const (
	// ErrCodeNotComposite indicates a child operation on a leaf kind.
	ErrCodeNotComposite RuntimeErrorCode = "NOT_COMPOSITE"

	// ErrCodeChildCycle indicates an entity would become its own descendant.
	ErrCodeChildCycle RuntimeErrorCode = "CHILD_CYCLE"

	// ErrCodeInvalidChild indicates a nil or otherwise unusable child.
	ErrCodeInvalidChild RuntimeErrorCode = "INVALID_CHILD"

	// ErrCodeInvalidKind indicates a bad kind declaration.
	ErrCodeInvalidKind RuntimeErrorCode = "INVALID_KIND"
)

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	if e.Kind != "" && e.ChildID != "" {
		return fmt.Sprintf("%s: %s (kind=%s, child=%s)", e.Code, e.Message, e.Kind, e.ChildID)
	}
	if e.Kind != "" {
		return fmt.Sprintf("%s: %s (kind=%s)", e.Code, e.Message, e.Kind)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func hasCode(err error, code RuntimeErrorCode) bool {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code == code
	}
	return false
}

// IsNotComposite returns true if err is a not-composite error.
// Uses errors.As to handle wrapped errors.
func IsNotComposite(err error) bool {
	return hasCode(err, ErrCodeNotComposite)
}

// IsChildCycle returns true if err is a child cycle error.
func IsChildCycle(err error) bool {
	return hasCode(err, ErrCodeChildCycle)
}

// IsInvalidChild returns true if err is an invalid child error.
func IsInvalidChild(err error) bool {
	return hasCode(err, ErrCodeInvalidChild)
}

// IsInvalidKind returns true if err is an invalid kind error.
func IsInvalidKind(err error) bool {
	return hasCode(err, ErrCodeInvalidKind)
}

func newNotCompositeError(kind, childID string) *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodeNotComposite,
		Message: "kind does not own children",
		Kind:    kind,
		ChildID: childID,
	}
}

func newChildCycleError(kind, childID string) *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodeChildCycle,
		Message: "entity cannot be added beneath itself",
		Kind:    kind,
		ChildID: childID,
	}
}

func newInvalidKindError(kind, format string, args ...any) *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodeInvalidKind,
		Message: fmt.Sprintf(format, args...),
		Kind:    kind,
	}
}
