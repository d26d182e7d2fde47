package engine

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRuntimeError_Format(t *testing.T) {
	err := newChildCycleError("List", "1")
	assert.Equal(t, "CHILD_CYCLE: entity cannot be added beneath itself (kind=List, child=1)", err.Error())

	err = newInvalidKindError("List", "bad %s", "thing")
	assert.Equal(t, "INVALID_KIND: bad thing (kind=List)", err.Error())

	plain := &RuntimeError{Code: ErrCodeInvalidChild, Message: "nil child"}
	assert.Equal(t, "INVALID_CHILD: nil child", plain.Error())
}

func TestRuntimeError_IsHelpersUnwrap(t *testing.T) {
	wrapped := fmt.Errorf("outer: %w", newNotCompositeError("Counter", "x"))
	assert.True(t, IsNotComposite(wrapped))
	assert.False(t, IsChildCycle(wrapped))
	assert.False(t, IsInvalidKind(nil))
}
