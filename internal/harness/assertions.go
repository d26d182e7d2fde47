package harness

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/rewind/internal/engine"
	"github.com/roach88/rewind/internal/snapshot"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, event := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] %s index=%d len=%d", event.Seq, event.Op, event.Index, event.Len)
			if event.ChildID != "" {
				fmt.Fprintf(&buf, " child=%s", event.ChildID)
			}
			buf.WriteByte('\n')
		}
	}

	return buf.String()
}

// EvaluateAssertions checks every assertion against root and returns one
// message per failure.
func EvaluateAssertions(root *engine.Rewindable, assertions []Assertion, trace []TraceEvent) []string {
	var errs []string
	for i, a := range assertions {
		if err := evaluate(root, a, trace); err != nil {
			errs = append(errs, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return errs
}

func evaluate(root *engine.Rewindable, a Assertion, trace []TraceEvent) error {
	target, err := resolve(root, a.On)
	if err != nil {
		return err
	}

	fail := func(expected, actual string) error {
		return &AssertionError{Type: a.Type, Expected: expected, Actual: actual, Trace: trace}
	}

	switch a.Type {
	case AssertState:
		want, err := expectObject(a.Expect)
		if err != nil {
			return err
		}
		got := target.State().Fields
		if !matchFields(got, want) {
			return fail(formatValue(want), formatValue(got))
		}

	case AssertHistory:
		list, ok := a.Expect.([]any)
		if !ok {
			return fmt.Errorf("history expects a list, got %T", a.Expect)
		}
		history := target.History()
		if len(history) != len(list) {
			return fail(fmt.Sprintf("%d entries", len(list)), fmt.Sprintf("%d entries: %s", len(history), formatHistory(history)))
		}
		for i, entry := range list {
			want, err := expectObject(entry)
			if err != nil {
				return fmt.Errorf("history[%d]: %w", i, err)
			}
			if !matchFields(history[i].Fields, want) {
				return fail(fmt.Sprintf("entry %d matching %s", i, formatValue(want)), formatHistory(history))
			}
		}

	case AssertHistoryLen:
		want, err := expectInt(a.Expect)
		if err != nil {
			return err
		}
		if got := target.Len(); got != want {
			return fail(fmt.Sprintf("history length %d", want), fmt.Sprintf("%d", got))
		}

	case AssertIndex:
		want, err := expectInt(a.Expect)
		if err != nil {
			return err
		}
		if got := target.Index(); got != want {
			return fail(fmt.Sprintf("index %d", want), fmt.Sprintf("%d", got))
		}

	case AssertChildren:
		want, err := expectStrings(a.Expect)
		if err != nil {
			return err
		}
		if got := target.ChildIDs(); !slices.Equal(got, want) {
			return fail(fmt.Sprintf("children %v", want), fmt.Sprintf("%v", got))
		}

	case AssertChildType:
		want, ok := a.Expect.(string)
		if !ok {
			return fmt.Errorf("child_type expects a kind name, got %T", a.Expect)
		}
		child, ok := target.Child(a.ID)
		if !ok {
			return fail(fmt.Sprintf("child %q of kind %s", a.ID, want), "no such child")
		}
		if got := child.Kind().Name(); got != want {
			return fail(fmt.Sprintf("child %q of kind %s", a.ID, want), got)
		}

	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
	return nil
}

// matchFields reports whether every field of want is present in got with an
// equal value (subset semantics).
func matchFields(got, want snapshot.Object) bool {
	for k, w := range want {
		g, ok := got[k]
		if !ok || !snapshot.Equal(g, w) {
			return false
		}
	}
	return true
}

func expectObject(v any) (snapshot.Object, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("expected a mapping, got %T", v)
	}
	return snapshot.ObjectFromGo(m)
}

func expectInt(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	default:
		return 0, fmt.Errorf("expected an integer, got %T", v)
	}
}

func expectStrings(v any) ([]string, error) {
	list, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("expected a list of ids, got %T", v)
	}
	out := make([]string, len(list))
	for i, elem := range list {
		s, ok := elem.(string)
		if !ok {
			return nil, fmt.Errorf("[%d]: expected a string id, got %T", i, elem)
		}
		out[i] = s
	}
	return out, nil
}

func formatValue(obj snapshot.Object) string {
	data, err := snapshot.MarshalCanonical(obj)
	if err != nil {
		return fmt.Sprintf("%v", obj)
	}
	return string(data)
}

func formatHistory(h []snapshot.Snapshot) string {
	parts := make([]string, len(h))
	for i, s := range h {
		parts[i] = formatValue(s.Fields)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
