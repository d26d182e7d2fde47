package journal

import "strings"

// Model selects how recording from a non-tip position treats later entries.
type Model int

const (
	// Linear discards entries after the current position on record.
	Linear Model = iota + 1
	// Branching preserves them by duplicating the current entry onto the tip.
	Branching
)

// String returns the lower-case model name.
func (m Model) String() string {
	switch m {
	case Linear:
		return "linear"
	case Branching:
		return "branching"
	default:
		return "invalid"
	}
}

// Valid reports whether m is a known model.
func (m Model) Valid() bool {
	return m == Linear || m == Branching
}

// ParseModel parses a model name. The empty string selects Linear.
func ParseModel(s string) (Model, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "linear":
		return Linear, nil
	case "branching":
		return Branching, nil
	default:
		return 0, &InvalidModelError{Value: s}
	}
}
