package compiler

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/roach88/rewind/internal/journal"
	"github.com/roach88/rewind/internal/snapshot"
)

// Validation error codes (E100-E199)
const (
	ErrKindNameInvalid    = "E101" // name missing or not an identifier
	ErrDuplicateKind      = "E102" // duplicate kind name
	ErrDuplicateField     = "E103" // duplicate observed field
	ErrReservedField      = "E104" // field named "children"
	ErrInvalidModel       = "E105" // model is not linear or branching
	ErrNegativeDebounce   = "E106" // debounce_ms < 0
	ErrChildrenNotAllowed = "E107" // children declared on a leaf kind
	ErrUnknownChildKind   = "E108" // children names an undeclared kind
)

// ValidationError represents a schema validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// kindNamePattern matches a shape name usable as a TypeKey prefix.
var kindNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Validate checks a set of compiled kinds against each other.
// Returns all errors found (does not fail-fast).
func Validate(specs []KindSpec) []ValidationError {
	var errs []ValidationError

	names := make(map[string]bool, len(specs))
	for _, spec := range specs {
		if names[spec.Name] {
			errs = append(errs, ValidationError{
				Field:   "kind." + spec.Name,
				Message: fmt.Sprintf("duplicate kind name: %q", spec.Name),
				Code:    ErrDuplicateKind,
			})
		}
		names[spec.Name] = true
	}

	for i := range specs {
		errs = append(errs, validateKind(&specs[i], names)...)
	}
	return errs
}

func validateKind(spec *KindSpec, known map[string]bool) []ValidationError {
	var errs []ValidationError
	prefix := "kind." + spec.Name

	if !kindNamePattern.MatchString(spec.Name) {
		errs = append(errs, ValidationError{
			Field:   "kind",
			Message: fmt.Sprintf("invalid kind name %q", spec.Name),
			Code:    ErrKindNameInvalid,
		})
	}

	seen := make(map[string]bool, len(spec.Fields))
	for i, f := range spec.Fields {
		field := fmt.Sprintf("%s.fields[%d]", prefix, i)
		if seen[f.Name] {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("duplicate field: %q", f.Name),
				Code:    ErrDuplicateField,
			})
		}
		seen[f.Name] = true

		if f.Name == snapshot.ChildrenField {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("field name %q is reserved", f.Name),
				Code:    ErrReservedField,
			})
		}
	}

	if _, err := journal.ParseModel(spec.Model); err != nil {
		errs = append(errs, ValidationError{
			Field:   prefix + ".model",
			Message: fmt.Sprintf("invalid model %q, must be \"linear\" or \"branching\"", spec.Model),
			Code:    ErrInvalidModel,
		})
	}

	if spec.DebounceMS < 0 {
		errs = append(errs, ValidationError{
			Field:   prefix + ".debounce_ms",
			Message: "debounce_ms must be >= 0",
			Code:    ErrNegativeDebounce,
		})
	}

	if len(spec.Children) > 0 && !spec.Composite {
		errs = append(errs, ValidationError{
			Field:   prefix + ".children",
			Message: "children requires composite: true",
			Code:    ErrChildrenNotAllowed,
		})
	}

	for i, child := range spec.Children {
		if !known[child] {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("%s.children[%d]", prefix, i),
				Message: fmt.Sprintf("unknown kind %q (declared: %s)", child, strings.Join(sortedNames(known), ", ")),
				Code:    ErrUnknownChildKind,
			})
		}
	}

	return errs
}
