package compiler

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/rewind/internal/journal"
	"github.com/roach88/rewind/internal/snapshot"
)

// KindSpec is the compiled form of one CUE kind declaration.
type KindSpec struct {
	Name       string      `json:"name"`
	Fields     []FieldSpec `json:"fields"`
	Model      string      `json:"model"`
	DebounceMS int64       `json:"debounce_ms"`
	Composite  bool        `json:"composite"`
	Children   []string    `json:"children,omitempty"`
}

// FieldSpec is an observed field and its default value.
type FieldSpec struct {
	Name    string
	Default snapshot.Value
}

// FieldNames returns the observed field names in declaration order.
func (s *KindSpec) FieldNames() []string {
	names := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		names[i] = f.Name
	}
	return names
}

// Defaults returns the default field values as an object.
func (s *KindSpec) Defaults() snapshot.Object {
	out := make(snapshot.Object, len(s.Fields))
	for _, f := range s.Fields {
		out[f.Name] = snapshot.Clone(f.Default)
	}
	return out
}

// Value returns the plain form used by canonical output.
func (s *KindSpec) Value() snapshot.Object {
	children := make(snapshot.List, len(s.Children))
	for i, c := range s.Children {
		children[i] = snapshot.String(c)
	}
	return snapshot.Object{
		"name":        snapshot.String(s.Name),
		"fields":      s.Defaults(),
		"model":       snapshot.String(s.Model),
		"debounce_ms": snapshot.Int(s.DebounceMS),
		"composite":   snapshot.Bool(s.Composite),
		"children":    children,
	}
}

// CompileKind parses a CUE value into a KindSpec.
//
// The CUE value should be the kind struct itself, e.g.:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`kind: Counter: { fields: { value: 0 } }`)
//	spec, err := CompileKind(v.LookupPath(cue.ParsePath("kind.Counter")))
func CompileKind(v cue.Value) (*KindSpec, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	spec := &KindSpec{Model: journal.Linear.String()}

	labels := v.Path().Selectors()
	if len(labels) > 0 {
		spec.Name = labels[len(labels)-1].String()
	}
	if spec.Name == "" {
		return nil, &CompileError{Field: "name", Message: "kind name is required", Pos: v.Pos()}
	}

	var err error
	spec.Fields, err = parseFields(v)
	if err != nil {
		return nil, err
	}

	if modelVal := v.LookupPath(cue.ParsePath("model")); modelVal.Exists() {
		s, err := modelVal.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		m, err := journal.ParseModel(s)
		if err != nil {
			return nil, &CompileError{Field: "model", Message: err.Error(), Pos: modelVal.Pos()}
		}
		spec.Model = m.String()
	}

	if debounceVal := v.LookupPath(cue.ParsePath("debounce_ms")); debounceVal.Exists() {
		ms, err := debounceVal.Int64()
		if err != nil {
			return nil, formatCUEError(err)
		}
		if ms < 0 {
			return nil, &CompileError{Field: "debounce_ms", Message: "debounce_ms must be >= 0", Pos: debounceVal.Pos()}
		}
		spec.DebounceMS = ms
	}

	if compositeVal := v.LookupPath(cue.ParsePath("composite")); compositeVal.Exists() {
		spec.Composite, err = compositeVal.Bool()
		if err != nil {
			return nil, formatCUEError(err)
		}
	}

	if childrenVal := v.LookupPath(cue.ParsePath("children")); childrenVal.Exists() {
		iter, err := childrenVal.List()
		if err != nil {
			return nil, formatCUEError(err)
		}
		for iter.Next() {
			name, err := iter.Value().String()
			if err != nil {
				return nil, formatCUEError(err)
			}
			spec.Children = append(spec.Children, name)
		}
		if len(spec.Children) > 0 && !spec.Composite {
			return nil, &CompileError{
				Field:   "children",
				Message: "children requires composite: true",
				Pos:     childrenVal.Pos(),
			}
		}
	}

	return spec, nil
}

// parseFields reads the observed fields and their defaults in declaration order.
func parseFields(v cue.Value) ([]FieldSpec, error) {
	fieldsVal := v.LookupPath(cue.ParsePath("fields"))
	if !fieldsVal.Exists() {
		return nil, nil
	}

	iter, err := fieldsVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var fields []FieldSpec
	for iter.Next() {
		name := iter.Label()
		if name == snapshot.ChildrenField {
			return nil, &CompileError{
				Field:   "fields",
				Message: fmt.Sprintf("field name %q is reserved", name),
				Pos:     iter.Value().Pos(),
			}
		}
		def, err := toValue(iter.Value())
		if err != nil {
			return nil, err
		}
		fields = append(fields, FieldSpec{Name: name, Default: def})
	}
	return fields, nil
}

// toValue converts a concrete CUE value into a snapshot value.
func toValue(v cue.Value) (snapshot.Value, error) {
	if !v.IsConcrete() {
		return nil, &CompileError{
			Field:   "fields",
			Message: "default values must be concrete",
			Pos:     v.Pos(),
		}
	}

	switch v.Kind() {
	case cue.NullKind:
		return snapshot.Null{}, nil
	case cue.BoolKind:
		b, err := v.Bool()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return snapshot.Bool(b), nil
	case cue.IntKind:
		n, err := v.Int64()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return snapshot.Int(n), nil
	case cue.FloatKind:
		f, err := v.Float64()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return snapshot.Float(f), nil
	case cue.StringKind:
		s, err := v.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return snapshot.String(s), nil
	case cue.ListKind:
		iter, err := v.List()
		if err != nil {
			return nil, formatCUEError(err)
		}
		list := snapshot.List{}
		for iter.Next() {
			elem, err := toValue(iter.Value())
			if err != nil {
				return nil, err
			}
			list = append(list, elem)
		}
		return list, nil
	case cue.StructKind:
		iter, err := v.Fields()
		if err != nil {
			return nil, formatCUEError(err)
		}
		obj := snapshot.Object{}
		for iter.Next() {
			elem, err := toValue(iter.Value())
			if err != nil {
				return nil, err
			}
			obj[iter.Label()] = elem
		}
		return obj, nil
	default:
		return nil, &CompileError{
			Field:   "fields",
			Message: fmt.Sprintf("unsupported default kind: %v", v.Kind()),
			Pos:     v.Pos(),
		}
	}
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
