// Package projector maps between a target's observed fields and a Snapshot.
//
// Reading produces one flat Snapshot: the observed fields plus the children
// map supplied by a ChildState (normally the child registry). Writing sets
// each observed field present in the incoming Snapshot and hands the children
// map back to the ChildState for reconciliation. Keys the projector does not
// observe are ignored.
package projector

import (
	"fmt"
	"slices"

	"github.com/roach88/rewind/internal/snapshot"
)

// Target is the capability a versioned object exposes: get and set by field name.
type Target interface {
	// Field returns the current value of name, or false if it has none.
	Field(name string) (snapshot.Value, bool)
	// SetField commits v to name.
	SetField(name string, v snapshot.Value) error
}

// Notifier is implemented by targets that report committed field writes.
// The listener must be called once per write, after the value is committed
// and before the write returns to its caller.
type Notifier interface {
	Subscribe(fn func(field string)) (cancel func())
}

// Accessor is a custom get/set pair for targets with no enumerable fields.
type Accessor struct {
	Get func() snapshot.Object
	Set func(snapshot.Object) error
}

// ChildState produces and reconciles the children part of a Snapshot.
type ChildState interface {
	State() snapshot.Children
	SetState(children snapshot.Children) error
}

// Projector reads and writes the state of one target.
type Projector struct {
	target   Target
	accessor *Accessor
	fields   []string
	observed map[string]bool
	children ChildState
}

// New creates a projector over the named fields of target. children may be nil
// for a target that owns no nested entities.
func New(target Target, fields []string, children ChildState) (*Projector, error) {
	if target == nil {
		return nil, fmt.Errorf("projector: target is required")
	}
	observed := make(map[string]bool, len(fields))
	for _, f := range fields {
		switch {
		case f == "":
			return nil, &FieldError{Field: f, Message: "field name is empty"}
		case f == snapshot.ChildrenField:
			return nil, &FieldError{Field: f, Message: "field name is reserved"}
		case observed[f]:
			return nil, &FieldError{Field: f, Message: "field is observed twice"}
		}
		observed[f] = true
	}
	return &Projector{
		target:   target,
		fields:   slices.Clone(fields),
		observed: observed,
		children: children,
	}, nil
}

// NewWithAccessor creates a projector that reads and writes all fields through acc.
func NewWithAccessor(acc Accessor, children ChildState) (*Projector, error) {
	if acc.Get == nil || acc.Set == nil {
		return nil, fmt.Errorf("projector: accessor needs both Get and Set")
	}
	return &Projector{accessor: &acc, children: children}, nil
}

// Fields returns the observed field names in declaration order. It is empty
// for accessor-backed projectors.
func (p *Projector) Fields() []string {
	return slices.Clone(p.fields)
}

// Observes reports whether a write to field affects the projected state.
// Accessor-backed projectors observe every field.
func (p *Projector) Observes(field string) bool {
	if p.accessor != nil {
		return field != snapshot.ChildrenField
	}
	return p.observed[field]
}

// Target returns the projected target, or nil for accessor-backed projectors.
func (p *Projector) Target() Target {
	return p.target
}

// Watch subscribes fn to writes of observed fields when the target is a
// Notifier. It returns false when the target cannot report writes.
func (p *Projector) Watch(fn func(field string)) (cancel func(), ok bool) {
	n, ok := p.target.(Notifier)
	if !ok {
		return func() {}, false
	}
	return n.Subscribe(func(field string) {
		if p.Observes(field) {
			fn(field)
		}
	}), true
}

// State reads the current snapshot. Values are deep-copied so later writes to
// the target cannot alter a recorded snapshot.
func (p *Projector) State() snapshot.Snapshot {
	var s snapshot.Snapshot
	if p.accessor != nil {
		s.Fields = snapshot.CloneObject(p.accessor.Get())
		delete(s.Fields, snapshot.ChildrenField)
	} else {
		s.Fields = make(snapshot.Object, len(p.fields))
		for _, f := range p.fields {
			if v, ok := p.target.Field(f); ok {
				s.Fields[f] = snapshot.Clone(v)
			}
		}
	}
	if p.children != nil {
		s.Children = p.children.State()
	}
	return s
}

// SetState writes s back to the target. Unobserved keys are skipped. A nil
// children map leaves the children untouched.
func (p *Projector) SetState(s snapshot.Snapshot) error {
	if p.accessor != nil {
		fields := snapshot.CloneObject(s.Fields)
		delete(fields, snapshot.ChildrenField)
		if fields == nil {
			fields = snapshot.Object{}
		}
		if err := p.accessor.Set(fields); err != nil {
			return fmt.Errorf("set state: %w", err)
		}
	} else {
		for _, f := range p.fields {
			v, ok := s.Fields[f]
			if !ok {
				continue
			}
			if err := p.target.SetField(f, snapshot.Clone(v)); err != nil {
				return fmt.Errorf("set field %q: %w", f, err)
			}
		}
	}

	if p.children != nil && s.Children != nil {
		if err := p.children.SetState(s.Children); err != nil {
			return fmt.Errorf("set children: %w", err)
		}
	}
	return nil
}
