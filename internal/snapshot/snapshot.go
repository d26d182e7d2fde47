package snapshot

import (
	"fmt"
	"slices"
	"strings"
)

// ChildrenField is the reserved key carrying serialized children in the plain form.
const ChildrenField = "children"

// NoPosition marks a ChildRef that carries no explicit position.
const NoPosition = -1

// Snapshot is one captured state record: the observed fields of an entity plus
// the serialized form of each nested child.
//
// A nil Children means the entity has no child registry. An empty, non-nil
// Children means it has one with nothing in it.
type Snapshot struct {
	Fields   Object
	Children Children
}

// ChildRef is the serialized form of one nested versioned entity inside a
// parent Snapshot.
type ChildRef struct {
	TypeKey  string
	History  []Snapshot
	Index    int
	Position int
}

// ChildEntry pairs a child id with its ChildRef.
type ChildEntry struct {
	ID  string
	Ref ChildRef
}

// Children is an ordered id -> ChildRef map. Order is by position, then id.
type Children []ChildEntry

// IsEmpty reports whether s carries nothing worth recording.
func (s Snapshot) IsEmpty() bool {
	return len(s.Fields) == 0 && s.Children == nil
}

// Equal reports deep-structural equality of two snapshots.
// Children are compared by id; their order is not significant.
func (s Snapshot) Equal(other Snapshot) bool {
	if len(s.Fields) != len(other.Fields) {
		return false
	}
	if len(s.Fields) > 0 && !Equal(s.Fields, other.Fields) {
		return false
	}
	if (s.Children == nil) != (other.Children == nil) {
		return false
	}
	return s.Children.Equal(other.Children)
}

// Clone returns a deep copy of s.
func (s Snapshot) Clone() Snapshot {
	return Snapshot{
		Fields:   CloneObject(s.Fields),
		Children: s.Children.Clone(),
	}
}

// Field returns the value of a field, if present.
func (s Snapshot) Field(name string) (Value, bool) {
	v, ok := s.Fields[name]
	return v, ok
}

// Value returns the plain form of s as an Object. The children map, when
// present, is stored under ChildrenField.
func (s Snapshot) Value() Object {
	obj := make(Object, len(s.Fields)+1)
	for k, v := range s.Fields {
		obj[k] = v
	}
	if s.Children != nil {
		obj[ChildrenField] = s.Children.Value()
	}
	return obj
}

// String renders the canonical form, or a placeholder if it cannot be encoded.
func (s Snapshot) String() string {
	data, err := MarshalCanonical(s.Value())
	if err != nil {
		return fmt.Sprintf("<snapshot: %v>", err)
	}
	return string(data)
}

// FromValue parses the plain form produced by Snapshot.Value.
func FromValue(obj Object) (Snapshot, error) {
	var s Snapshot
	for k, v := range obj {
		if k == ChildrenField {
			continue
		}
		if s.Fields == nil {
			s.Fields = make(Object, len(obj))
		}
		s.Fields[k] = v
	}

	raw, ok := obj[ChildrenField]
	if !ok {
		return s, nil
	}
	childObj, ok := raw.(Object)
	if !ok {
		return Snapshot{}, fmt.Errorf("%s: expected object, got %s", ChildrenField, KindOf(raw))
	}
	children, err := childrenFromValue(childObj)
	if err != nil {
		return Snapshot{}, err
	}
	s.Children = children
	return s, nil
}

// Equal compares two ChildRefs, including their full histories.
func (r ChildRef) Equal(other ChildRef) bool {
	if r.TypeKey != other.TypeKey || r.Index != other.Index || r.Position != other.Position {
		return false
	}
	return HistoryEqual(r.History, other.History)
}

// Clone returns a deep copy of r.
func (r ChildRef) Clone() ChildRef {
	out := r
	out.History = CloneHistory(r.History)
	return out
}

// Current returns the history entry at Index, if it is in range.
func (r ChildRef) Current() (Snapshot, bool) {
	if r.Index < 0 || r.Index >= len(r.History) {
		return Snapshot{}, false
	}
	return r.History[r.Index], true
}

// HasPosition reports whether r carries an explicit position.
func (r ChildRef) HasPosition() bool {
	return r.Position != NoPosition
}

// Value returns the plain form of r.
func (r ChildRef) Value() Object {
	history := make(List, len(r.History))
	for i, h := range r.History {
		history[i] = h.Value()
	}
	obj := Object{
		"type_key": String(r.TypeKey),
		"history":  history,
		"index":    Int(r.Index),
	}
	if r.HasPosition() {
		obj["position"] = Int(r.Position)
	}
	return obj
}

func childRefFromValue(obj Object) (ChildRef, error) {
	ref := ChildRef{Position: NoPosition}

	tk, ok := obj["type_key"].(String)
	if !ok {
		return ChildRef{}, fmt.Errorf("type_key: expected string, got %s", KindOf(obj["type_key"]))
	}
	ref.TypeKey = string(tk)

	idx, ok := obj["index"].(Int)
	if !ok {
		return ChildRef{}, fmt.Errorf("index: expected int, got %s", KindOf(obj["index"]))
	}
	ref.Index = int(idx)

	if p, present := obj["position"]; present {
		pos, ok := p.(Int)
		if !ok {
			return ChildRef{}, fmt.Errorf("position: expected int, got %s", KindOf(p))
		}
		ref.Position = int(pos)
	}

	if h, present := obj["history"]; present {
		list, ok := h.(List)
		if !ok {
			return ChildRef{}, fmt.Errorf("history: expected list, got %s", KindOf(h))
		}
		ref.History = make([]Snapshot, len(list))
		for i, entry := range list {
			entryObj, ok := entry.(Object)
			if !ok {
				return ChildRef{}, fmt.Errorf("history[%d]: expected object, got %s", i, KindOf(entry))
			}
			s, err := FromValue(entryObj)
			if err != nil {
				return ChildRef{}, fmt.Errorf("history[%d]: %w", i, err)
			}
			ref.History[i] = s
		}
	}
	return ref, nil
}

// Get returns the ChildRef for id.
func (c Children) Get(id string) (ChildRef, bool) {
	for _, e := range c {
		if e.ID == id {
			return e.Ref, true
		}
	}
	return ChildRef{}, false
}

// IDs returns the child ids in order.
func (c Children) IDs() []string {
	ids := make([]string, len(c))
	for i, e := range c {
		ids[i] = e.ID
	}
	return ids
}

// Equal compares two children maps by id.
func (c Children) Equal(other Children) bool {
	if len(c) != len(other) {
		return false
	}
	for _, e := range c {
		o, ok := other.Get(e.ID)
		if !ok || !e.Ref.Equal(o) {
			return false
		}
	}
	return true
}

// Clone returns a deep copy of c, preserving nil.
func (c Children) Clone() Children {
	if c == nil {
		return nil
	}
	out := make(Children, len(c))
	for i, e := range c {
		out[i] = ChildEntry{ID: e.ID, Ref: e.Ref.Clone()}
	}
	return out
}

// Sort orders entries by position, then id. Entries without a position sort last.
func (c Children) Sort() {
	slices.SortStableFunc(c, func(a, b ChildEntry) int {
		pa, pb := a.Ref.Position, b.Ref.Position
		switch {
		case pa == pb:
			return strings.Compare(a.ID, b.ID)
		case pa == NoPosition:
			return 1
		case pb == NoPosition:
			return -1
		case pa < pb:
			return -1
		default:
			return 1
		}
	})
}

// Value returns the plain form of c.
func (c Children) Value() Object {
	obj := make(Object, len(c))
	for _, e := range c {
		obj[e.ID] = e.Ref.Value()
	}
	return obj
}

func childrenFromValue(obj Object) (Children, error) {
	children := make(Children, 0, len(obj))
	for id, raw := range obj {
		refObj, ok := raw.(Object)
		if !ok {
			return nil, fmt.Errorf("%s[%q]: expected object, got %s", ChildrenField, id, KindOf(raw))
		}
		ref, err := childRefFromValue(refObj)
		if err != nil {
			return nil, fmt.Errorf("%s[%q]: %w", ChildrenField, id, err)
		}
		children = append(children, ChildEntry{ID: id, Ref: ref})
	}
	children.Sort()
	return children, nil
}

// HistoryEqual compares two histories element-wise.
func HistoryEqual(a, b []Snapshot) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}

// CloneHistory returns a deep copy of a history, preserving nil.
func CloneHistory(h []Snapshot) []Snapshot {
	if h == nil {
		return nil
	}
	out := make([]Snapshot, len(h))
	for i, s := range h {
		out[i] = s.Clone()
	}
	return out
}
