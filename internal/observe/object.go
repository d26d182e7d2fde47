package observe

import (
	"slices"

	"github.com/roach88/rewind/internal/snapshot"
)

// Object is a map-backed target with observable fields.
//
// SetField commits the value and then calls every listener once, in
// subscription order, before returning. A listener therefore always sees the
// value that was just written.
//
// Object is not safe for concurrent use.
type Object struct {
	values    snapshot.Object
	listeners []listener
	nextID    int
}

type listener struct {
	id int
	fn func(field string)
}

// NewObject creates an object holding a copy of initial.
func NewObject(initial snapshot.Object) *Object {
	values := snapshot.CloneObject(initial)
	if values == nil {
		values = snapshot.Object{}
	}
	return &Object{values: values}
}

// Field returns the value of name.
func (o *Object) Field(name string) (snapshot.Value, bool) {
	v, ok := o.values[name]
	return v, ok
}

// Get returns the value of name, or Null when it is unset.
func (o *Object) Get(name string) snapshot.Value {
	if v, ok := o.values[name]; ok {
		return v
	}
	return snapshot.Null{}
}

// SetField commits v to name, then notifies listeners.
func (o *Object) SetField(name string, v snapshot.Value) error {
	if v == nil {
		v = snapshot.Null{}
	}
	o.values[name] = v
	for _, l := range slices.Clone(o.listeners) {
		l.fn(name)
	}
	return nil
}

// Set is SetField for callers that hold a plain Go value.
func (o *Object) Set(name string, v any) error {
	val, err := snapshot.FromGo(v)
	if err != nil {
		return err
	}
	return o.SetField(name, val)
}

// Subscribe registers fn for committed writes.
func (o *Object) Subscribe(fn func(field string)) (cancel func()) {
	o.nextID++
	id := o.nextID
	o.listeners = append(o.listeners, listener{id: id, fn: fn})
	return func() {
		o.listeners = slices.DeleteFunc(o.listeners, func(l listener) bool { return l.id == id })
	}
}

// Values returns a copy of every field.
func (o *Object) Values() snapshot.Object {
	return snapshot.CloneObject(o.values)
}
