package projector

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rewind/internal/snapshot"
)

type mapTarget struct {
	values    snapshot.Object
	listeners []func(string)
	failOn    string
}

func newMapTarget(values snapshot.Object) *mapTarget {
	return &mapTarget{values: values}
}

func (m *mapTarget) Field(name string) (snapshot.Value, bool) {
	v, ok := m.values[name]
	return v, ok
}

func (m *mapTarget) SetField(name string, v snapshot.Value) error {
	if name == m.failOn {
		return errors.New("rejected")
	}
	m.values[name] = v
	for _, fn := range m.listeners {
		fn(name)
	}
	return nil
}

func (m *mapTarget) Subscribe(fn func(string)) func() {
	m.listeners = append(m.listeners, fn)
	return func() { m.listeners = nil }
}

type fakeChildren struct {
	state snapshot.Children
	set   []snapshot.Children
	err   error
}

func (f *fakeChildren) State() snapshot.Children { return f.state }

func (f *fakeChildren) SetState(c snapshot.Children) error {
	f.set = append(f.set, c)
	return f.err
}

func TestNewRejectsBadFields(t *testing.T) {
	target := newMapTarget(snapshot.Object{})
	for _, fields := range [][]string{{""}, {"a", "a"}, {"children"}} {
		_, err := New(target, fields, nil)
		require.Error(t, err)
		assert.True(t, IsFieldError(err))
	}

	_, err := New(nil, []string{"a"}, nil)
	assert.Error(t, err)
}

func TestStateReadsObservedFields(t *testing.T) {
	target := newMapTarget(snapshot.Object{
		"title":  snapshot.String("todo"),
		"done":   snapshot.Bool(false),
		"hidden": snapshot.Int(1),
	})
	p, err := New(target, []string{"title", "done", "missing"}, nil)
	require.NoError(t, err)

	s := p.State()
	assert.Equal(t, snapshot.Object{"title": snapshot.String("todo"), "done": snapshot.Bool(false)}, s.Fields)
	assert.Nil(t, s.Children, "no registry, no children map")
}

func TestStateCopiesValues(t *testing.T) {
	items := snapshot.List{snapshot.Int(1)}
	target := newMapTarget(snapshot.Object{"items": items})
	p, err := New(target, []string{"items"}, nil)
	require.NoError(t, err)

	s := p.State()
	items[0] = snapshot.Int(2)
	assert.Equal(t, snapshot.List{snapshot.Int(1)}, s.Fields["items"])
}

func TestStateIncludesChildren(t *testing.T) {
	children := &fakeChildren{state: snapshot.Children{}}
	p, err := New(newMapTarget(snapshot.Object{}), nil, children)
	require.NoError(t, err)

	s := p.State()
	assert.NotNil(t, s.Children)
	assert.False(t, s.IsEmpty())
}

func TestSetStateIgnoresUnknownKeys(t *testing.T) {
	target := newMapTarget(snapshot.Object{"title": snapshot.String("a")})
	p, err := New(target, []string{"title"}, nil)
	require.NoError(t, err)

	err = p.SetState(snapshot.Snapshot{Fields: snapshot.Object{
		"title":   snapshot.String("b"),
		"unknown": snapshot.Int(1),
	}})
	require.NoError(t, err)
	assert.Equal(t, snapshot.Object{"title": snapshot.String("b")}, target.values)
}

func TestSetStatePartial(t *testing.T) {
	target := newMapTarget(snapshot.Object{"a": snapshot.Int(1), "b": snapshot.Int(2)})
	p, err := New(target, []string{"a", "b"}, nil)
	require.NoError(t, err)

	require.NoError(t, p.SetState(snapshot.Snapshot{Fields: snapshot.Object{"a": snapshot.Int(5)}}))
	assert.Equal(t, snapshot.Int(5), target.values["a"])
	assert.Equal(t, snapshot.Int(2), target.values["b"], "absent keys are left alone")
}

func TestSetStateDelegatesChildren(t *testing.T) {
	children := &fakeChildren{}
	p, err := New(newMapTarget(snapshot.Object{}), nil, children)
	require.NoError(t, err)

	require.NoError(t, p.SetState(snapshot.Snapshot{}))
	assert.Empty(t, children.set, "nil children map skips reconciliation")

	incoming := snapshot.Children{{ID: "1", Ref: snapshot.ChildRef{TypeKey: "T:1", Position: 0}}}
	require.NoError(t, p.SetState(snapshot.Snapshot{Children: incoming}))
	require.Len(t, children.set, 1)
	assert.Equal(t, incoming, children.set[0])
}

func TestSetStatePropagatesErrors(t *testing.T) {
	target := newMapTarget(snapshot.Object{})
	target.failOn = "a"
	p, err := New(target, []string{"a"}, nil)
	require.NoError(t, err)
	err = p.SetState(snapshot.Snapshot{Fields: snapshot.Object{"a": snapshot.Int(1)}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"a"`)

	children := &fakeChildren{err: errors.New("boom")}
	p, err = New(newMapTarget(snapshot.Object{}), nil, children)
	require.NoError(t, err)
	err = p.SetState(snapshot.Snapshot{Children: snapshot.Children{}})
	assert.ErrorContains(t, err, "boom")
}

func TestAccessor(t *testing.T) {
	store := snapshot.Object{"x": snapshot.Int(1)}
	acc := Accessor{
		Get: func() snapshot.Object { return store },
		Set: func(o snapshot.Object) error { store = o; return nil },
	}
	p, err := NewWithAccessor(acc, nil)
	require.NoError(t, err)

	assert.Equal(t, snapshot.Object{"x": snapshot.Int(1)}, p.State().Fields)
	assert.True(t, p.Observes("anything"))
	assert.False(t, p.Observes(snapshot.ChildrenField))

	require.NoError(t, p.SetState(snapshot.Snapshot{Fields: snapshot.Object{"y": snapshot.Int(2)}}))
	assert.Equal(t, snapshot.Object{"y": snapshot.Int(2)}, store)

	_, err = NewWithAccessor(Accessor{}, nil)
	assert.Error(t, err)
}

func TestWatchFiltersUnobserved(t *testing.T) {
	target := newMapTarget(snapshot.Object{})
	p, err := New(target, []string{"a"}, nil)
	require.NoError(t, err)

	var seen []string
	cancel, ok := p.Watch(func(f string) { seen = append(seen, f) })
	require.True(t, ok)

	require.NoError(t, target.SetField("a", snapshot.Int(1)))
	require.NoError(t, target.SetField("b", snapshot.Int(1)))
	assert.Equal(t, []string{"a"}, seen)

	cancel()
	require.NoError(t, target.SetField("a", snapshot.Int(2)))
	assert.Len(t, seen, 1)
}

func TestWatchWithoutNotifier(t *testing.T) {
	p, err := NewWithAccessor(Accessor{
		Get: func() snapshot.Object { return nil },
		Set: func(snapshot.Object) error { return nil },
	}, nil)
	require.NoError(t, err)
	_, ok := p.Watch(func(string) {})
	assert.False(t, ok)
}
