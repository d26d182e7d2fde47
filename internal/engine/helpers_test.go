package engine

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/rewind/internal/journal"
	"github.com/roach88/rewind/internal/observe"
	"github.com/roach88/rewind/internal/snapshot"
)

func counterKind(t *testing.T, model journal.Model) *Kind {
	t.Helper()
	k, err := NewKind("Counter", KindOptions{
		Fields:   []string{"value"},
		Defaults: snapshot.Object{"value": snapshot.Int(0)},
		Model:    model,
	})
	require.NoError(t, err)
	return k
}

func listKind(t *testing.T, children ...*Kind) *Kind {
	t.Helper()
	k, err := NewKind("List", KindOptions{
		Fields:    []string{"title"},
		Defaults:  snapshot.Object{"title": snapshot.String("")},
		Composite: true,
	})
	require.NoError(t, err)
	k.AllowChildren(children...)
	return k
}

func newInstance(t *testing.T, k *Kind, opts ...Option) *Rewindable {
	t.Helper()
	r, err := k.New(opts...)
	require.NoError(t, err)
	return r
}

func obj(t *testing.T, r *Rewindable) *observe.Object {
	t.Helper()
	o, ok := r.Target().(*observe.Object)
	require.True(t, ok, "default target is an observe.Object")
	return o
}

func set(t *testing.T, r *Rewindable, field string, v any) {
	t.Helper()
	require.NoError(t, obj(t, r).Set(field, v))
}

func value(t *testing.T, r *Rewindable) int {
	t.Helper()
	v, ok := obj(t, r).Get("value").(snapshot.Int)
	require.True(t, ok)
	return int(v)
}

func historyValues(t *testing.T, h []snapshot.Snapshot) []int {
	t.Helper()
	out := make([]int, len(h))
	for i, s := range h {
		v, ok := s.Fields["value"].(snapshot.Int)
		require.True(t, ok)
		out[i] = int(v)
	}
	return out
}
