package snapshot

import (
	"math"
	"reflect"
)

// ref identifies a container instance: its backing pointer plus its length,
// since two slices can share one backing array.
type ref struct {
	kind byte
	ptr  uintptr
	n    int
}

// identity returns the container identity of v and whether v is a container
// that can participate in a cycle. Empty slices hold no elements and are never
// tracked.
func identity(v Value) (ref, bool) {
	switch val := v.(type) {
	case List:
		if len(val) == 0 {
			return ref{}, false
		}
		return ref{kind: 'l', ptr: reflect.ValueOf(val).Pointer(), n: len(val)}, true
	case Set:
		if len(val) == 0 {
			return ref{}, false
		}
		return ref{kind: 's', ptr: reflect.ValueOf(val).Pointer(), n: len(val)}, true
	case Object:
		if val == nil {
			return ref{}, false
		}
		return ref{kind: 'o', ptr: reflect.ValueOf(val).Pointer(), n: -1}, true
	}
	return ref{}, false
}

// Equal reports whether a and b are deep-structurally equal:
//   - scalars by kind and value (Int(1) and Float(1) differ)
//   - List element-wise
//   - Set by membership, counting duplicates
//   - Object by key and value
//
// A pair of containers revisited while already under comparison is treated as
// equal, so cyclic values terminate. A nil Value equals Null.
func Equal(a, b Value) bool {
	c := comparer{inProgress: make(map[[2]ref]bool)}
	return c.equal(a, b)
}

type comparer struct {
	inProgress map[[2]ref]bool
}

func (c *comparer) equal(a, b Value) bool {
	if a == nil {
		a = Null{}
	}
	if b == nil {
		b = Null{}
	}

	switch av := a.(type) {
	case Null:
		_, ok := b.(Null)
		return ok
	case Bool:
		bv, ok := b.(Bool)
		return ok && av == bv
	case Int:
		bv, ok := b.(Int)
		return ok && av == bv
	case Float:
		bv, ok := b.(Float)
		if !ok {
			return false
		}
		if math.IsNaN(float64(av)) && math.IsNaN(float64(bv)) {
			return true
		}
		return av == bv
	case String:
		bv, ok := b.(String)
		return ok && av == bv
	case List:
		bv, ok := b.(List)
		if !ok || len(av) != len(bv) {
			return false
		}
		return c.visit(a, b, func() bool {
			for i := range av {
				if !c.equal(av[i], bv[i]) {
					return false
				}
			}
			return true
		})
	case Set:
		bv, ok := b.(Set)
		if !ok || len(av) != len(bv) {
			return false
		}
		return c.visit(a, b, func() bool {
			return c.sameMembers(av, bv)
		})
	case Object:
		bv, ok := b.(Object)
		if !ok || len(av) != len(bv) {
			return false
		}
		return c.visit(a, b, func() bool {
			for k, ae := range av {
				be, ok := bv[k]
				if !ok || !c.equal(ae, be) {
					return false
				}
			}
			return true
		})
	}
	return false
}

// visit runs cmp unless the (a, b) pair is already being compared further up
// the stack, in which case the cycle is closed and considered equal.
func (c *comparer) visit(a, b Value, cmp func() bool) bool {
	ra, okA := identity(a)
	rb, okB := identity(b)
	if !okA || !okB {
		return cmp()
	}
	key := [2]ref{ra, rb}
	if c.inProgress[key] {
		return true
	}
	c.inProgress[key] = true
	defer delete(c.inProgress, key)
	return cmp()
}

// sameMembers matches every member of a to a distinct equal member of b.
func (c *comparer) sameMembers(a, b Set) bool {
	used := make([]bool, len(b))
	for _, ae := range a {
		found := false
		for j, be := range b {
			if used[j] {
				continue
			}
			if c.equal(ae, be) {
				used[j] = true
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
