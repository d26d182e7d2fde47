package snapshot

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEqualScalars(t *testing.T) {
	tests := []struct {
		name  string
		a, b  Value
		equal bool
	}{
		{"null", Null{}, Null{}, true},
		{"nil is null", nil, Null{}, true},
		{"bool", Bool(true), Bool(true), true},
		{"bool differs", Bool(true), Bool(false), false},
		{"int", Int(7), Int(7), true},
		{"int differs", Int(7), Int(8), false},
		{"int vs float", Int(1), Float(1), false},
		{"float", Float(1.5), Float(1.5), true},
		{"nan", Float(math.NaN()), Float(math.NaN()), true},
		{"string", String("a"), String("a"), true},
		{"string vs int", String("1"), Int(1), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.equal, Equal(tt.a, tt.b))
			assert.Equal(t, tt.equal, Equal(tt.b, tt.a), "equality must be symmetric")
		})
	}
}

func TestEqualContainers(t *testing.T) {
	tests := []struct {
		name  string
		a, b  Value
		equal bool
	}{
		{"list element-wise", List{Int(1), Int(2)}, List{Int(1), Int(2)}, true},
		{"list order matters", List{Int(1), Int(2)}, List{Int(2), Int(1)}, false},
		{"list length", List{Int(1)}, List{Int(1), Int(1)}, false},
		{"set order free", Set{Int(1), Int(2)}, Set{Int(2), Int(1)}, true},
		{"set counts duplicates", Set{Int(1), Int(1), Int(2)}, Set{Int(1), Int(2), Int(2)}, false},
		{"set vs list", Set{Int(1)}, List{Int(1)}, false},
		{"object", Object{"a": Int(1), "b": String("x")}, Object{"b": String("x"), "a": Int(1)}, true},
		{"object missing key", Object{"a": Int(1)}, Object{"b": Int(1)}, false},
		{"object value differs", Object{"a": Int(1)}, Object{"a": Int(2)}, false},
		{
			"nested",
			Object{"tags": Set{String("x"), String("y")}, "items": List{Object{"n": Int(1)}}},
			Object{"tags": Set{String("y"), String("x")}, "items": List{Object{"n": Int(1)}}},
			true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.equal, Equal(tt.a, tt.b))
		})
	}
}

func TestEqualCycles(t *testing.T) {
	a := Object{"name": String("a")}
	a["self"] = a
	b := Object{"name": String("a")}
	b["self"] = b

	assert.True(t, Equal(a, b), "revisited cycles are treated as equal")
	assert.True(t, Equal(a, a))

	c := Object{"name": String("c")}
	c["self"] = c
	assert.False(t, Equal(a, c), "cycles with different payloads differ")
}

func TestEqualMutualCycle(t *testing.T) {
	left := List{Int(1), nil}
	right := List{Int(1), nil}
	left[1] = right
	right[1] = left

	assert.True(t, Equal(left, right))
}

func TestEqualSharedBackingArray(t *testing.T) {
	backing := List{Int(1), Int(2), Int(3)}
	assert.False(t, Equal(backing[:2], backing[:3]))
	assert.True(t, Equal(backing[:2], List{Int(1), Int(2)}))
}
