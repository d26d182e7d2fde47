package typekey

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rewind/internal/snapshot"
)

func TestGenerateIgnoresEntryOrder(t *testing.T) {
	a, err := Generate("Counter",
		E("fields", snapshot.Set{snapshot.String("value")}),
		E("model", snapshot.String("linear")),
		E("debounce_ms", snapshot.Int(0)),
	)
	require.NoError(t, err)

	b, err := Generate("Counter",
		E("debounce_ms", snapshot.Int(0)),
		E("model", snapshot.String("linear")),
		E("fields", snapshot.Set{snapshot.String("value")}),
	)
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.True(t, strings.HasPrefix(a, "Counter:"))
	assert.Len(t, a, len("Counter:")+digestLen)
}

func TestGenerateDiffersWithConfig(t *testing.T) {
	linear := MustGenerate("Counter", E("model", snapshot.String("linear")))
	branching := MustGenerate("Counter", E("model", snapshot.String("branching")))
	assert.NotEqual(t, linear, branching)
}

func TestGenerateDiffersWithShape(t *testing.T) {
	cfg := E("model", snapshot.String("linear"))
	assert.NotEqual(t, MustGenerate("Counter", cfg), MustGenerate("Gauge", cfg))
}

func TestGenerateFieldSetOrder(t *testing.T) {
	a := MustGenerate("Todo", E("fields", snapshot.Set{snapshot.String("title"), snapshot.String("done")}))
	b := MustGenerate("Todo", E("fields", snapshot.Set{snapshot.String("done"), snapshot.String("title")}))
	assert.Equal(t, a, b)
}

func TestGenerateDeterministic(t *testing.T) {
	for range 10 {
		assert.Equal(t, MustGenerate("X"), MustGenerate("X"))
	}
}

func TestGenerateErrors(t *testing.T) {
	_, err := Generate("")
	assert.Error(t, err)

	_, err = Generate("A:B")
	assert.Error(t, err)

	_, err = Generate("A", E("k", snapshot.Int(1)), E("k", snapshot.Int(2)))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate")
}

func TestShape(t *testing.T) {
	assert.Equal(t, "Counter", Shape(MustGenerate("Counter")))
	assert.Equal(t, "bare", Shape("bare"))
}
