package observe

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDebouncerLastWriteWins(t *testing.T) {
	m := NewManual()
	d := NewDebouncer(100*time.Millisecond, m)

	value := 0
	var committed []int
	commit := func() { committed = append(committed, value) }

	value = 1
	d.Trigger(commit)
	m.Advance(50 * time.Millisecond)
	value = 2
	d.Trigger(commit)
	m.Advance(50 * time.Millisecond)
	assert.Empty(t, committed, "rescheduled, quiet window not over")

	value = 3
	m.Advance(50 * time.Millisecond)
	assert.Equal(t, []int{3}, committed, "state is read at commit time")
	assert.False(t, d.Pending())
}

func TestDebouncerFlush(t *testing.T) {
	m := NewManual()
	d := NewDebouncer(time.Second, m)
	ran := 0

	assert.False(t, d.Flush())
	d.Trigger(func() { ran++ })
	assert.True(t, d.Pending())
	assert.True(t, d.Flush())
	assert.Equal(t, 1, ran)

	m.Advance(2 * time.Second)
	assert.Equal(t, 1, ran, "flushed call does not run again")
}

func TestDebouncerCancel(t *testing.T) {
	m := NewManual()
	d := NewDebouncer(time.Second, m)
	ran := false
	d.Trigger(func() { ran = true })

	assert.True(t, d.Cancel())
	assert.False(t, d.Cancel())
	m.Advance(2 * time.Second)
	assert.False(t, ran)
	assert.Equal(t, 0, m.Pending())
}

func TestDebouncerOnLoop(t *testing.T) {
	l := NewLoop()
	d := NewDebouncer(time.Millisecond, l)
	ran := 0
	d.Trigger(func() { ran++ })
	d.Trigger(func() { ran += 10 })

	assert.Eventually(t, func() bool {
		l.Drain()
		return !d.Pending()
	}, 5*time.Second, time.Millisecond)
	assert.Equal(t, 10, ran)
}
