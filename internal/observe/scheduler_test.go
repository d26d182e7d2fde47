package observe

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoopDrainFIFO(t *testing.T) {
	l := NewLoop()
	var order []int
	for i := 1; i <= 3; i++ {
		require.True(t, l.Post(func() { order = append(order, i) }))
	}
	assert.Equal(t, 3, l.Len())
	assert.Equal(t, 3, l.Drain())
	assert.Equal(t, []int{1, 2, 3}, order)
	assert.Equal(t, 0, l.Len())
}

func TestLoopDrainRunsNestedPosts(t *testing.T) {
	l := NewLoop()
	ran := 0
	l.Post(func() {
		ran++
		l.Post(func() { ran++ })
	})
	assert.Equal(t, 2, l.Drain())
	assert.Equal(t, 2, ran)
}

func TestLoopRunStopsOnClose(t *testing.T) {
	l := NewLoop()
	var ran atomic.Int32
	l.Post(func() { ran.Add(1) })

	done := make(chan error, 1)
	go func() { done <- l.Run(context.Background()) }()

	l.Post(func() { ran.Add(1) })
	l.Close()
	assert.False(t, l.Post(func() {}), "closed loop rejects posts")

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after Close")
	}
	assert.Equal(t, int32(2), ran.Load())
}

func TestLoopRunStopsOnContext(t *testing.T) {
	l := NewLoop()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestLoopAfterFuncPostsToQueue(t *testing.T) {
	l := NewLoop()
	fired := make(chan struct{})
	l.AfterFunc(time.Millisecond, func() { close(fired) })

	require.Eventually(t, func() bool { return l.Len() == 1 }, 5*time.Second, time.Millisecond)
	select {
	case <-fired:
		t.Fatal("callback must not run off the loop")
	default:
	}
	l.Drain()
	<-fired
}

func TestLoopTimerStopAfterPost(t *testing.T) {
	l := NewLoop()
	ran := false
	timer := l.AfterFunc(time.Millisecond, func() { ran = true })

	require.Eventually(t, func() bool { return l.Len() == 1 }, 5*time.Second, time.Millisecond)
	assert.True(t, timer.Stop(), "stopping a queued callback still counts")
	l.Drain()
	assert.False(t, ran)
	assert.False(t, timer.Stop())
}

func TestManualAdvance(t *testing.T) {
	m := NewManual()
	var order []string
	m.AfterFunc(20*time.Millisecond, func() { order = append(order, "b") })
	m.AfterFunc(10*time.Millisecond, func() { order = append(order, "a") })
	m.AfterFunc(10*time.Millisecond, func() { order = append(order, "a2") })
	late := m.AfterFunc(50*time.Millisecond, func() { order = append(order, "late") })

	assert.Equal(t, 3, m.Advance(20*time.Millisecond))
	assert.Equal(t, []string{"a", "a2", "b"}, order)
	assert.Equal(t, 20*time.Millisecond, m.Now())
	assert.Equal(t, 1, m.Pending())

	assert.True(t, late.Stop())
	assert.Equal(t, 0, m.Advance(time.Second))
}

func TestManualChainedCallbacks(t *testing.T) {
	m := NewManual()
	ran := 0
	m.AfterFunc(5*time.Millisecond, func() {
		ran++
		m.AfterFunc(5*time.Millisecond, func() { ran++ })
	})
	m.Advance(10 * time.Millisecond)
	assert.Equal(t, 2, ran)
}
