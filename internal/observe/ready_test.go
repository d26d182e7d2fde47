package observe

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadySignal(t *testing.T) {
	r := NewReady()
	assert.False(t, r.IsReady())

	r.Signal()
	r.Signal()
	assert.True(t, r.IsReady())
	require.NoError(t, r.Wait(context.Background()))
}

func TestReadyWaitHonoursContext(t *testing.T) {
	r := NewReady()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, r.Wait(ctx), context.DeadlineExceeded)
}

func TestWaitAll(t *testing.T) {
	a, b := NewReady(), NewReady()
	go func() {
		a.Signal()
		b.Signal()
	}()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, WaitAll(ctx, a, b))
}
