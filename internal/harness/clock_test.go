package harness

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rewind/internal/store"
)

func TestRealtimeClock_AdvanceDrainsDueTimers(t *testing.T) {
	c := newRealtimeClock(context.Background())
	defer c.Close()

	var fired []string
	c.AfterFunc(10*time.Millisecond, func() { fired = append(fired, "soon") })
	late := c.AfterFunc(time.Hour, func() { fired = append(fired, "late") })

	assert.Empty(t, fired, "callbacks only run inside Advance")
	assert.Equal(t, 1, c.Advance(10*time.Millisecond))
	assert.Equal(t, []string{"soon"}, fired)
	assert.True(t, late.Stop())
}

func TestRealtimeClock_AdvanceStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	c := newRealtimeClock(ctx)
	defer c.Close()
	cancel()

	start := time.Now()
	assert.Equal(t, 0, c.Advance(time.Hour))
	assert.Less(t, time.Since(start), time.Minute)
}

func TestRunWithStore_Realtime(t *testing.T) {
	ctx := context.Background()
	manual, err := Run(loadTestdata(t, "debounce"))
	require.NoError(t, err)

	st, err := store.Open(":memory:")
	require.NoError(t, err)
	defer st.Close()

	result, err := RunWithStore(ctx, loadTestdata(t, "debounce"), st, nil, WithRealtime())
	require.NoError(t, err)
	require.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Equal(t, manual.Trace, result.Trace, "same trace as the manual scheduler")
}
