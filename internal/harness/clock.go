package harness

import (
	"context"
	"time"

	"github.com/roach88/rewind/internal/observe"
)

// realtimeSlack covers the gap between a timer's due time and its callback
// reaching the loop queue.
const realtimeSlack = 25 * time.Millisecond

// stepClock is the scheduler behind debounced kinds plus the way an advance
// step moves it forward.
type stepClock interface {
	observe.Scheduler
	Advance(d time.Duration) int
}

// realtimeClock drives debounced kinds with wall-clock timers. Callbacks are
// queued on a Loop and only run when an advance step drains it, so the
// engine stays on the harness goroutine.
type realtimeClock struct {
	ctx  context.Context
	loop *observe.Loop
}

func newRealtimeClock(ctx context.Context) *realtimeClock {
	return &realtimeClock{ctx: ctx, loop: observe.NewLoop()}
}

func (c *realtimeClock) AfterFunc(d time.Duration, fn func()) observe.Timer {
	return c.loop.AfterFunc(d, fn)
}

// Advance waits d in real time, then runs whatever the timers queued.
func (c *realtimeClock) Advance(d time.Duration) int {
	t := time.NewTimer(d + realtimeSlack)
	defer t.Stop()
	select {
	case <-c.ctx.Done():
	case <-t.C:
	}
	return c.loop.Drain()
}

func (c *realtimeClock) Close() {
	c.loop.Close()
}

// RunOption configures a scenario run.
type RunOption func(*runConfig)

type runConfig struct {
	realtime bool
}

// WithRealtime runs debounced kinds on wall-clock timers instead of the
// manual scheduler. Advance steps then sleep for their duration.
func WithRealtime() RunOption {
	return func(c *runConfig) { c.realtime = true }
}
