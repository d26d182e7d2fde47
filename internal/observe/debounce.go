package observe

import (
	"sync"
	"time"
)

// Debouncer collapses bursts of triggers into one call.
//
// Each Trigger cancels the pending call and schedules a new one after the
// quiet delay, so the last trigger wins. The callback runs when the timer
// fires, so it observes state at commit time, not at trigger time.
type Debouncer struct {
	delay time.Duration
	sched Scheduler

	mu    sync.Mutex
	timer Timer
	fn    func()
	gen   uint64
}

// NewDebouncer creates a debouncer on sched.
func NewDebouncer(delay time.Duration, sched Scheduler) *Debouncer {
	return &Debouncer{delay: delay, sched: sched}
}

// Trigger replaces any pending call with fn, scheduled after the delay.
func (d *Debouncer) Trigger(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	gen := d.gen
	d.fn = fn
	d.timer = d.sched.AfterFunc(d.delay, func() {
		if run := d.take(gen); run != nil {
			run()
		}
	})
}

// take claims the pending call if it still belongs to generation gen.
func (d *Debouncer) take(gen uint64) func() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.gen != gen || d.fn == nil {
		return nil
	}
	fn := d.fn
	d.fn, d.timer = nil, nil
	return fn
}

// Flush runs the pending call now. It reports whether one was pending.
func (d *Debouncer) Flush() bool {
	d.mu.Lock()
	if d.fn == nil {
		d.mu.Unlock()
		return false
	}
	d.timer.Stop()
	fn := d.fn
	d.fn, d.timer = nil, nil
	d.gen++
	d.mu.Unlock()

	fn()
	return true
}

// Cancel drops the pending call. It reports whether one was pending.
func (d *Debouncer) Cancel() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.fn == nil {
		return false
	}
	d.timer.Stop()
	d.fn, d.timer = nil, nil
	d.gen++
	return true
}

// Pending reports whether a call is scheduled.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.fn != nil
}
