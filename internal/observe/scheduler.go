package observe

import (
	"context"
	"slices"
	"sync"
	"sync/atomic"
	"time"
)

// Timer is a pending scheduled callback.
type Timer interface {
	// Stop prevents the callback from running. It reports whether the call
	// stopped it, false if it already ran or was stopped.
	Stop() bool
}

// Scheduler runs callbacks after a delay.
type Scheduler interface {
	AfterFunc(d time.Duration, fn func()) Timer
}

// Loop is a Scheduler whose callbacks all run on the goroutine that calls Run
// or Drain. Timers fire on their own goroutines but only post to the queue,
// so the engine stays single-threaded.
//
// Thread-safety: Post and AfterFunc may be called from any goroutine. Run
// must be called from exactly one goroutine.
type Loop struct {
	mu     sync.Mutex
	queue  []func()
	closed bool
	signal chan struct{} // Signals callback availability (buffered, size 1)
}

// NewLoop creates an empty loop.
func NewLoop() *Loop {
	return &Loop{
		queue:  make([]func(), 0, 16),
		signal: make(chan struct{}, 1),
	}
}

// Post adds fn to the back of the queue. It returns false once the loop is closed.
func (l *Loop) Post(fn func()) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return false
	}
	l.queue = append(l.queue, fn)

	// Non-blocking: the buffer of 1 coalesces signals
	select {
	case l.signal <- struct{}{}:
	default:
	}
	return true
}

// AfterFunc posts fn to the loop after d.
func (l *Loop) AfterFunc(d time.Duration, fn func()) Timer {
	lt := &loopTimer{}
	lt.timer = time.AfterFunc(d, func() {
		l.Post(func() {
			if lt.fired.CompareAndSwap(false, true) {
				fn()
			}
		})
	})
	return lt
}

type loopTimer struct {
	timer *time.Timer
	fired atomic.Bool
}

// Stop also covers a timer that has fired but whose callback is still queued.
func (t *loopTimer) Stop() bool {
	t.timer.Stop()
	return t.fired.CompareAndSwap(false, true)
}

func (l *Loop) tryDequeue() (func(), bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.queue) == 0 {
		return nil, false
	}
	fn := l.queue[0]
	l.queue[0] = nil
	if len(l.queue) == 1 {
		l.queue = l.queue[:0]
	} else {
		l.queue = l.queue[1:]
	}
	return fn, true
}

// Drain runs every queued callback, including ones queued while draining,
// and returns how many ran.
func (l *Loop) Drain() int {
	n := 0
	for {
		fn, ok := l.tryDequeue()
		if !ok {
			return n
		}
		fn()
		n++
	}
}

// Run processes callbacks until ctx is cancelled or the loop is closed and empty.
func (l *Loop) Run(ctx context.Context) error {
	for {
		l.Drain()

		l.mu.Lock()
		done := l.closed && len(l.queue) == 0
		l.mu.Unlock()
		if done {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.signal:
		}
	}
}

// Len returns the number of queued callbacks.
func (l *Loop) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.queue)
}

// Close stops accepting callbacks and wakes Run.
func (l *Loop) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return
	}
	l.closed = true
	close(l.signal)
}

// Manual is a Scheduler driven by an explicit clock. Callbacks run inside
// Advance, on the caller's goroutine. It is meant for tests and scenario runs.
type Manual struct {
	mu      sync.Mutex
	now     time.Duration
	seq     int
	pending []*manualTimer
}

type manualTimer struct {
	m   *Manual
	due time.Duration
	seq int
	fn  func()
}

// NewManual creates a manual scheduler at time zero.
func NewManual() *Manual {
	return &Manual{}
}

// AfterFunc schedules fn at Now()+d.
func (m *Manual) AfterFunc(d time.Duration, fn func()) Timer {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	t := &manualTimer{m: m, due: m.now + d, seq: m.seq, fn: fn}
	m.pending = append(m.pending, t)
	return t
}

func (t *manualTimer) Stop() bool {
	t.m.mu.Lock()
	defer t.m.mu.Unlock()
	n := len(t.m.pending)
	t.m.pending = slices.DeleteFunc(t.m.pending, func(p *manualTimer) bool { return p == t })
	return len(t.m.pending) != n
}

// Now returns the elapsed manual time.
func (m *Manual) Now() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Pending returns the number of scheduled callbacks.
func (m *Manual) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pending)
}

// Advance moves the clock forward by d, running every callback that comes due
// in due-time order. Callbacks scheduled while advancing run too if they fall
// inside the window.
func (m *Manual) Advance(d time.Duration) int {
	m.mu.Lock()
	target := m.now + d
	m.mu.Unlock()

	ran := 0
	for {
		m.mu.Lock()
		next := m.nextDue(target)
		if next == nil {
			m.now = target
			m.mu.Unlock()
			return ran
		}
		m.now = next.due
		m.pending = slices.DeleteFunc(m.pending, func(p *manualTimer) bool { return p == next })
		m.mu.Unlock()

		next.fn()
		ran++
	}
}

func (m *Manual) nextDue(target time.Duration) *manualTimer {
	var next *manualTimer
	for _, t := range m.pending {
		if t.due > target {
			continue
		}
		if next == nil || t.due < next.due || (t.due == next.due && t.seq < next.seq) {
			next = t
		}
	}
	return next
}
