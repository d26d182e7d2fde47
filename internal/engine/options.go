package engine

import (
	"time"

	"github.com/roach88/rewind/internal/observe"
	"github.com/roach88/rewind/internal/snapshot"
)

// Option configures a Rewindable at construction.
type Option func(*config)

type config struct {
	history    []snapshot.Snapshot
	index      int
	hasHistory bool

	children []childSeed
	types    []*Kind

	added   func(id string, child *Rewindable)
	removed func(id string)

	debounce  time.Duration
	scheduler observe.Scheduler

	observer Observer
	session  string
	sessions SessionGenerator
	clock    SeqClock
}

type childSeed struct {
	id    string
	child *Rewindable
}

// WithHistory loads history and travels to index instead of recording a
// fresh baseline. The index is clamped into the history's bounds.
func WithHistory(history []snapshot.Snapshot, index int) Option {
	return func(c *config) {
		c.history = history
		c.index = index
		c.hasHistory = true
	}
}

// WithHistoryAtTip is WithHistory positioned on the last entry.
func WithHistoryAtTip(history []snapshot.Snapshot) Option {
	return WithHistory(history, len(history)-1)
}

// WithChild registers a child before the baseline is recorded. Children are
// registered in option order.
func WithChild(id string, child *Rewindable) Option {
	return func(c *config) {
		c.children = append(c.children, childSeed{id: id, child: child})
	}
}

// WithTypes adds kinds to the registry's type table so children of those
// kinds can be rebuilt from serialized history.
func WithTypes(kinds ...*Kind) Option {
	return func(c *config) {
		c.types = append(c.types, kinds...)
	}
}

// WithChildHooks sets the callbacks run when reconciliation reattaches or
// rebuilds a child, and when it detaches one.
func WithChildHooks(added func(id string, child *Rewindable), removed func(id string)) Option {
	return func(c *config) {
		c.added = added
		c.removed = removed
	}
}

// WithDebounce defers recording after field changes until the target has
// been quiet for delay. It overrides the kind's setting.
func WithDebounce(delay time.Duration, scheduler observe.Scheduler) Option {
	return func(c *config) {
		c.debounce = delay
		c.scheduler = scheduler
	}
}

// WithObserver delivers journal-changing operations to obs.
func WithObserver(obs Observer) Option {
	return func(c *config) {
		c.observer = obs
	}
}

// WithSession sets the session token stamped on events.
func WithSession(token string) Option {
	return func(c *config) {
		c.session = token
	}
}

// WithSessionGenerator sets the generator used when no token is given.
func WithSessionGenerator(g SessionGenerator) Option {
	return func(c *config) {
		c.sessions = g
	}
}

// WithClock sets the clock that sequences events.
func WithClock(clock SeqClock) Option {
	return func(c *config) {
		c.clock = clock
	}
}
