package engine

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/roach88/rewind/internal/journal"
	"github.com/roach88/rewind/internal/observe"
	"github.com/roach88/rewind/internal/projector"
	"github.com/roach88/rewind/internal/registry"
	"github.com/roach88/rewind/internal/snapshot"
)

// Rewindable is the versioning controller for one entity.
//
// It owns one journal and one projector (with its registry) for its whole
// lifetime. Children are other Rewindables held by reference; a parent only
// drives them through their public surface.
//
// Rewindable is not safe for concurrent use.
type Rewindable struct {
	kind     *Kind
	journal  *journal.Journal
	proj     *projector.Projector
	registry *registry.Registry

	suspended int
	debouncer *observe.Debouncer
	unwatch   func()

	listeners []changeListener
	nextID    int
	childSubs map[string]func()

	added   func(id string, child *Rewindable)
	removed func(id string)

	observer Observer
	session  string
	clock    SeqClock
	ready    *observe.Ready
}

type changeListener struct {
	id int
	fn func()
}

func newRewindable(k *Kind, target projector.Target, acc projector.Accessor, opts []Option) (*Rewindable, error) {
	cfg := config{debounce: k.opts.Debounce, scheduler: k.opts.Scheduler}
	for _, opt := range opts {
		opt(&cfg)
	}

	r := &Rewindable{
		kind:      k,
		childSubs: make(map[string]func()),
		added:     cfg.added,
		removed:   cfg.removed,
		observer:  cfg.observer,
		session:   cfg.session,
		clock:     cfg.clock,
		ready:     observe.NewReady(),
	}
	if r.clock == nil {
		r.clock = NewClock()
	}
	if r.session == "" && r.observer != nil {
		gen := cfg.sessions
		if gen == nil {
			gen = UUIDv7Generator{}
		}
		r.session = gen.Generate()
	}

	j, err := journal.New(k.opts.Model)
	if err != nil {
		return nil, err
	}
	r.journal = j

	r.registry = registry.New(registry.Hooks{Added: r.childAdded, Removed: r.childRemoved})
	for _, t := range k.children {
		r.registry.RegisterType(t)
	}
	for _, t := range cfg.types {
		r.registry.RegisterType(t)
	}

	var children projector.ChildState
	if k.opts.Composite {
		children = r.registry
	}
	if k.opts.Accessor != nil {
		r.proj, err = projector.NewWithAccessor(acc, children)
	} else {
		r.proj, err = projector.New(target, k.opts.Fields, children)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", k.name, err)
	}

	if cfg.debounce > 0 {
		if cfg.scheduler == nil {
			return nil, newInvalidKindError(k.name, "debounce requires a scheduler")
		}
		r.debouncer = observe.NewDebouncer(cfg.debounce, cfg.scheduler)
	}

	for _, seed := range cfg.children {
		if err := r.attachChild(seed.id, seed.child); err != nil {
			return nil, err
		}
	}

	if cfg.hasHistory {
		if err := r.Restore(cfg.history, cfg.index); err != nil {
			return nil, err
		}
	} else {
		r.Record()
	}

	r.unwatch, _ = r.proj.Watch(r.Changed)
	r.ready.Signal()
	return r, nil
}

// Kind returns the entity's kind.
func (r *Rewindable) Kind() *Kind {
	return r.kind
}

// TypeKey returns the kind's TypeKey.
func (r *Rewindable) TypeKey() string {
	return r.kind.key
}

// Factory returns the kind, which can rebuild this entity.
func (r *Rewindable) Factory() registry.Factory {
	return r.kind
}

// Session returns the session token stamped on events.
func (r *Rewindable) Session() string {
	return r.session
}

// Target returns the projected target, or nil for accessor kinds.
func (r *Rewindable) Target() projector.Target {
	return r.proj.Target()
}

// Ready returns the signal raised once the baseline is in place.
func (r *Rewindable) Ready() *observe.Ready {
	return r.ready
}

// History returns a copy of the journal entries.
func (r *Rewindable) History() []snapshot.Snapshot {
	return r.journal.History()
}

// Index returns the journal position.
func (r *Rewindable) Index() int {
	return r.journal.Index()
}

// Len returns the journal length.
func (r *Rewindable) Len() int {
	return r.journal.Len()
}

// Current returns the journal entry at the current position.
func (r *Rewindable) Current() (snapshot.Snapshot, bool) {
	return r.journal.Current()
}

// State reads the live state, which may differ from Current while a deferred
// record is pending or while suspended.
func (r *Rewindable) State() snapshot.Snapshot {
	return r.proj.State()
}

// Suspended reports whether recording is disabled.
func (r *Rewindable) Suspended() bool {
	return r.suspended > 0
}

// Suspend disables recording. Calls nest; each needs a matching Resume.
func (r *Rewindable) Suspend() {
	r.suspended++
}

// Resume undoes one Suspend. Unmatched calls are ignored.
func (r *Rewindable) Resume() {
	if r.suspended == 0 {
		slog.Warn("resume without suspend", "kind", r.kind.name)
		return
	}
	r.suspended--
}

// Record pushes the current state into the journal. It is a no-op while
// suspended, and when the state is empty or equal to the current entry.
func (r *Rewindable) Record() bool {
	return r.record(OpRecord, "", 0)
}

func (r *Rewindable) record(op Op, childID string, arg int) bool {
	if r.suspended > 0 {
		return false
	}
	if r.debouncer != nil {
		r.debouncer.Cancel()
	}
	if !r.journal.Record(r.proj.State()) {
		return false
	}
	slog.Debug("rewindable record", "kind", r.kind.name, "op", string(op), "child", childID,
		"index", r.journal.Index(), "len", r.journal.Len())
	r.changed(op, childID, arg, nil)
	return true
}

// Changed is the notification entry point for a committed write to field.
// It is ignored while suspended or for unobserved fields. Otherwise it records
// immediately, or after the quiet delay when debouncing.
func (r *Rewindable) Changed(field string) {
	if r.suspended > 0 || !r.proj.Observes(field) {
		return
	}
	if r.debouncer != nil {
		r.debouncer.Trigger(func() { r.Record() })
		return
	}
	r.Record()
}

// Flush commits a pending deferred record now. It reports whether one was pending.
func (r *Rewindable) Flush() bool {
	if r.debouncer == nil {
		return false
	}
	return r.debouncer.Flush()
}

// flushTree commits pending deferred records of every descendant, then r's
// own. A child's record reaches r through its change listener.
func (r *Rewindable) flushTree() {
	for _, id := range r.registry.IDs() {
		if child, ok := r.Child(id); ok {
			child.flushTree()
		}
	}
	r.Flush()
}

// Coalesce runs fn with recording suspended, then records exactly once.
// The record happens even when fn fails; fn's error is returned.
func (r *Rewindable) Coalesce(fn func() error) error {
	r.flushTree()
	err := r.suspendDuring(fn)
	r.Record()
	return err
}

func (r *Rewindable) suspendDuring(fn func() error) error {
	r.Suspend()
	defer r.Resume()
	return fn()
}

// Travel moves to entry i, where -1 <= i < Len(), and restores its state.
// An out-of-range i is a silent no-op returning false.
func (r *Rewindable) Travel(i int) (bool, error) {
	return r.navigate(OpTravel, i, func() (snapshot.Snapshot, bool) { return r.journal.Travel(i) })
}

// Undo steps back one entry. It is a no-op at the first entry.
func (r *Rewindable) Undo() (bool, error) {
	return r.navigate(OpUndo, 0, r.journal.Undo)
}

// Redo steps forward one entry. It is a no-op at the tip.
func (r *Rewindable) Redo() (bool, error) {
	return r.navigate(OpRedo, 0, r.journal.Redo)
}

func (r *Rewindable) navigate(op Op, arg int, move func() (snapshot.Snapshot, bool)) (bool, error) {
	r.flushTree()

	var moved bool
	err := r.suspendDuring(func() error {
		s, ok := move()
		if !ok {
			return nil
		}
		moved = true
		if r.journal.Index() < 0 {
			return nil
		}
		return r.proj.SetState(s)
	})
	if !moved {
		return false, err
	}
	slog.Debug("rewindable travel", "kind", r.kind.name, "op", string(op),
		"index", r.journal.Index(), "len", r.journal.Len())
	r.changed(op, "", arg, nil)
	if err != nil {
		return true, fmt.Errorf("%s: %w", op, err)
	}
	return true, nil
}

// Drop removes journal entry i without touching the live state.
func (r *Rewindable) Drop(i int) error {
	r.flushTree()
	if err := r.journal.Drop(i); err != nil {
		return err
	}
	r.changed(OpDrop, "", i, nil)
	return nil
}

// Restore replaces the history wholesale, travels to index (clamped), and
// applies that entry's state. It implements registry.Entity.
func (r *Rewindable) Restore(history []snapshot.Snapshot, index int) error {
	if r.debouncer != nil {
		r.debouncer.Cancel()
	}
	err := r.suspendDuring(func() error {
		r.journal.Load(history, index)
		s, ok := r.journal.Current()
		if !ok {
			return nil
		}
		return r.proj.SetState(s)
	})
	slog.Debug("rewindable restore", "kind", r.kind.name,
		"index", r.journal.Index(), "len", r.journal.Len())
	r.changed(OpLoad, "", r.journal.Index(), r.journal.History())
	if err != nil {
		return fmt.Errorf("restore %s: %w", r.kind.name, err)
	}
	return nil
}

// Apply projects s onto the live state with recording suspended. The journal
// is left alone; a following Record captures the result.
func (r *Rewindable) Apply(s snapshot.Snapshot) error {
	if r.debouncer != nil {
		r.debouncer.Cancel()
	}
	if err := r.suspendDuring(func() error { return r.proj.SetState(s) }); err != nil {
		return fmt.Errorf("apply %s: %w", r.kind.name, err)
	}
	return nil
}

// OnChange registers fn to run after every operation that changes the journal.
func (r *Rewindable) OnChange(fn func()) (cancel func()) {
	r.nextID++
	id := r.nextID
	r.listeners = append(r.listeners, changeListener{id: id, fn: fn})
	return func() {
		r.listeners = slices.DeleteFunc(r.listeners, func(l changeListener) bool { return l.id == id })
	}
}

// Close stops watching the target and drops any pending deferred record.
func (r *Rewindable) Close() {
	if r.unwatch != nil {
		r.unwatch()
		r.unwatch = nil
	}
	if r.debouncer != nil {
		r.debouncer.Cancel()
	}
	for id, cancel := range r.childSubs {
		cancel()
		delete(r.childSubs, id)
	}
}

// changed emits the event for a journal change and runs listeners.
func (r *Rewindable) changed(op Op, childID string, arg int, history []snapshot.Snapshot) {
	if r.observer != nil {
		cur, _ := r.journal.Current()
		r.observer.Observe(Event{
			Seq:      r.clock.Next(),
			Session:  r.session,
			Op:       op,
			Arg:      arg,
			ChildID:  childID,
			Index:    r.journal.Index(),
			Len:      r.journal.Len(),
			Snapshot: cur,
			History:  history,
		})
	}
	for _, l := range slices.Clone(r.listeners) {
		l.fn()
	}
}

var _ registry.Entity = (*Rewindable)(nil)
