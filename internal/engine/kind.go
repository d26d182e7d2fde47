package engine

import (
	"fmt"
	"slices"
	"time"

	"github.com/roach88/rewind/internal/journal"
	"github.com/roach88/rewind/internal/observe"
	"github.com/roach88/rewind/internal/projector"
	"github.com/roach88/rewind/internal/registry"
	"github.com/roach88/rewind/internal/snapshot"
	"github.com/roach88/rewind/internal/typekey"
)

// KindOptions declares a reconstructible entity kind.
type KindOptions struct {
	// Fields are the observed field names.
	Fields []string

	// Defaults seed the default target of new instances.
	Defaults snapshot.Object

	// Model is the journal model. Zero selects journal.Linear.
	Model journal.Model

	// Composite kinds own a child registry and carry a children map in
	// every snapshot.
	Composite bool

	// Debounce defers recording after field changes; it needs a Scheduler.
	Debounce  time.Duration
	Scheduler observe.Scheduler

	// Target builds the target of a new instance. When nil, instances use an
	// observe.Object seeded with Defaults.
	Target func() projector.Target

	// Accessor, when set, replaces field-by-field access for targets with no
	// enumerable fields. Fields must then be empty.
	Accessor func() projector.Accessor

	// Config holds extra configuration entries that distinguish this kind's
	// TypeKey.
	Config []typekey.Entry
}

// Kind is a reconstructible entity type: a base shape name plus the
// configuration that determines its TypeKey. Kind implements registry.Factory.
type Kind struct {
	name     string
	key      string
	opts     KindOptions
	children []*Kind
}

// NewKind validates opts and derives the kind's TypeKey.
func NewKind(name string, opts KindOptions) (*Kind, error) {
	if opts.Model == 0 {
		opts.Model = journal.Linear
	}
	if !opts.Model.Valid() {
		return nil, &journal.InvalidModelError{Value: int(opts.Model)}
	}
	if opts.Debounce < 0 {
		return nil, newInvalidKindError(name, "negative debounce %s", opts.Debounce)
	}
	if opts.Debounce > 0 && opts.Scheduler == nil {
		return nil, newInvalidKindError(name, "debounce requires a scheduler")
	}
	if opts.Accessor != nil && len(opts.Fields) > 0 {
		return nil, newInvalidKindError(name, "accessor kinds observe all fields; fields must be empty")
	}
	opts.Fields = slices.Clone(opts.Fields)
	opts.Defaults = snapshot.CloneObject(opts.Defaults)

	fieldSet := make(snapshot.Set, len(opts.Fields))
	for i, f := range opts.Fields {
		fieldSet[i] = snapshot.String(f)
	}
	config := append([]typekey.Entry{
		typekey.E("fields", fieldSet),
		typekey.E("model", snapshot.String(opts.Model.String())),
		typekey.E("debounce_ms", snapshot.Int(opts.Debounce.Milliseconds())),
		typekey.E("composite", snapshot.Bool(opts.Composite)),
		typekey.E("accessor", snapshot.Bool(opts.Accessor != nil)),
	}, opts.Config...)

	key, err := typekey.Generate(name, config...)
	if err != nil {
		return nil, newInvalidKindError(name, "%v", err)
	}
	return &Kind{name: name, key: key, opts: opts}, nil
}

// MustKind is like NewKind but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustKind(name string, opts KindOptions) *Kind {
	k, err := NewKind(name, opts)
	if err != nil {
		panic(err)
	}
	return k
}

// Name returns the base shape name.
func (k *Kind) Name() string {
	return k.name
}

// Key returns the kind's TypeKey.
func (k *Kind) Key() string {
	return k.key
}

// Model returns the journal model of instances.
func (k *Kind) Model() journal.Model {
	return k.opts.Model
}

// Fields returns the observed field names.
func (k *Kind) Fields() []string {
	return slices.Clone(k.opts.Fields)
}

// Defaults returns a copy of the default field values.
func (k *Kind) Defaults() snapshot.Object {
	return snapshot.CloneObject(k.opts.Defaults)
}

// Composite reports whether instances own children.
func (k *Kind) Composite() bool {
	return k.opts.Composite
}

// Debounce returns the kind's recording delay.
func (k *Kind) Debounce() time.Duration {
	return k.opts.Debounce
}

// AllowChildren adds kinds to the type table of every instance, so children
// of those kinds can be rebuilt. A kind may allow itself.
func (k *Kind) AllowChildren(kinds ...*Kind) {
	for _, c := range kinds {
		if !slices.Contains(k.children, c) {
			k.children = append(k.children, c)
		}
	}
}

// ChildKinds returns the kinds added with AllowChildren.
func (k *Kind) ChildKinds() []*Kind {
	return slices.Clone(k.children)
}

// New creates an instance with the kind's default target.
func (k *Kind) New(opts ...Option) (*Rewindable, error) {
	if k.opts.Accessor != nil {
		return newRewindable(k, nil, k.opts.Accessor(), opts)
	}
	return k.Wrap(k.newTarget(), opts...)
}

// Wrap creates an instance over an existing target.
func (k *Kind) Wrap(target projector.Target, opts ...Option) (*Rewindable, error) {
	if k.opts.Accessor != nil {
		return nil, newInvalidKindError(k.name, "accessor kinds cannot wrap a target")
	}
	return newRewindable(k, target, projector.Accessor{}, opts)
}

// Reconstruct builds an instance seeded with history and traveled to index.
// It implements registry.Factory.
func (k *Kind) Reconstruct(history []snapshot.Snapshot, index int) (registry.Entity, error) {
	r, err := k.New(WithHistory(history, index))
	if err != nil {
		return nil, fmt.Errorf("reconstruct %s: %w", k.key, err)
	}
	return r, nil
}

func (k *Kind) newTarget() projector.Target {
	if k.opts.Target != nil {
		return k.opts.Target()
	}
	return observe.NewObject(k.opts.Defaults)
}

var _ registry.Factory = (*Kind)(nil)
