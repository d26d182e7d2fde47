package registry

import (
	"fmt"
	"log/slog"
	"maps"
	"slices"

	"github.com/roach88/rewind/internal/snapshot"
)

// Entity is a nested versioned entity as the registry sees it.
type Entity interface {
	TypeKey() string
	Factory() Factory
	History() []snapshot.Snapshot
	Index() int
	Suspend()
	Resume()
	// Restore replaces the entity's history and travels to index.
	Restore(history []snapshot.Snapshot, index int) error
	// Apply overwrites the live state without touching the history. Pending
	// deferred records are dropped.
	Apply(s snapshot.Snapshot) error
}

// Factory rebuilds entities of one TypeKey from serialized history.
type Factory interface {
	Key() string
	Reconstruct(history []snapshot.Snapshot, index int) (Entity, error)
}

// Hooks are the owner's callbacks for reconciliation. The registry has
// already updated its own bookkeeping when they run.
type Hooks struct {
	// Added runs after an entity is reattached or rebuilt.
	Added func(id string, e Entity)
	// Removed runs after an entity is detached.
	Removed func(id string)
}

// Registry owns the live children of one parent.
//
// Registry is not safe for concurrent use.
type Registry struct {
	entities  map[string]Entity
	order     []string       // registration order, for default positions
	positions map[string]int // explicitly assigned positions
	types     map[string]Factory
	detached  map[string]Entity // removed entities kept for reattachment
	hooks     Hooks
}

// New creates an empty registry.
func New(hooks Hooks) *Registry {
	return &Registry{
		entities:  make(map[string]Entity),
		positions: make(map[string]int),
		types:     make(map[string]Factory),
		detached:  make(map[string]Entity),
		hooks:     hooks,
	}
}

// SetHooks replaces the reconciliation callbacks.
func (r *Registry) SetHooks(hooks Hooks) {
	r.hooks = hooks
}

// RegisterType adds f to the type table. The table is append-only: a key
// that is already present keeps its first factory.
func (r *Registry) RegisterType(f Factory) {
	if _, ok := r.types[f.Key()]; ok {
		return
	}
	r.types[f.Key()] = f
	slog.Debug("registry type registered", "type_key", f.Key())
}

// Types returns the registered TypeKeys, sorted.
func (r *Registry) Types() []string {
	return slices.Sorted(maps.Keys(r.types))
}

// Add stores e under id and registers its type. Adding an id that is already
// present replaces the entity silently and keeps the id's rank and position.
func (r *Registry) Add(id string, e Entity) {
	if f := e.Factory(); f != nil {
		r.RegisterType(f)
	}
	if _, ok := r.entities[id]; ok {
		slog.Debug("registry replace", "child", id)
	} else {
		r.order = append(r.order, id)
	}
	r.entities[id] = e
	delete(r.detached, id)
	slog.Debug("registry add", "child", id, "type_key", e.TypeKey())
}

// Remove drops the live reference for id. It reports whether id was present.
// The entity is remembered so a later reconciliation can reattach it.
func (r *Registry) Remove(id string) bool {
	e, ok := r.entities[id]
	if !ok {
		return false
	}
	r.detach(id, e)
	slog.Debug("registry remove", "child", id)
	return true
}

func (r *Registry) detach(id string, e Entity) {
	delete(r.entities, id)
	delete(r.positions, id)
	r.order = slices.DeleteFunc(r.order, func(o string) bool { return o == id })
	r.detached[id] = e
}

// Get returns the live entity for id.
func (r *Registry) Get(id string) (Entity, bool) {
	e, ok := r.entities[id]
	return e, ok
}

// Len returns the number of live children.
func (r *Registry) Len() int {
	return len(r.entities)
}

// Move assigns an explicit position to id.
func (r *Registry) Move(id string, position int) error {
	if _, ok := r.entities[id]; !ok {
		return &ChildNotFoundError{ID: id}
	}
	if position < 0 {
		return fmt.Errorf("move %q: position %d is negative", id, position)
	}
	r.positions[id] = position
	slog.Debug("registry move", "child", id, "position", position)
	return nil
}

// Position returns the explicit position of id, or its rank in registration
// order when none was assigned.
func (r *Registry) Position(id string) (int, bool) {
	if _, ok := r.entities[id]; !ok {
		return 0, false
	}
	if p, ok := r.positions[id]; ok {
		return p, true
	}
	return slices.Index(r.order, id), true
}

// IDs returns the live ids ordered by position, then id.
func (r *Registry) IDs() []string {
	return r.State().IDs()
}

// State returns the serialized form of every live child, ordered by position.
// It is never nil.
func (r *Registry) State() snapshot.Children {
	children := make(snapshot.Children, 0, len(r.order))
	for _, id := range r.order {
		e := r.entities[id]
		pos, _ := r.Position(id)
		children = append(children, snapshot.ChildEntry{
			ID: id,
			Ref: snapshot.ChildRef{
				TypeKey:  e.TypeKey(),
				History:  e.History(),
				Index:    e.Index(),
				Position: pos,
			},
		})
	}
	children.Sort()
	return children
}

// SetState reconciles the live children with incoming.
//
// Ids missing from incoming are detached and reported through Hooks.Removed.
// Every incoming id is then brought to its serialized history and index: a live
// entity is restored in place, a detached one with the same TypeKey is
// reattached, and anything else is rebuilt from the type table and reported
// through Hooks.Added.
func (r *Registry) SetState(incoming snapshot.Children) error {
	for _, id := range slices.Clone(r.order) {
		if _, ok := incoming.Get(id); ok {
			continue
		}
		r.detach(id, r.entities[id])
		slog.Info("registry reconcile removed child", "child", id)
		if r.hooks.Removed != nil {
			r.hooks.Removed(id)
		}
	}

	for _, entry := range incoming {
		if err := r.reconcile(entry.ID, entry.Ref); err != nil {
			return err
		}
	}
	return nil
}

func (r *Registry) reconcile(id string, ref snapshot.ChildRef) error {
	if e, ok := r.entities[id]; ok {
		if ref.HasPosition() {
			r.positions[id] = ref.Position
		}
		return r.sync(id, e, ref)
	}

	e, err := r.restore(id, ref)
	if err != nil {
		return err
	}
	r.entities[id] = e
	r.order = append(r.order, id)
	if ref.HasPosition() {
		r.positions[id] = ref.Position
	}
	if r.hooks.Added != nil {
		r.hooks.Added(id, e)
	}
	return r.sync(id, e, ref)
}

// restore reattaches a detached entity of the same type, or rebuilds one.
func (r *Registry) restore(id string, ref snapshot.ChildRef) (Entity, error) {
	if e, ok := r.detached[id]; ok && e.TypeKey() == ref.TypeKey {
		delete(r.detached, id)
		slog.Debug("registry reattach", "child", id, "type_key", ref.TypeKey)
		return e, nil
	}

	f, ok := r.types[ref.TypeKey]
	if !ok {
		return nil, &UnknownChildTypeError{ID: id, TypeKey: ref.TypeKey}
	}
	e, err := f.Reconstruct(snapshot.CloneHistory(ref.History), ref.Index)
	if err != nil {
		return nil, fmt.Errorf("reconstruct child %q: %w", id, err)
	}
	delete(r.detached, id)
	slog.Debug("registry reconstruct", "child", id, "type_key", ref.TypeKey, "index", ref.Index)
	return e, nil
}

// sync brings e to ref's history and index. When those already match, only
// the live state is overwritten with ref's current entry, which discards
// writes e made while suspended or still waiting to record.
func (r *Registry) sync(id string, e Entity, ref snapshot.ChildRef) error {
	e.Suspend()
	defer e.Resume()

	if historyMatches(e, ref) {
		cur, ok := ref.Current()
		if !ok {
			return nil
		}
		if err := e.Apply(cur); err != nil {
			return fmt.Errorf("apply child %q: %w", id, err)
		}
		return nil
	}
	merged := MergeHistory(e.History(), ref.History)

	if err := e.Restore(merged, ref.Index); err != nil {
		return fmt.Errorf("restore child %q: %w", id, err)
	}
	slog.Debug("registry sync", "child", id, "index", ref.Index, "len", len(merged))
	return nil
}
