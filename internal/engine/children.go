package engine

import (
	"context"
	"log/slog"

	"github.com/roach88/rewind/internal/observe"
	"github.com/roach88/rewind/internal/registry"
)

// AddChild registers child under id and records. Adding an id that is
// already present replaces the previous child silently, keeping its position.
func (r *Rewindable) AddChild(id string, child *Rewindable) error {
	r.flushTree()
	if err := r.attachChild(id, child); err != nil {
		return err
	}
	r.record(OpAddChild, id, 0)
	return nil
}

func (r *Rewindable) attachChild(id string, child *Rewindable) error {
	if !r.kind.opts.Composite {
		return newNotCompositeError(r.kind.name, id)
	}
	if child == nil {
		return &RuntimeError{Code: ErrCodeInvalidChild, Message: "child is nil", Kind: r.kind.name, ChildID: id}
	}
	if child == r || child.contains(r) {
		return newChildCycleError(r.kind.name, id)
	}
	if prev, ok := r.Child(id); ok && prev != child {
		r.unsubscribe(id)
	}
	r.registry.Add(id, child)
	r.subscribe(id, child)
	return nil
}

// RemoveChild unregisters id and records. The child itself is untouched and
// the parent's journal keeps what it recorded about it. It reports whether
// id was present.
func (r *Rewindable) RemoveChild(id string) (bool, error) {
	if !r.kind.opts.Composite {
		return false, newNotCompositeError(r.kind.name, id)
	}
	r.flushTree()
	if !r.registry.Remove(id) {
		return false, nil
	}
	r.unsubscribe(id)
	r.record(OpRemoveChild, id, 0)
	return true, nil
}

// MoveChild assigns an explicit position to id and records.
func (r *Rewindable) MoveChild(id string, position int) error {
	if !r.kind.opts.Composite {
		return newNotCompositeError(r.kind.name, id)
	}
	r.flushTree()
	if err := r.registry.Move(id, position); err != nil {
		return err
	}
	r.record(OpMoveChild, id, position)
	return nil
}

// Child returns the live child registered under id.
func (r *Rewindable) Child(id string) (*Rewindable, bool) {
	e, ok := r.registry.Get(id)
	if !ok {
		return nil, false
	}
	child, ok := e.(*Rewindable)
	return child, ok
}

// ChildIDs returns the live child ids ordered by position.
func (r *Rewindable) ChildIDs() []string {
	return r.registry.IDs()
}

// Types returns the TypeKeys this entity can rebuild children from.
func (r *Rewindable) Types() []string {
	return r.registry.Types()
}

// subscribe makes a child's own journal changes produce a parent entry.
func (r *Rewindable) subscribe(id string, child *Rewindable) {
	if _, ok := r.childSubs[id]; ok {
		return
	}
	r.childSubs[id] = child.OnChange(func() { r.Record() })
}

func (r *Rewindable) unsubscribe(id string) {
	if cancel, ok := r.childSubs[id]; ok {
		cancel()
		delete(r.childSubs, id)
	}
}

func (r *Rewindable) childAdded(id string, e registry.Entity) {
	child, ok := e.(*Rewindable)
	if !ok {
		slog.Warn("registry returned a foreign entity", "kind", r.kind.name, "child", id)
		return
	}
	r.subscribe(id, child)
	slog.Debug("child restored", "kind", r.kind.name, "child", id, "type_key", child.TypeKey())
	if r.added != nil {
		r.added(id, child)
	}
}

func (r *Rewindable) childRemoved(id string) {
	r.unsubscribe(id)
	if r.removed != nil {
		r.removed(id)
	}
}

// contains reports whether target is r or one of its descendants.
func (r *Rewindable) contains(target *Rewindable) bool {
	if r == target {
		return true
	}
	for _, id := range r.registry.IDs() {
		if child, ok := r.Child(id); ok && child.contains(target) {
			return true
		}
	}
	return false
}

// AwaitChildren waits until every child of r, recursively, has signalled
// readiness. It replaces polling for children that are still initialising.
func AwaitChildren(ctx context.Context, r *Rewindable) error {
	var pending []*observe.Ready
	var walk func(*Rewindable)
	walk = func(n *Rewindable) {
		for _, id := range n.ChildIDs() {
			if child, ok := n.Child(id); ok {
				pending = append(pending, child.Ready())
				walk(child)
			}
		}
	}
	walk(r)
	return observe.WaitAll(ctx, pending...)
}
