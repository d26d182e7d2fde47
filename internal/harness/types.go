package harness

import (
	"github.com/roach88/rewind/internal/compiler"
	"github.com/roach88/rewind/internal/snapshot"
	"github.com/roach88/rewind/internal/store"
)

// TraceEvent is one traced operation, with the snapshot shown as a state view.
type TraceEvent struct {
	Seq     int64           `json:"seq"`
	Op      string          `json:"op"`
	Arg     int             `json:"arg,omitempty"`
	ChildID string          `json:"child,omitempty"`
	Index   int             `json:"index"`
	Len     int             `json:"len"`
	Digest  string          `json:"digest"`
	State   snapshot.Object `json:"state"`
}

// hasArg reports whether the op carries a meaningful Arg.
func (e TraceEvent) hasArg() bool {
	switch e.Op {
	case "travel", "drop", "move_child", "load":
		return true
	}
	return false
}

// Value returns the plain form used by golden traces. Digests are left out
// so golden files stay readable; the state view carries the same content.
func (e TraceEvent) Value() snapshot.Object {
	obj := snapshot.Object{
		"seq":   snapshot.Int(e.Seq),
		"op":    snapshot.String(e.Op),
		"index": snapshot.Int(e.Index),
		"len":   snapshot.Int(e.Len),
		"state": e.State,
	}
	if e.hasArg() {
		obj["arg"] = snapshot.Int(e.Arg)
	}
	if e.ChildID != "" {
		obj["child"] = snapshot.String(e.ChildID)
	}
	return obj
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every step ran as expected and every assertion held.
	Pass bool `json:"pass"`

	// Session is the token the trace was written under.
	Session string `json:"session"`

	// Trace contains every journal-changing operation of the root, in seq order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains step failures and assertion messages.
	Errors []string `json:"errors,omitempty"`

	// State is the root's final live state view.
	State snapshot.Object `json:"state,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Ops returns the op of each trace event.
func (r *Result) Ops() []string {
	ops := make([]string, len(r.Trace))
	for i, e := range r.Trace {
		ops[i] = e.Op
	}
	return ops
}

// StateView renders s for traces: fields as they are, and each child as its
// kind name, journal position and current state instead of the raw TypeKey
// and history. Unknown TypeKeys are shown as-is.
func StateView(s snapshot.Snapshot, cat *compiler.Catalog) snapshot.Object {
	out := make(snapshot.Object, len(s.Fields)+1)
	for k, v := range s.Fields {
		out[k] = snapshot.Clone(v)
	}
	if s.Children == nil {
		return out
	}

	children := make(snapshot.Object, len(s.Children))
	for _, c := range s.Children {
		kind := c.Ref.TypeKey
		if cat != nil {
			if k, ok := cat.ByKey(c.Ref.TypeKey); ok {
				kind = k.Name()
			}
		}
		entry := snapshot.Object{
			"kind":  snapshot.String(kind),
			"index": snapshot.Int(c.Ref.Index),
			"len":   snapshot.Int(len(c.Ref.History)),
		}
		if c.Ref.HasPosition() {
			entry["position"] = snapshot.Int(c.Ref.Position)
		}
		if cur, ok := c.Ref.Current(); ok {
			entry["state"] = StateView(cur, cat)
		}
		children[c.ID] = entry
	}
	out[snapshot.ChildrenField] = children
	return out
}

// traceFromOperations converts stored operations into trace events.
func traceFromOperations(ops []store.Operation, cat *compiler.Catalog) []TraceEvent {
	trace := make([]TraceEvent, len(ops))
	for i, op := range ops {
		trace[i] = TraceEvent{
			Seq:     op.Seq,
			Op:      op.Op,
			Arg:     op.Arg,
			ChildID: op.ChildID,
			Index:   op.Index,
			Len:     op.Len,
			Digest:  op.Digest,
			State:   StateView(op.Snapshot, cat),
		}
	}
	return trace
}
