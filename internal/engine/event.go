package engine

import "github.com/roach88/rewind/internal/snapshot"

// Op names an operation that changed a journal.
type Op string

const (
	OpRecord      Op = "record"
	OpTravel      Op = "travel"
	OpUndo        Op = "undo"
	OpRedo        Op = "redo"
	OpDrop        Op = "drop"
	OpAddChild    Op = "add_child"
	OpRemoveChild Op = "remove_child"
	OpMoveChild   Op = "move_child"
	OpLoad        Op = "load"
)

// Event describes one journal-changing operation on a Rewindable.
//
// Operations that leave the journal unchanged (duplicate records, boundary
// undo, records while suspended) emit nothing.
type Event struct {
	Seq     int64
	Session string
	Op      Op

	// Arg is the travel target, dropped index or move position.
	Arg     int
	ChildID string

	// Index and Len describe the journal after the operation.
	Index int
	Len   int

	// Snapshot is the entry at Index after the operation (empty at -1).
	Snapshot snapshot.Snapshot

	// History is set for OpLoad only.
	History []snapshot.Snapshot
}

// Observer receives events in the order they happen.
type Observer interface {
	Observe(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

// Observe calls f(e).
func (f ObserverFunc) Observe(e Event) {
	f(e)
}

// Recorder is an Observer that keeps every event in memory.
type Recorder struct {
	Events []Event
}

// Observe appends e.
func (r *Recorder) Observe(e Event) {
	r.Events = append(r.Events, e)
}

// Ops returns the op of each recorded event.
func (r *Recorder) Ops() []Op {
	ops := make([]Op, len(r.Events))
	for i, e := range r.Events {
		ops[i] = e.Op
	}
	return ops
}
