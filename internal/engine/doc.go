// Package engine implements the Rewindable facade: a controller that owns one
// journal, one projector and one child registry for a single entity, and
// exposes record, coalesce, travel, undo, redo, drop, suspend and resume plus
// child add, remove and move.
//
// ARCHITECTURE:
//
// Recording flow:
//  1. A target commits a field write and notifies (projector.Notifier).
//  2. Rewindable.Changed ignores it while suspended or for unobserved fields.
//  3. Otherwise the projector reads a full Snapshot, asking the registry for
//     each child's ChildRef, and the journal records it.
//  4. OnChange listeners run. A parent listens to each child, so a child's own
//     change produces a parent entry.
//
// Restoration flow:
//  1. The journal yields a Snapshot.
//  2. The Rewindable suspends, writes fields back, and the registry reconciles
//     children (detach, reattach, rebuild, history merge).
//  3. The Rewindable resumes. Nothing written during restoration is recorded.
//
// Concurrency:
// A Rewindable is single-threaded. Deferred recording runs through an
// observe.Scheduler; use observe.Loop to keep callbacks on one goroutine.
//
// Every operation that changes a journal emits an Event stamped by a logical
// clock. Events feed the operation trace log and replay.
package engine
