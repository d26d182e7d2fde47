// Package harness runs YAML scenarios against compiled kinds.
//
// A scenario builds a root entity from a CUE kind, drives it through a list
// of steps, and checks assertions on the result. Every journal-changing
// operation is traced through the store, and the trace can be compared to a
// golden file.
//
// # Scenario Format
//
//	name: add_remove_undo
//	description: "A removed child comes back with its own history"
//	kinds: ../kinds            # CUE directory, relative to the scenario file
//	root: Board
//	session: session-add-remove
//	steps:
//	  - op: add_child
//	    id: "1"
//	    kind: Counter
//	  - op: set
//	    on: ["1"]               # child path from the root
//	    field: value
//	    value: 7
//	  - op: remove_child
//	    id: "1"
//	  - op: undo
//	assertions:
//	  - type: state
//	    on: ["1"]
//	    expect: { value: 7 }
//	  - type: history
//	    on: ["1"]
//	    expect: [{ value: 0 }, { value: 7 }]
//
// # Steps
//
//   - set: write field = value on the target's object
//   - record, flush, suspend, resume: call the facade directly
//   - coalesce: run nested steps as one recorded change
//   - undo, redo, travel (index), drop (index): navigate; moved checks the result
//   - advance (ms): advance the scheduler that drives debounced kinds
//   - add_child (id, kind), remove_child (id), move_child (id, position)
//
// A step with expect_error must fail with an error containing that text.
//
// # Assertion Types
//
//   - state: subset match on the target's live fields
//   - history: per-entry subset match on the target's journal
//   - history_len, index: journal length and position
//   - children: live child ids in order
//   - child_type: kind name of child id
//
// # Deterministic Testing
//
// The harness uses a fixed session token (scenario.session or a default),
// a deterministic logical clock (testutil.DeterministicClock), a manual
// scheduler, and an in-memory SQLite trace store, so the same scenario
// always produces the same trace.
//
// WithRealtime swaps the manual scheduler for wall-clock timers queued on an
// observe.Loop; advance steps then sleep and drain the loop. Traces stay the
// same as long as each advance outlasts the debounce it is waiting for.
package harness
