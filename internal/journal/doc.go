// Package journal stores the ordered history of Snapshots for one entity and
// the pointer to its current position.
//
// Two models govern what happens when a new snapshot is recorded while the
// pointer is not at the tip:
//
//   - Linear: entries after the pointer are discarded, then the snapshot is
//     appended.
//   - Branching: the entry under the pointer is duplicated onto the tip first,
//     so the abandoned entries stay in the array, then the snapshot is appended.
//
// Branching only approximates a tree: once a fork happens the abandoned entries
// are unreachable by redo and can only be reached with an explicit Travel. A
// parent-pointer tree would make the branches addressable.
//
// Invariant: after any operation, -1 <= Index() <= Len()-1.
package journal
