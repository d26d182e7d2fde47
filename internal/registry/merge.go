package registry

import (
	"slices"

	"github.com/roach88/rewind/internal/snapshot"
)

// CommonPrefix returns the length of the longest common prefix of a and b.
func CommonPrefix(a, b []snapshot.Snapshot) int {
	n := min(len(a), len(b))
	for i := range n {
		if !a[i].Equal(b[i]) {
			return i
		}
	}
	return n
}

// MergeHistory merges a child's current history with the serialized one being
// restored: the common prefix followed by the serialized tail.
func MergeHistory(current, incoming []snapshot.Snapshot) []snapshot.Snapshot {
	n := CommonPrefix(current, incoming)
	merged := make([]snapshot.Snapshot, 0, len(incoming))
	merged = append(merged, current[:n]...)
	return append(merged, incoming[n:]...)
}

func historyMatches(e Entity, ref snapshot.ChildRef) bool {
	return e.Index() == ref.Index && slices.EqualFunc(e.History(), ref.History, snapshot.Snapshot.Equal)
}
