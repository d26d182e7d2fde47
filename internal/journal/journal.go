package journal

import (
	"log/slog"
	"slices"

	"github.com/roach88/rewind/internal/snapshot"
)

// Journal is an ordered sequence of snapshots plus a current index.
//
// Recorded snapshots are treated as immutable; callers must not modify a
// snapshot after handing it to Record or Load.
//
// Journal is not safe for concurrent use.
type Journal struct {
	model   Model
	history []snapshot.Snapshot
	index   int
}

// New creates an empty journal. The model must be Linear or Branching.
func New(model Model) (*Journal, error) {
	if !model.Valid() {
		return nil, &InvalidModelError{Value: int(model)}
	}
	return &Journal{model: model, index: -1}, nil
}

// Model returns the journal's model.
func (j *Journal) Model() Model {
	return j.model
}

// Index returns the current position, or -1 when nothing is selected.
func (j *Journal) Index() int {
	return j.index
}

// Len returns the number of entries.
func (j *Journal) Len() int {
	return len(j.history)
}

// History returns a copy of the entry slice.
func (j *Journal) History() []snapshot.Snapshot {
	return slices.Clone(j.history)
}

// At returns the entry at i.
func (j *Journal) At(i int) (snapshot.Snapshot, bool) {
	if i < 0 || i >= len(j.history) {
		return snapshot.Snapshot{}, false
	}
	return j.history[i], true
}

// Current returns the entry at the current index.
func (j *Journal) Current() (snapshot.Snapshot, bool) {
	return j.At(j.index)
}

// Record appends s according to the journal's model. It is a no-op, returning
// false, when s is empty or equal to the current entry.
func (j *Journal) Record(s snapshot.Snapshot) bool {
	if s.IsEmpty() {
		return false
	}
	if cur, ok := j.Current(); ok && cur.Equal(s) {
		return false
	}

	switch j.model {
	case Linear:
		// Clip so a later append never writes into a slice handed out by History.
		j.history = slices.Clip(j.history[:j.index+1])
	case Branching:
		if j.index >= 0 && j.index < len(j.history)-1 {
			j.history = append(j.history, j.history[j.index])
			j.index = len(j.history) - 1
			slog.Debug("journal fork", "model", j.model.String(), "duplicated", j.index)
		}
	}

	j.history = append(j.history, s)
	j.index = len(j.history) - 1
	slog.Debug("journal record", "model", j.model.String(), "index", j.index, "len", len(j.history))
	return true
}

// Travel moves the pointer to i, which must lie in [-1, Len()-1], and returns
// the entry there. It returns false, leaving the journal unchanged, when i is
// out of range. Traveling to -1 moves the pointer before the first entry and
// returns an empty snapshot.
func (j *Journal) Travel(i int) (snapshot.Snapshot, bool) {
	if i < -1 || i >= len(j.history) {
		slog.Debug("journal travel out of range", "index", i, "len", len(j.history))
		return snapshot.Snapshot{}, false
	}
	j.index = i
	if i == -1 {
		return snapshot.Snapshot{}, true
	}
	return j.history[i], true
}

// Undo travels one entry back. It is a no-op at index 0 or below.
func (j *Journal) Undo() (snapshot.Snapshot, bool) {
	if j.index <= 0 {
		return snapshot.Snapshot{}, false
	}
	return j.Travel(j.index - 1)
}

// Redo travels one entry forward. It is a no-op at the tip.
func (j *Journal) Redo() (snapshot.Snapshot, bool) {
	if j.index >= len(j.history)-1 {
		return snapshot.Snapshot{}, false
	}
	return j.Travel(j.index + 1)
}

// Drop removes entry i under either model. Entries after i shift down by one,
// and so does the index when it was past i. Dropping the entry under the
// pointer when it is the tip moves the pointer to the new tip.
func (j *Journal) Drop(i int) error {
	if i < 0 || i >= len(j.history) {
		return &IndexOutOfRangeError{Op: "drop", Index: i, Len: len(j.history)}
	}

	j.history = slices.Delete(j.history, i, i+1)
	if j.index > i || j.index >= len(j.history) {
		j.index--
	}
	slog.Debug("journal drop", "dropped", i, "index", j.index, "len", len(j.history))
	return nil
}

// Load replaces the history wholesale and moves the pointer to index, clamped
// into [-1, len(history)-1].
func (j *Journal) Load(history []snapshot.Snapshot, index int) {
	j.history = slices.Clone(history)
	j.index = max(-1, min(index, len(j.history)-1))
	slog.Debug("journal load", "index", j.index, "len", len(j.history))
}
