package harness

import (
	"context"
	"fmt"

	"github.com/roach88/rewind/internal/compiler"
	"github.com/roach88/rewind/internal/engine"
	"github.com/roach88/rewind/internal/snapshot"
	"github.com/roach88/rewind/internal/store"
)

// Divergence describes the first traced operation a replay could not reproduce.
type Divergence struct {
	Seq    int64  `json:"seq"`
	Op     string `json:"op"`
	Reason string `json:"reason"`
}

// ReplayReport is the outcome of replaying one session.
type ReplayReport struct {
	Session    string      `json:"session"`
	Kind       string      `json:"kind"`
	Operations int         `json:"operations"`
	Replayed   int         `json:"replayed"`
	Diverged   *Divergence `json:"diverged,omitempty"`
}

// Deterministic reports whether every operation was reproduced.
func (r *ReplayReport) Deterministic() bool {
	return r.Diverged == nil
}

// Replay rebuilds the root entity of session from cat and re-executes its
// traced operations in seq order. After each one the journal index, length
// and current snapshot digest must match the trace. Replay stops at the first
// divergence.
//
// Appending operations are reproduced by applying the traced snapshot and
// recording it, so children are rebuilt through the kind's type table.
// Navigation operations are re-executed with their traced arguments.
func Replay(ctx context.Context, st *store.Store, cat *compiler.Catalog, session string) (*ReplayReport, error) {
	sess, err := st.ReadSession(ctx, session)
	if err != nil {
		return nil, fmt.Errorf("read session %s: %w", session, err)
	}
	kind, ok := cat.ByKey(sess.TypeKey)
	if !ok {
		return nil, fmt.Errorf("session %s: kind %s with type key %s is not declared", session, sess.Kind, sess.TypeKey)
	}
	ops, err := st.ReadOperations(ctx, session)
	if err != nil {
		return nil, fmt.Errorf("read operations %s: %w", session, err)
	}

	root, err := kind.New()
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", kind.Name(), err)
	}
	defer root.Close()

	report := &ReplayReport{Session: session, Kind: kind.Name(), Operations: len(ops)}
	for _, op := range ops {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		reason := replayOperation(root, op)
		if reason == "" {
			reason = compareOperation(root, op)
		}
		if reason != "" {
			report.Diverged = &Divergence{Seq: op.Seq, Op: op.Op, Reason: reason}
			break
		}
		report.Replayed++
	}
	return report, nil
}

// replayOperation re-executes op on root and returns a failure reason.
func replayOperation(root *engine.Rewindable, op store.Operation) string {
	var err error
	switch engine.Op(op.Op) {
	case engine.OpRecord, engine.OpAddChild, engine.OpRemoveChild, engine.OpMoveChild:
		if err = root.Apply(op.Snapshot); err == nil {
			root.Record()
		}
	case engine.OpTravel:
		_, err = root.Travel(op.Arg)
	case engine.OpUndo:
		_, err = root.Undo()
	case engine.OpRedo:
		_, err = root.Redo()
	case engine.OpDrop:
		err = root.Drop(op.Arg)
	case engine.OpLoad:
		err = root.Restore(op.History, op.Arg)
	default:
		return fmt.Sprintf("unknown op %q", op.Op)
	}
	if err != nil {
		return err.Error()
	}
	return ""
}

// compareOperation checks root's journal against the traced result of op.
func compareOperation(root *engine.Rewindable, op store.Operation) string {
	if root.Index() != op.Index {
		return fmt.Sprintf("index %d, trace has %d", root.Index(), op.Index)
	}
	if root.Len() != op.Len {
		return fmt.Sprintf("len %d, trace has %d", root.Len(), op.Len)
	}
	cur, _ := root.Current()
	digest, err := snapshot.SnapshotDigest(cur)
	if err != nil {
		return err.Error()
	}
	if digest != op.Digest {
		return fmt.Sprintf("digest %s, trace has %s", digest, op.Digest)
	}
	return ""
}
