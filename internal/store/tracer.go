package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/rewind/internal/engine"
)

// Tracer is an engine.Observer that appends every event to one session.
//
// Observe cannot return an error, so the first write failure is kept and
// later events are dropped; check Err after the run.
type Tracer struct {
	ctx     context.Context
	store   *Store
	session Session
	count   int
	err     error
}

// NewTracer writes the session record and returns a tracer for it.
func NewTracer(ctx context.Context, st *Store, sess Session) (*Tracer, error) {
	if err := st.WriteSession(ctx, sess); err != nil {
		return nil, err
	}
	return &Tracer{ctx: ctx, store: st, session: sess}, nil
}

// Observe writes e as an operation of the tracer's session.
func (t *Tracer) Observe(e engine.Event) {
	if t.err != nil {
		return
	}
	if e.Session != "" && e.Session != t.session.Token {
		slog.Warn("event from another session", "session", t.session.Token, "event_session", e.Session)
	}

	_, err := t.store.WriteOperation(t.ctx, OperationFromEvent(t.session.Token, e))
	if err != nil {
		t.err = fmt.Errorf("trace seq %d: %w", e.Seq, err)
		slog.Error("trace write failed", "session", t.session.Token, "seq", e.Seq, "error", err)
		return
	}
	t.count++
}

// Session returns the traced session.
func (t *Tracer) Session() Session {
	return t.session
}

// Count returns the number of operations written.
func (t *Tracer) Count() int {
	return t.count
}

// Err returns the first write failure, if any.
func (t *Tracer) Err() error {
	return t.err
}

// OperationFromEvent converts an engine event into an operation record of
// session. ID and Digest are left for WriteOperation to fill in.
func OperationFromEvent(session string, e engine.Event) Operation {
	return Operation{
		Session:  session,
		Seq:      e.Seq,
		Op:       string(e.Op),
		Arg:      e.Arg,
		ChildID:  e.ChildID,
		Index:    e.Index,
		Len:      e.Len,
		Snapshot: e.Snapshot,
		History:  e.History,
	}
}

var _ engine.Observer = (*Tracer)(nil)
