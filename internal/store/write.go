package store

import (
	"context"
	"fmt"

	"github.com/roach88/rewind/internal/snapshot"
)

// WriteSession inserts a session record into the store.
// Uses ON CONFLICT(token) DO NOTHING for idempotency - rewriting a session is a no-op.
func (s *Store) WriteSession(ctx context.Context, sess Session) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions
		(token, kind, type_key, model, scenario, created_seq)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(token) DO NOTHING
	`,
		sess.Token,
		sess.Kind,
		sess.TypeKey,
		sess.Model,
		sess.Scenario,
		sess.CreatedSeq,
	)
	if err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	return nil
}

// WriteOperation inserts an operation record into the store and returns its id.
//
// Digest and ID are computed when empty. Uses ON CONFLICT(id) DO NOTHING, so
// writing the same operation twice is silently ignored. A different operation
// reusing a (session, seq) pair still fails on the unique index.
//
// Note: The session referenced by op.Session must exist (foreign key constraint).
func (s *Store) WriteOperation(ctx context.Context, op Operation) (string, error) {
	if op.Digest == "" {
		d, err := snapshot.SnapshotDigest(op.Snapshot)
		if err != nil {
			return "", fmt.Errorf("write operation: %w", err)
		}
		op.Digest = d
	}
	if op.ID == "" {
		id, err := OperationID(op)
		if err != nil {
			return "", fmt.Errorf("write operation: %w", err)
		}
		op.ID = id
	}

	payload, err := marshalPayload(op.Snapshot, op.History)
	if err != nil {
		return "", fmt.Errorf("write operation: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO operations
		(id, session, seq, op, arg, child_id, journal_index, journal_len, digest, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		op.ID,
		op.Session,
		op.Seq,
		op.Op,
		op.Arg,
		op.ChildID,
		op.Index,
		op.Len,
		op.Digest,
		payload,
	)
	if err != nil {
		return "", fmt.Errorf("write operation: %w", err)
	}
	return op.ID, nil
}
