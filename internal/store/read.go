package store

import (
	"context"
	"database/sql"
	"fmt"
)

// ReadSession retrieves a single session by token.
// Returns sql.ErrNoRows if not found.
func (s *Store) ReadSession(ctx context.Context, token string) (Session, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT token, kind, type_key, model, scenario, created_seq
		FROM sessions
		WHERE token = ?
	`, token)

	var sess Session
	if err := row.Scan(&sess.Token, &sess.Kind, &sess.TypeKey, &sess.Model, &sess.Scenario, &sess.CreatedSeq); err != nil {
		return Session{}, err
	}
	return sess, nil
}

// ListSessions returns every session ordered by created_seq ASC, token ASC.
//
// Returns an empty slice (not nil) when the store holds no sessions.
func (s *Store) ListSessions(ctx context.Context) ([]Session, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT token, kind, type_key, model, scenario, created_seq
		FROM sessions
		ORDER BY created_seq ASC, token COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	sessions := []Session{}
	for rows.Next() {
		var sess Session
		if err := rows.Scan(&sess.Token, &sess.Kind, &sess.TypeKey, &sess.Model, &sess.Scenario, &sess.CreatedSeq); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return sessions, nil
}

// ReadOperations returns all operations of a session.
// Results are ordered deterministically: ORDER BY seq ASC, id ASC COLLATE BINARY.
//
// Returns an empty slice (not nil) if the session has no operations.
func (s *Store) ReadOperations(ctx context.Context, session string) ([]Operation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, session, seq, op, arg, child_id, journal_index, journal_len, digest, payload
		FROM operations
		WHERE session = ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, session)
	if err != nil {
		return nil, fmt.Errorf("query operations: %w", err)
	}
	defer rows.Close()

	ops := []Operation{}
	for rows.Next() {
		op, err := scanOperation(rows)
		if err != nil {
			return nil, err
		}
		ops = append(ops, op)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate operations: %w", err)
	}
	return ops, nil
}

// ReadOperation retrieves a single operation by id.
// Returns sql.ErrNoRows if not found.
func (s *Store) ReadOperation(ctx context.Context, id string) (Operation, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, session, seq, op, arg, child_id, journal_index, journal_len, digest, payload
		FROM operations
		WHERE id = ?
	`, id)
	return scanOperation(row)
}

// LastSeq returns the highest seq recorded for a session, or 0 when it has
// no operations.
func (s *Store) LastSeq(ctx context.Context, session string) (int64, error) {
	var seq sql.NullInt64
	err := s.db.QueryRowContext(ctx, `
		SELECT MAX(seq) FROM operations WHERE session = ?
	`, session).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("last seq: %w", err)
	}
	return seq.Int64, nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanOperation(row rowScanner) (Operation, error) {
	var (
		op      Operation
		payload []byte
	)
	err := row.Scan(
		&op.ID,
		&op.Session,
		&op.Seq,
		&op.Op,
		&op.Arg,
		&op.ChildID,
		&op.Index,
		&op.Len,
		&op.Digest,
		&payload,
	)
	if err != nil {
		return Operation{}, err
	}

	op.Snapshot, op.History, err = unmarshalPayload(payload)
	if err != nil {
		return Operation{}, fmt.Errorf("operation %s: %w", op.ID, err)
	}
	return op, nil
}
