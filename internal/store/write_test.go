package store

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rewind/internal/snapshot"
)

func TestWriteSession_Idempotent(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	sess := createTestSession(t, s, "s1")
	changed := sess
	changed.Kind = "Other"
	require.NoError(t, s.WriteSession(ctx, changed))

	got, err := s.ReadSession(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, sess, got)
}

func TestReadSession_NotFound(t *testing.T) {
	s := createTestStore(t)
	_, err := s.ReadSession(context.Background(), "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestListSessions_Ordered(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	for _, sess := range []Session{
		{Token: "b", Kind: "K", TypeKey: "K:1", Model: "linear", CreatedSeq: 5},
		{Token: "c", Kind: "K", TypeKey: "K:1", Model: "linear", CreatedSeq: 1},
		{Token: "a", Kind: "K", TypeKey: "K:1", Model: "linear", CreatedSeq: 5},
	} {
		require.NoError(t, s.WriteSession(ctx, sess))
	}

	sessions, err := s.ListSessions(ctx)
	require.NoError(t, err)
	tokens := make([]string, len(sessions))
	for i, sess := range sessions {
		tokens[i] = sess.Token
	}
	assert.Equal(t, []string{"c", "a", "b"}, tokens)
}

func TestListSessions_EmptyNotNil(t *testing.T) {
	s := createTestStore(t)
	sessions, err := s.ListSessions(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, sessions)
	assert.Empty(t, sessions)
}

func TestWriteOperation_RoundTrip(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	createTestSession(t, s, "s1")

	snap := snapshot.Snapshot{
		Fields: snapshot.Object{"title": snapshot.String("groceries")},
		Children: snapshot.Children{{ID: "a", Ref: snapshot.ChildRef{
			TypeKey:  "Todo:0011223344556677",
			History:  []snapshot.Snapshot{counterSnapshot(1)},
			Index:    0,
			Position: snapshot.NoPosition,
		}}},
	}
	id, err := s.WriteOperation(ctx, Operation{
		Session: "s1", Seq: 3, Op: "add_child", ChildID: "a", Index: 1, Len: 2, Snapshot: snap,
	})
	require.NoError(t, err)

	got, err := s.ReadOperation(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, got.ID)
	assert.Equal(t, "add_child", got.Op)
	assert.Equal(t, "a", got.ChildID)
	assert.Equal(t, 1, got.Index)
	assert.Equal(t, 2, got.Len)
	assert.True(t, snap.Equal(got.Snapshot), "snapshot survives the payload round trip")
	assert.Nil(t, got.History)
	assert.Equal(t, snapshot.MustDigest(snapshot.DomainSnapshot, snap.Value()), got.Digest)
}

func TestWriteOperation_LoadKeepsHistory(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	createTestSession(t, s, "s1")

	history := []snapshot.Snapshot{counterSnapshot(1), counterSnapshot(2)}
	id, err := s.WriteOperation(ctx, Operation{
		Session: "s1", Seq: 1, Op: "load", Index: 0, Len: 2, Snapshot: history[0], History: history,
	})
	require.NoError(t, err)

	got, err := s.ReadOperation(ctx, id)
	require.NoError(t, err)
	assert.True(t, snapshot.HistoryEqual(history, got.History))
}

func TestWriteOperation_Idempotent(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	createTestSession(t, s, "s1")

	op := Operation{Session: "s1", Seq: 1, Op: "record", Index: 0, Len: 1, Snapshot: counterSnapshot(0)}
	id1, err := s.WriteOperation(ctx, op)
	require.NoError(t, err)
	id2, err := s.WriteOperation(ctx, op)
	require.NoError(t, err)
	assert.Equal(t, id1, id2)

	ops, err := s.ReadOperations(ctx, "s1")
	require.NoError(t, err)
	assert.Len(t, ops, 1)
}

func TestWriteOperation_SeqUniquePerSession(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	createTestSession(t, s, "s1")

	_, err := s.WriteOperation(ctx, Operation{Session: "s1", Seq: 1, Op: "record", Len: 1, Snapshot: counterSnapshot(0)})
	require.NoError(t, err)
	_, err = s.WriteOperation(ctx, Operation{Session: "s1", Seq: 1, Op: "record", Len: 1, Snapshot: counterSnapshot(9)})
	assert.Error(t, err)
}

func TestWriteOperation_RequiresSession(t *testing.T) {
	s := createTestStore(t)
	_, err := s.WriteOperation(context.Background(), Operation{Session: "nope", Seq: 1, Op: "record", Snapshot: counterSnapshot(0)})
	assert.Error(t, err, "foreign key on operations.session")
}

func TestReadOperations_OrderedBySeq(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	createTestSession(t, s, "s1")
	createTestSession(t, s, "s2")

	for _, seq := range []int64{3, 1, 2} {
		_, err := s.WriteOperation(ctx, Operation{Session: "s1", Seq: seq, Op: "record", Len: int(seq), Snapshot: counterSnapshot(seq)})
		require.NoError(t, err)
	}
	_, err := s.WriteOperation(ctx, Operation{Session: "s2", Seq: 1, Op: "record", Len: 1, Snapshot: counterSnapshot(7)})
	require.NoError(t, err)

	ops, err := s.ReadOperations(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, ops, 3)
	for i, op := range ops {
		assert.Equal(t, int64(i+1), op.Seq)
	}

	last, err := s.LastSeq(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, int64(3), last)

	none, err := s.LastSeq(ctx, "s3")
	require.NoError(t, err)
	assert.Zero(t, none)

	empty, err := s.ReadOperations(ctx, "s3")
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestReadOperation_NotFound(t *testing.T) {
	s := createTestStore(t)
	_, err := s.ReadOperation(context.Background(), "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}
