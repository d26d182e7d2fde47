package cli

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rewind/internal/snapshot"
	"github.com/roach88/rewind/internal/store"
)

func TestReplayCommand_Deterministic(t *testing.T) {
	dbPath := tracedDB(t)
	runInto(t, dbPath, boardScenario, "--session", "session-board")

	out, err := execute(t, NewReplayCommand(textOpts()), testKindsDir, "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Replay Summary: 2 session(s)")
	assert.Contains(t, out, "✓ Session: session-linear (Counter)")
	assert.Contains(t, out, "Operations: 9 replayed of 9")
	assert.Contains(t, out, "✓ Session: session-board (Board)")
	assert.Contains(t, out, "✓ All sessions verified deterministic")
}

func TestReplayCommand_SingleSessionJSON(t *testing.T) {
	out, err := execute(t, NewReplayCommand(jsonOpts()), testKindsDir, "--db", tracedDB(t), "--session", "session-linear")
	require.NoError(t, err)

	var resp struct {
		Status string       `json:"status"`
		Data   ReplayResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, resp.Data.AllDeterministic)
	require.Len(t, resp.Data.Sessions, 1)
	assert.Equal(t, 9, resp.Data.Sessions[0].Replayed)
}

func TestReplayCommand_TamperedTrace(t *testing.T) {
	dbPath := tracedDB(t)

	st, err := store.Open(dbPath)
	require.NoError(t, err)
	_, err = st.WriteOperation(context.Background(), store.Operation{
		Session:  "session-linear",
		Seq:      10,
		Op:       "undo",
		Index:    2,
		Len:      3,
		Snapshot: snapshot.Snapshot{Fields: snapshot.Object{"value": snapshot.Int(9)}},
	})
	require.NoError(t, err)
	require.NoError(t, st.Close())

	out, err := execute(t, NewReplayCommand(textOpts()), testKindsDir, "--db", dbPath)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ Session: session-linear (Counter)")
	assert.Contains(t, out, "Diverged at [10] undo: index 0, trace has 2")
	assert.Contains(t, out, "✗ Determinism verification failed")

	out, err = execute(t, NewReplayCommand(jsonOpts()), testKindsDir, "--db", dbPath)
	require.Error(t, err)
	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E_DETERMINISM", resp.Error.Code)
}

func TestReplayCommand_UnknownSession(t *testing.T) {
	_, err := execute(t, NewReplayCommand(textOpts()), testKindsDir, "--db", tracedDB(t), "--session", "nope")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "failed to replay session nope")
}

func TestReplayCommand_EmptyDatabase(t *testing.T) {
	out, err := execute(t, NewReplayCommand(textOpts()), testKindsDir, "--db", filepath.Join(t.TempDir(), "empty.db"))
	require.NoError(t, err)
	assert.Contains(t, out, "No sessions found in database.")
}

func TestReplayCommand_BadKindsDir(t *testing.T) {
	_, err := execute(t, NewReplayCommand(textOpts()), filepath.Join(t.TempDir(), "nope"), "--db", tracedDB(t))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "failed to load kinds")
}
