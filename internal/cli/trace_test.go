package cli

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tracedDB(t *testing.T) string {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "rewind.db")
	runInto(t, dbPath, linearScenario)
	return dbPath
}

func TestTraceCommand_ListSessions(t *testing.T) {
	dbPath := tracedDB(t)
	runInto(t, dbPath, boardScenario, "--session", "session-board")

	out, err := execute(t, NewTraceCommand(textOpts()), "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "2 session(s):")
	assert.Contains(t, out, "session-linear  Counter (linear)  scenario linear_undo_redo")
	assert.Contains(t, out, "session-board  Board (linear)")
}

func TestTraceCommand_EmptyDatabase(t *testing.T) {
	out, err := execute(t, NewTraceCommand(textOpts()), "--db", filepath.Join(t.TempDir(), "empty.db"))
	require.NoError(t, err)
	assert.Contains(t, out, "No sessions found in database.")
}

func TestTraceCommand_Timeline(t *testing.T) {
	out, err := execute(t, NewTraceCommand(textOpts()), "--db", tracedDB(t), "--session", "session-linear")
	require.NoError(t, err)

	assert.Contains(t, out, "Trace for Session: session-linear")
	assert.Contains(t, out, "Kind: Counter (linear)")
	assert.Contains(t, out, "[1] record index=0 len=1")
	assert.Contains(t, out, "[5] undo index=2 len=4")
	assert.Contains(t, out, "[8] travel(0) index=0 len=3")
	assert.Contains(t, out, "[9] redo index=1 len=3")
	assert.Contains(t, out, "Operations: 9")
	assert.Contains(t, out, "Journal:      index 1 of 3")
	assert.NotContains(t, out, "State:")
}

func TestTraceCommand_VerboseShowsState(t *testing.T) {
	opts := textOpts()
	opts.Verbose = true

	out, err := execute(t, NewTraceCommand(opts), "--db", tracedDB(t), "--session", "session-linear")
	require.NoError(t, err)
	assert.Contains(t, out, "Type Key: ")
	assert.Contains(t, out, `State: {"value":9}`)
}

func TestTraceCommand_OpFilter(t *testing.T) {
	out, err := execute(t, NewTraceCommand(textOpts()), "--db", tracedDB(t), "--session", "session-linear", "--op", "undo")
	require.NoError(t, err)
	assert.Contains(t, out, "[5] undo")
	assert.Contains(t, out, "[6] undo")
	assert.NotContains(t, out, "] record")
	// Stats cover the whole session.
	assert.Contains(t, out, "Operations: 9")
}

func TestTraceCommand_JSON(t *testing.T) {
	out, err := execute(t, NewTraceCommand(jsonOpts()), "--db", tracedDB(t), "--session", "session-linear")
	require.NoError(t, err)

	var resp struct {
		Status  string      `json:"status"`
		Session string      `json:"session"`
		Data    TraceResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "session-linear", resp.Session)
	assert.Len(t, resp.Data.Operations, 9)
	assert.Equal(t, 5, resp.Data.Stats.ByOp["record"])
	assert.Equal(t, 2, resp.Data.Stats.ByOp["undo"])
	assert.Equal(t, 1, resp.Data.Stats.Index)
	assert.Equal(t, 3, resp.Data.Stats.Len)
}

func TestTraceCommand_SessionNotFound(t *testing.T) {
	_, err := execute(t, NewTraceCommand(textOpts()), "--db", tracedDB(t), "--session", "nope")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "session not found: nope")
}

func TestTruncateID(t *testing.T) {
	assert.Equal(t, "short", truncateID("short"))
	assert.Equal(t, "01234567...89abcdef", truncateID("0123456789abcdef0123456789abcdef"))
}
