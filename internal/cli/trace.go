package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/rewind/internal/snapshot"
	"github.com/roach88/rewind/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
	Session  string // optional - without it, sessions are listed
	Op       string // optional - filter to one op name
}

// TraceResult holds the timeline of one session.
type TraceResult struct {
	Session    store.Session     `json:"session"`
	Operations []store.Operation `json:"operations"`
	Stats      TraceStats        `json:"stats"`
}

// TraceStats holds summary statistics for the trace.
type TraceStats struct {
	Total int            `json:"total"`
	ByOp  map[string]int `json:"by_op"`
	Index int            `json:"index"` // journal position after the last operation
	Len   int            `json:"len"`   // journal length after the last operation
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Show the operation timeline of a session",
		Long: `Show the recorded operations of a session in seq order.

Without --session, lists the sessions stored in the database.
With --verbose, each operation's snapshot is printed as canonical JSON.

Examples:
  rewind trace --db ./rewind.db
  rewind trace --db ./rewind.db --session session-linear
  rewind trace --db ./rewind.db --session session-linear --op undo
  rewind trace --db ./rewind.db --session session-linear --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (default $REWIND_DB)")
	cmd.Flags().StringVar(&opts.Session, "session", "", "session token to trace")
	cmd.Flags().StringVar(&opts.Op, "op", "", "only show operations with this op name")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	ctx := context.Background()

	dbPath, err := databasePath(opts.Database, opts.Config)
	if err != nil {
		return err
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	if opts.Session == "" {
		return listSessions(ctx, st, opts, cmd)
	}

	sess, err := st.ReadSession(ctx, opts.Session)
	if errors.Is(err, sql.ErrNoRows) {
		return NewExitError(ExitCommandError, fmt.Sprintf("session not found: %s", opts.Session))
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read session", err)
	}

	ops, err := st.ReadOperations(ctx, opts.Session)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read operations", err)
	}

	result := TraceResult{
		Session:    sess,
		Operations: filterOperations(ops, opts.Op),
		Stats:      traceStats(ops),
	}

	if opts.Format == "json" {
		return writeJSON(cmd.OutOrStdout(), CLIResponse{Status: "ok", Data: result, Session: sess.Token})
	}
	return outputTraceText(cmd.OutOrStdout(), result, opts.Verbose)
}

func listSessions(ctx context.Context, st *store.Store, opts *TraceOptions, cmd *cobra.Command) error {
	sessions, err := st.ListSessions(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list sessions", err)
	}

	if opts.Format == "json" {
		return writeJSON(cmd.OutOrStdout(), CLIResponse{Status: "ok", Data: sessions})
	}

	w := cmd.OutOrStdout()
	if len(sessions) == 0 {
		fmt.Fprintln(w, "No sessions found in database.")
		return nil
	}
	fmt.Fprintf(w, "%d session(s):\n", len(sessions))
	for _, s := range sessions {
		fmt.Fprintf(w, "  %s  %s (%s)", s.Token, s.Kind, s.Model)
		if s.Scenario != "" {
			fmt.Fprintf(w, "  scenario %s", s.Scenario)
		}
		fmt.Fprintln(w)
	}
	return nil
}

// filterOperations keeps the operations named op, or all when op is empty.
func filterOperations(ops []store.Operation, op string) []store.Operation {
	if op == "" {
		return ops
	}
	out := []store.Operation{}
	for _, o := range ops {
		if o.Op == op {
			out = append(out, o)
		}
	}
	return out
}

func traceStats(ops []store.Operation) TraceStats {
	stats := TraceStats{Total: len(ops), ByOp: make(map[string]int), Index: -1}
	for _, o := range ops {
		stats.ByOp[o.Op]++
	}
	if len(ops) > 0 {
		last := ops[len(ops)-1]
		stats.Index, stats.Len = last.Index, last.Len
	}
	return stats
}

// outputTraceText outputs the trace result as text.
func outputTraceText(w io.Writer, result TraceResult, verbose bool) error {
	s := result.Session
	fmt.Fprintf(w, "Trace for Session: %s\n", s.Token)
	fmt.Fprintf(w, "Kind: %s (%s)\n", s.Kind, s.Model)
	if verbose {
		fmt.Fprintf(w, "Type Key: %s\n", s.TypeKey)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Timeline ===")
	if len(result.Operations) == 0 {
		fmt.Fprintln(w, "  (no operations)")
	}
	for _, op := range result.Operations {
		formatOperation(w, op, verbose)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Stats ===")
	fmt.Fprintf(w, "  Operations: %d\n", result.Stats.Total)
	for _, name := range sortedOps(result.Stats.ByOp) {
		fmt.Fprintf(w, "  %-13s %d\n", name+":", result.Stats.ByOp[name])
	}
	fmt.Fprintf(w, "  Journal:      index %d of %d\n", result.Stats.Index, result.Stats.Len)
	return nil
}

// formatOperation formats a single operation for text output.
func formatOperation(w io.Writer, op store.Operation, verbose bool) {
	fmt.Fprintf(w, "  [%d] %s", op.Seq, op.Op)
	switch op.Op {
	case "travel", "drop", "move_child", "load":
		fmt.Fprintf(w, "(%d)", op.Arg)
	}
	if op.ChildID != "" {
		fmt.Fprintf(w, " child=%s", op.ChildID)
	}
	fmt.Fprintf(w, " index=%d len=%d digest=%s\n", op.Index, op.Len, truncateID(op.Digest))

	if verbose {
		data, err := snapshot.MarshalCanonical(op.Snapshot.Value())
		if err != nil {
			fmt.Fprintf(w, "       State: <%v>\n", err)
			return
		}
		fmt.Fprintf(w, "       State: %s\n", data)
	}
}

func sortedOps(byOp map[string]int) []string {
	names := make([]string, 0, len(byOp))
	for name := range byOp {
		names = append(names, name)
	}
	snapshot.SortKeys(names)
	return names
}

// truncateID truncates a long ID for display.
func truncateID(id string) string {
	if len(id) <= 16 {
		return id
	}
	return id[:8] + "..." + id[len(id)-8:]
}
