package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/rewind/internal/harness"
	"github.com/roach88/rewind/internal/store"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database string
	Session  string // optional - specific session only
}

// ReplayResult holds the overall replay result.
type ReplayResult struct {
	Sessions         []*harness.ReplayReport `json:"sessions"`
	TotalSessions    int                     `json:"total_sessions"`
	AllDeterministic bool                    `json:"all_deterministic"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay <kinds-dir>",
		Short: "Replay recorded sessions and verify determinism",
		Long: `Replay recorded sessions against the kinds declared in a directory.

Each session's root entity is rebuilt from its TypeKey and every recorded
operation is re-executed in seq order. After each one the journal index,
length and snapshot digest must match the trace.

Exit codes:
  0 - All sessions replayed identically
  1 - A session diverged from its trace
  2 - Command error (database not found, unknown kind, etc.)

Examples:
  rewind replay --db ./rewind.db ./kinds
  rewind replay --db ./rewind.db ./kinds --session session-linear
  rewind replay --db ./rewind.db ./kinds --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (default $REWIND_DB)")
	cmd.Flags().StringVar(&opts.Session, "session", "", "replay specific session only")

	return cmd
}

func runReplay(opts *ReplayOptions, kindsDir string, cmd *cobra.Command) error {
	ctx := context.Background()

	dbPath, err := databasePath(opts.Database, opts.Config)
	if err != nil {
		return err
	}

	cat, err := LoadCatalog(kindsDir)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load kinds", err)
	}

	st, err := store.Open(dbPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	var tokens []string
	if opts.Session != "" {
		tokens = []string{opts.Session}
	} else {
		sessions, err := st.ListSessions(ctx)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to list sessions", err)
		}
		for _, s := range sessions {
			tokens = append(tokens, s.Token)
		}
	}

	result := ReplayResult{
		Sessions:         make([]*harness.ReplayReport, 0, len(tokens)),
		TotalSessions:    len(tokens),
		AllDeterministic: true,
	}

	if len(tokens) == 0 {
		if opts.Format == "json" {
			return outputReplayJSON(cmd, result)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "No sessions found in database.")
		return nil
	}

	for _, token := range tokens {
		report, err := harness.Replay(ctx, st, cat, token)
		if err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("failed to replay session %s", token), err)
		}
		result.Sessions = append(result.Sessions, report)
		if !report.Deterministic() {
			result.AllDeterministic = false
		}
	}

	if opts.Format == "json" {
		return outputReplayJSON(cmd, result)
	}
	return outputReplayText(cmd, result, opts.Verbose)
}

// outputReplayJSON outputs the replay result as JSON.
func outputReplayJSON(cmd *cobra.Command, result ReplayResult) error {
	response := CLIResponse{Status: "ok", Data: result}
	if !result.AllDeterministic {
		response.Status = "error"
		response.Error = &CLIError{
			Code:    "E_DETERMINISM",
			Message: "determinism verification failed",
		}
	}

	if err := writeJSON(cmd.OutOrStdout(), response); err != nil {
		return err
	}
	if !result.AllDeterministic {
		return NewExitError(ExitFailure, "determinism verification failed")
	}
	return nil
}

// outputReplayText outputs the replay result as text.
func outputReplayText(cmd *cobra.Command, result ReplayResult, verbose bool) error {
	w := cmd.OutOrStdout()

	fmt.Fprintf(w, "Replay Summary: %d session(s)\n", result.TotalSessions)
	fmt.Fprintln(w)

	for _, r := range result.Sessions {
		status := "✓"
		if !r.Deterministic() {
			status = "✗"
		}
		fmt.Fprintf(w, "%s Session: %s (%s)\n", status, r.Session, r.Kind)
		fmt.Fprintf(w, "  Operations: %d replayed of %d\n", r.Replayed, r.Operations)
		if d := r.Diverged; d != nil {
			fmt.Fprintf(w, "  Diverged at [%d] %s: %s\n", d.Seq, d.Op, d.Reason)
		} else if verbose {
			fmt.Fprintln(w, "  Every index, length and digest matched")
		}
		fmt.Fprintln(w)
	}

	if result.AllDeterministic {
		fmt.Fprintln(w, "✓ All sessions verified deterministic")
		return nil
	}

	fmt.Fprintln(w, "✗ Determinism verification failed")
	return NewExitError(ExitFailure, "determinism verification failed")
}
