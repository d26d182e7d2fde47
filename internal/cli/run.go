package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/rewind/internal/engine"
	"github.com/roach88/rewind/internal/harness"
	"github.com/roach88/rewind/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Database string
	Session  string
	Realtime bool

	// Sessions generates the token when neither the scenario nor --session
	// names one. If nil, defaults to UUIDv7Generator.
	Sessions engine.SessionGenerator
}

// RunResult is the outcome of the run command.
type RunResult struct {
	Scenario   string   `json:"scenario"`
	Session    string   `json:"session"`
	Pass       bool     `json:"pass"`
	Operations int      `json:"operations"`
	Errors     []string `json:"errors,omitempty"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <kinds-dir> <scenario-file>",
		Short: "Run one scenario and record its operation trace",
		Long: `Run one scenario and write its operation trace to a SQLite database.

The database is created if it doesn't exist. The session token comes from
--session, else from the scenario file, else a fresh UUIDv7. Runs are
deterministic, so running the same scenario into the same session again
writes nothing new.

With --realtime, debounced kinds use wall-clock timers and advance steps
sleep for their duration instead of moving a manual clock.

Example:
  rewind run --db ./rewind.db ./kinds ./scenarios/undo.yaml
  REWIND_DB=./rewind.db rewind run ./kinds ./scenarios/undo.yaml --verbose`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenarioToStore(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (default $REWIND_DB)")
	cmd.Flags().StringVar(&opts.Session, "session", "", "session token (overrides the scenario)")
	cmd.Flags().BoolVar(&opts.Realtime, "realtime", false, "run debounced kinds on wall-clock timers")

	return cmd
}

func runScenarioToStore(opts *RunOptions, kindsDir, scenarioFile string, cmd *cobra.Command) error {
	dbPath, err := databasePath(opts.Database, opts.Config)
	if err != nil {
		return err
	}

	absKinds, err := filepath.Abs(kindsDir)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid kinds directory", err)
	}
	scenario, err := harness.LoadScenarioWithKinds(scenarioFile, absKinds)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load scenario", err)
	}

	switch {
	case opts.Session != "":
		scenario.Session = opts.Session
	case scenario.Session == "":
		gen := opts.Sessions
		if gen == nil {
			gen = engine.UUIDv7Generator{}
		}
		scenario.Session = gen.Generate()
	}

	slog.Info("opening database", "path", dbPath)
	st, err := store.Open(dbPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()

	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, stop := signal.NotifyContext(parentCtx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("running scenario", "scenario", scenario.Name, "root", scenario.Root, "session", scenario.Session)
	var runOpts []harness.RunOption
	if opts.Realtime {
		runOpts = append(runOpts, harness.WithRealtime())
	}
	result, err := harness.RunWithStore(ctx, scenario, st, slog.Default(), runOpts...)
	if err != nil {
		return WrapExitError(ExitCommandError, "scenario execution failed", err)
	}
	slog.Info("scenario finished", "pass", result.Pass, "operations", len(result.Trace))

	out := RunResult{
		Scenario:   scenario.Name,
		Session:    result.Session,
		Pass:       result.Pass,
		Operations: len(result.Trace),
		Errors:     result.Errors,
	}
	return outputRunResult(cmd, opts, out)
}

func outputRunResult(cmd *cobra.Command, opts *RunOptions, out RunResult) error {
	if opts.Format == "json" {
		response := CLIResponse{Status: "ok", Data: out, Session: out.Session}
		if !out.Pass {
			response.Status = "error"
			response.Error = &CLIError{Code: "E_SCENARIO_FAILED", Message: "scenario failed"}
		}
		if err := writeJSON(cmd.OutOrStdout(), response); err != nil {
			return err
		}
	} else {
		w := cmd.OutOrStdout()
		mark := "✓"
		if !out.Pass {
			mark = "✗"
		}
		fmt.Fprintf(w, "%s %s\n", mark, out.Scenario)
		fmt.Fprintf(w, "  Session: %s\n", out.Session)
		fmt.Fprintf(w, "  Operations: %d\n", out.Operations)
		for _, e := range out.Errors {
			fmt.Fprintf(w, "  %s\n", e)
		}
	}

	if !out.Pass {
		return NewExitError(ExitFailure, fmt.Sprintf("scenario %s failed", out.Scenario))
	}
	return nil
}
