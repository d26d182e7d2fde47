package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/roach88/rewind/internal/compiler"
	"github.com/roach88/rewind/internal/engine"
	"github.com/roach88/rewind/internal/observe"
	"github.com/roach88/rewind/internal/store"
	"github.com/roach88/rewind/internal/testutil"
)

// Harness is the scenario execution engine.
// It runs steps against one root entity. Debounced kinds run on a manual
// scheduler unless the run is realtime.
type Harness struct {
	catalog *compiler.Catalog
	sched   stepClock
	root    *engine.Rewindable
	logger  *slog.Logger
}

// Run executes a scenario against a fresh in-memory trace store and returns
// the result. Harness logs are discarded.
func Run(scenario *Scenario) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	return RunWithStore(context.Background(), scenario, st,
		slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// RunWithStore executes a scenario and writes its trace to st.
//
// Execution flow:
// 1. Compile the kinds directory into a catalog
// 2. Create the root entity observed by a store tracer
// 3. Execute steps, stopping at the first unexpected failure
// 4. Read the trace back and evaluate assertions
func RunWithStore(ctx context.Context, scenario *Scenario, st *store.Store, logger *slog.Logger, opts ...RunOption) (*Result, error) {
	if logger == nil {
		logger = slog.Default()
	}
	var cfg runConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	specs, err := compiler.LoadDir(scenario.Kinds)
	if err != nil {
		return nil, fmt.Errorf("failed to load kinds: %w", err)
	}
	var sched stepClock = observe.NewManual()
	if cfg.realtime {
		rt := newRealtimeClock(ctx)
		defer rt.Close()
		sched = rt
	}
	cat, err := compiler.Build(specs, sched)
	if err != nil {
		return nil, fmt.Errorf("failed to build kinds: %w", err)
	}
	kind, ok := cat.Kind(scenario.Root)
	if !ok {
		return nil, fmt.Errorf("root kind %q is not declared", scenario.Root)
	}

	clock := testutil.NewDeterministicClock()
	token := testutil.NewFixedSessionGenerator(scenario.Session).Generate()

	tracer, err := store.NewTracer(ctx, st, store.Session{
		Token:      token,
		Kind:       kind.Name(),
		TypeKey:    kind.Key(),
		Model:      kind.Model().String(),
		Scenario:   scenario.Name,
		CreatedSeq: clock.Current(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start trace: %w", err)
	}

	root, err := kind.New(
		engine.WithObserver(tracer),
		engine.WithSession(token),
		engine.WithClock(clock),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create root %s: %w", kind.Name(), err)
	}
	defer root.Close()

	h := &Harness{
		catalog: cat,
		sched:   sched,
		root:    root,
		logger:  logger,
	}

	result := NewResult()
	result.Session = token
	for i, step := range scenario.Steps {
		if err := h.run(step); err != nil {
			result.AddError(fmt.Sprintf("steps[%d] %s: %v", i, step.Op, err))
			break
		}
	}

	if err := tracer.Err(); err != nil {
		return nil, err
	}
	ops, err := st.ReadOperations(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("failed to read trace: %w", err)
	}
	result.Trace = traceFromOperations(ops, cat)
	result.State = StateView(root.State(), cat)

	if result.Pass {
		for _, msg := range EvaluateAssertions(root, scenario.Assertions, result.Trace) {
			result.AddError(msg)
		}
	}
	return result, nil
}

// run executes one step and checks it against ExpectError.
func (h *Harness) run(step Step) error {
	err := h.exec(step)
	h.logger.Debug("harness step", "op", step.Op, "on", strings.Join(step.On, "/"), "error", err)

	if step.ExpectError == "" {
		return err
	}
	if err == nil {
		return fmt.Errorf("expected error containing %q, got none", step.ExpectError)
	}
	if !strings.Contains(err.Error(), step.ExpectError) {
		return fmt.Errorf("expected error containing %q, got %q", step.ExpectError, err.Error())
	}
	return nil
}

func (h *Harness) exec(step Step) error {
	target, err := resolve(h.root, step.On)
	if err != nil {
		return err
	}

	switch step.Op {
	case StepSet:
		obj, ok := target.Target().(*observe.Object)
		if !ok {
			return fmt.Errorf("%s target does not support set", target.Kind().Name())
		}
		return obj.Set(step.Field, step.Value)

	case StepRecord:
		target.Record()
		return nil

	case StepCoalesce:
		return target.Coalesce(func() error {
			for _, nested := range step.Steps {
				if err := h.run(nested); err != nil {
					return err
				}
			}
			return nil
		})

	case StepUndo:
		return checkMoved(step)(target.Undo())
	case StepRedo:
		return checkMoved(step)(target.Redo())
	case StepTravel:
		return checkMoved(step)(target.Travel(step.Index))

	case StepDrop:
		return target.Drop(step.Index)

	case StepSuspend:
		target.Suspend()
		return nil
	case StepResume:
		target.Resume()
		return nil
	case StepFlush:
		target.Flush()
		return nil

	case StepAdvance:
		h.sched.Advance(time.Duration(step.MS) * time.Millisecond)
		return nil

	case StepAddChild:
		kind, ok := h.catalog.Kind(step.Kind)
		if !ok {
			return fmt.Errorf("unknown kind %q", step.Kind)
		}
		child, err := kind.New()
		if err != nil {
			return err
		}
		return target.AddChild(step.ID, child)

	case StepRemoveChild:
		removed, err := target.RemoveChild(step.ID)
		if err != nil {
			return err
		}
		if !removed {
			return fmt.Errorf("no child %q", step.ID)
		}
		return nil

	case StepMoveChild:
		return target.MoveChild(step.ID, step.Position)

	default:
		return fmt.Errorf("unknown op %q", step.Op)
	}
}

// checkMoved compares a navigation result with step.Moved.
func checkMoved(step Step) func(bool, error) error {
	return func(moved bool, err error) error {
		if err != nil {
			return err
		}
		if step.Moved != nil && *step.Moved != moved {
			return fmt.Errorf("moved = %t, want %t", moved, *step.Moved)
		}
		return nil
	}
}

// resolve walks a child path from root.
func resolve(root *engine.Rewindable, path []string) (*engine.Rewindable, error) {
	cur := root
	for i, id := range path {
		child, ok := cur.Child(id)
		if !ok {
			return nil, fmt.Errorf("no child %q at %s", id, strings.Join(path[:i], "/"))
		}
		cur = child
	}
	return cur, nil
}
