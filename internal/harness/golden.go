package harness

import (
	"bytes"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/rewind/internal/snapshot"
)

// GoldenDir is where harness tests keep golden traces.
const GoldenDir = "testdata/golden"

// GoldenTrace renders a result's trace for golden comparison: canonical JSON
// (sorted keys, NFC strings) indented two spaces, with a trailing newline.
func GoldenTrace(scenarioName string, result *Result) ([]byte, error) {
	trace := make(snapshot.List, len(result.Trace))
	for i, e := range result.Trace {
		trace[i] = e.Value()
	}
	doc := snapshot.Object{
		"scenario": snapshot.String(scenarioName),
		"session":  snapshot.String(result.Session),
		"trace":    trace,
	}

	canonical, err := snapshot.MarshalCanonical(doc)
	if err != nil {
		return nil, fmt.Errorf("golden trace: %w", err)
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, canonical, "", "  "); err != nil {
		return nil, fmt.Errorf("golden trace: %w", err)
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// RunWithGolden executes a scenario and compares the trace against a golden file.
// The golden file is stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if trace doesn't match golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares the given result's trace against a golden file.
// This is useful when you've already run a scenario and want to compare
// the result against a golden file without re-running.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	data, err := GoldenTrace(scenarioName, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir(GoldenDir),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)
	return nil
}
