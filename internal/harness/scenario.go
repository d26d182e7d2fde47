package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Scenario defines one harness run.
type Scenario struct {
	// Name uniquely identifies this scenario.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Kinds is the directory of CUE kind declarations.
	// Relative paths are resolved against the scenario file's directory.
	Kinds string `yaml:"kinds,omitempty"`

	// Root names the kind of the root entity.
	Root string `yaml:"root"`

	// Session is an optional fixed session token.
	// If empty, defaults to "test-session-default".
	Session string `yaml:"session,omitempty"`

	// Steps drive the root entity and its children in order.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final state.
	Assertions []Assertion `yaml:"assertions"`
}

// Step is one operation of a scenario.
type Step struct {
	// Op is the operation name (see the Step* constants).
	Op string `yaml:"op"`

	// On is the child path from the root; empty targets the root.
	On []string `yaml:"on,omitempty"`

	// Field and Value are used by set.
	Field string `yaml:"field,omitempty"`
	Value any    `yaml:"value,omitempty"`

	// ID and Kind are used by the child operations.
	ID   string `yaml:"id,omitempty"`
	Kind string `yaml:"kind,omitempty"`

	// Index is used by travel and drop; Position by move_child.
	Index    int `yaml:"index,omitempty"`
	Position int `yaml:"position,omitempty"`

	// MS is used by advance.
	MS int `yaml:"ms,omitempty"`

	// Steps are the nested steps of coalesce.
	Steps []Step `yaml:"steps,omitempty"`

	// Moved, when set, checks the result of undo, redo and travel.
	Moved *bool `yaml:"moved,omitempty"`

	// ExpectError requires the step to fail with an error containing it.
	ExpectError string `yaml:"expect_error,omitempty"`
}

// Step operation constants.
const (
	StepSet         = "set"
	StepRecord      = "record"
	StepCoalesce    = "coalesce"
	StepUndo        = "undo"
	StepRedo        = "redo"
	StepTravel      = "travel"
	StepDrop        = "drop"
	StepSuspend     = "suspend"
	StepResume      = "resume"
	StepFlush       = "flush"
	StepAdvance     = "advance"
	StepAddChild    = "add_child"
	StepRemoveChild = "remove_child"
	StepMoveChild   = "move_child"
)

// Assertion validates the final state of the root or a child.
type Assertion struct {
	// Type specifies the assertion type (see the Assert* constants).
	Type string `yaml:"type"`

	// On is the child path from the root; empty targets the root.
	On []string `yaml:"on,omitempty"`

	// ID names the child checked by child_type.
	ID string `yaml:"id,omitempty"`

	// Expect is the expected value; its shape depends on Type.
	Expect any `yaml:"expect"`
}

// Assertion type constants.
const (
	AssertState      = "state"
	AssertHistory    = "history"
	AssertHistoryLen = "history_len"
	AssertIndex      = "index"
	AssertChildren   = "children"
	AssertChildType  = "child_type"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithKinds(path, "")
}

// LoadScenarioWithKinds is like LoadScenario, but scenarios that do not name
// a kinds directory use kindsDir.
func LoadScenarioWithKinds(path, kindsDir string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}

	switch {
	case scenario.Kinds == "":
		scenario.Kinds = kindsDir
	case !filepath.IsAbs(scenario.Kinds):
		scenario.Kinds = filepath.Join(filepath.Dir(path), scenario.Kinds)
	}

	if err := validateScenario(scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	if _, err := os.Stat(scenario.Kinds); err != nil {
		return nil, fmt.Errorf("invalid scenario: kinds directory: %w", err)
	}
	return scenario, nil
}

// ParseScenario decodes scenario YAML without resolving or validating paths.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Kinds == "" {
		return fmt.Errorf("kinds directory is required")
	}
	if s.Root == "" {
		return fmt.Errorf("root kind is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		if err := validateStep(fmt.Sprintf("steps[%d]", i), step); err != nil {
			return err
		}
	}
	for i, a := range s.Assertions {
		if err := validateAssertion(i, a); err != nil {
			return err
		}
	}
	return nil
}

func validateStep(at string, step Step) error {
	switch step.Op {
	case "":
		return fmt.Errorf("%s: op is required", at)
	case StepSet:
		if step.Field == "" {
			return fmt.Errorf("%s: field is required for set", at)
		}
	case StepAddChild:
		if step.ID == "" || step.Kind == "" {
			return fmt.Errorf("%s: id and kind are required for add_child", at)
		}
	case StepRemoveChild, StepMoveChild:
		if step.ID == "" {
			return fmt.Errorf("%s: id is required for %s", at, step.Op)
		}
	case StepAdvance:
		if step.MS <= 0 {
			return fmt.Errorf("%s: ms must be positive for advance", at)
		}
	case StepCoalesce:
		if len(step.Steps) == 0 {
			return fmt.Errorf("%s: steps are required for coalesce", at)
		}
		for i, nested := range step.Steps {
			if err := validateStep(fmt.Sprintf("%s.steps[%d]", at, i), nested); err != nil {
				return err
			}
		}
	case StepRecord, StepUndo, StepRedo, StepTravel, StepDrop, StepSuspend, StepResume, StepFlush:
	default:
		return fmt.Errorf("%s: unknown op %q", at, step.Op)
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertState, AssertHistory, AssertHistoryLen, AssertIndex, AssertChildren:
	case AssertChildType:
		if a.ID == "" {
			return fmt.Errorf("assertions[%d]: id is required for child_type", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	if a.Expect == nil {
		return fmt.Errorf("assertions[%d]: expect is required for %s", index, a.Type)
	}
	return nil
}
