package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/eternal/internal/proposal"
	"github.com/roach88/eternal/internal/wizard"
)

// Scenario is a scripted authoring session.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Steps are executed in order against a fresh wizard.
	Steps []Step `yaml:"steps"`

	// Expect validates the session once every step has run.
	Expect *Expect `yaml:"expect,omitempty"`
}

// Step is one wizard action.
type Step struct {
	// Do is the action name (see the Action constants).
	Do string `yaml:"do"`

	// Field is the proposal field for set, or the memory field for
	// edit_memory.
	Field string `yaml:"field,omitempty"`

	// Value is the new field value.
	Value string `yaml:"value,omitempty"`

	// Memory is the zero-based memory position for edit_memory and
	// remove_memory.
	Memory *int `yaml:"memory,omitempty"`

	// Error, when set, is text the action's error must contain.
	Error string `yaml:"error,omitempty"`
}

// Expect describes the state after the last step. Unset fields are not
// checked.
type Expect struct {
	Step      string `yaml:"step,omitempty"`
	Finalized *bool  `yaml:"finalized,omitempty"`
	Memories  *int   `yaml:"memories,omitempty"`
	Theme     string `yaml:"theme,omitempty"`
	Protected *bool  `yaml:"protected,omitempty"`

	// Error must be contained in the first action error of the session.
	Error string `yaml:"error,omitempty"`
}

// Action names.
const (
	ActionSet          = "set"
	ActionNext         = "next"
	ActionBack         = "back"
	ActionAddMemory    = "add_memory"
	ActionEditMemory   = "edit_memory"
	ActionRemoveMemory = "remove_memory"
	ActionFinalize     = "finalize"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or fails validation.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict decoding catches typos like "field:" vs "fields:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
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
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		if err := validateStep(i, step); err != nil {
			return err
		}
	}

	if s.Expect != nil {
		if s.Expect.Step != "" {
			if _, err := wizard.ParseStep(s.Expect.Step); err != nil {
				return fmt.Errorf("expect.step: %w", err)
			}
		}
		if s.Expect.Theme != "" {
			if _, err := proposal.ParseTheme(s.Expect.Theme); err != nil {
				return fmt.Errorf("expect.theme: %w", err)
			}
		}
		if s.Expect.Memories != nil && *s.Expect.Memories < 0 {
			return fmt.Errorf("expect.memories must be non-negative")
		}
	}
	return nil
}

func validateStep(i int, step Step) error {
	switch step.Do {
	case "":
		return fmt.Errorf("steps[%d]: do is required", i)
	case ActionSet:
		if step.Field == "" {
			return fmt.Errorf("steps[%d]: field is required for set", i)
		}
	case ActionEditMemory:
		if step.Memory == nil {
			return fmt.Errorf("steps[%d]: memory is required for edit_memory", i)
		}
		if step.Field == "" {
			return fmt.Errorf("steps[%d]: field is required for edit_memory", i)
		}
	case ActionRemoveMemory:
		if step.Memory == nil {
			return fmt.Errorf("steps[%d]: memory is required for remove_memory", i)
		}
	case ActionNext, ActionBack, ActionAddMemory, ActionFinalize:
	default:
		return fmt.Errorf("steps[%d]: unknown action %q", i, step.Do)
	}
	return nil
}
