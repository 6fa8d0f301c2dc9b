package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/oprouter/internal/layout"
	"github.com/roach88/oprouter/internal/router"
)

// Event types.
const (
	EventInvoke  = "invoke"
	EventArrive  = "arrive"
	EventBlock   = "block"
	EventRelease = "release"
)

// Scenario is a resolver test case loaded from YAML.
type Scenario struct {
	// Name is the scenario identifier, also used for the golden file name.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Sorting enables global sorting in the router.
	Sorting bool `yaml:"sorting,omitempty"`

	// Preemption is the preemption policy name. Empty means first-found.
	Preemption string `yaml:"preemption,omitempty"`

	// DefaultRule is the criterion restored at every cycle exit. Empty means WT.
	DefaultRule string `yaml:"default_rule,omitempty"`

	// Layout is the plant at the start of the run.
	Layout layout.Layout `yaml:"layout"`

	// Events is the timeline, applied in time order. Events at the same
	// instant keep document order.
	Events []Event `yaml:"events"`

	// Expect holds the checks made after the run.
	Expect Expectations `yaml:"expect,omitempty"`
}

// Event is one scheduled change to the plant.
type Event struct {
	At       float64 `yaml:"at"`
	Type     string  `yaml:"type"`
	Job      string  `yaml:"job,omitempty"`
	Station  string  `yaml:"station,omitempty"`
	Operator string  `yaml:"operator,omitempty"`
}

// Expectations are the scenario's checks. Nil fields are skipped.
type Expectations struct {
	// Assignments maps operator ID to the station it was last assigned to.
	Assignments map[string]string `yaml:"assignments,omitempty"`

	// Signals lists every delivered signal as kind:station, in order.
	Signals []string `yaml:"signals,omitempty"`

	// Dropped lists the operators that lost a tie-break, in order.
	Dropped []string `yaml:"dropped,omitempty"`

	// Preempted lists the stations preempted during the run, in layout order.
	Preempted []string `yaml:"preempted,omitempty"`

	// Error is the code of the error expected to stop the run.
	Error string `yaml:"error,omitempty"`
}

// LoadScenario reads and validates a scenario file.
// Unknown fields are rejected.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario decodes and validates a YAML scenario document.
func ParseScenario(data []byte) (*Scenario, error) {
	var s Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&s); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &s, nil
}

// validateScenario checks required fields and prepares the embedded layout.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Events) == 0 {
		return fmt.Errorf("events list is required and must be non-empty")
	}
	if _, err := router.ParsePreemptionPolicy(s.Preemption); err != nil {
		return err
	}
	if err := s.Layout.Prepare(); err != nil {
		return fmt.Errorf("layout: %w", err)
	}

	for i, ev := range s.Events {
		if err := validateEvent(i, ev); err != nil {
			return err
		}
	}
	return nil
}

// validateEvent checks that an event names what its type needs.
func validateEvent(index int, ev Event) error {
	if ev.At < 0 {
		return fmt.Errorf("events[%d]: at must be non-negative", index)
	}

	switch ev.Type {
	case EventInvoke:
	case EventArrive:
		if ev.Job == "" || ev.Station == "" {
			return fmt.Errorf("events[%d]: job and station are required for arrive", index)
		}
	case EventBlock:
		if ev.Station == "" {
			return fmt.Errorf("events[%d]: station is required for block", index)
		}
	case EventRelease:
		if ev.Operator == "" {
			return fmt.Errorf("events[%d]: operator is required for release", index)
		}
	case "":
		return fmt.Errorf("events[%d]: type is required", index)
	default:
		return fmt.Errorf("events[%d]: unknown event type %q", index, ev.Type)
	}
	return nil
}
