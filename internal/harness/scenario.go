package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/crosslink/internal/linkage"
)

// Scenario defines a propagation test scenario.
// Scenarios build a set of linkage groups, feed interaction events through
// the engine, and assert on the resulting updates and errors.
type Scenario struct {
	// Name uniquely identifies this scenario.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Linkages lists paths to CUE linkage declaration files.
	// Paths are relative to the scenario file location.
	Linkages []string `yaml:"linkages,omitempty"`

	// Groups contains inline group declarations, created after any
	// linkage files, in list order.
	Groups []GroupStep `yaml:"groups,omitempty"`

	// Events contains the interaction events to propagate, in order.
	Events []EventStep `yaml:"events"`

	// FailTargets lists chart IDs whose translations fail.
	// Used to exercise per-target error isolation.
	FailTargets []string `yaml:"fail_targets,omitempty"`

	// Assertions validate the propagation trace.
	// Supported types: update_count, update_contains, error_count, suppressed
	Assertions []Assertion `yaml:"assertions"`
}

// GroupStep declares one linkage group inline.
type GroupStep struct {
	// Members lists the chart IDs in the group.
	Members []string `yaml:"members"`

	// Kind is the sync kind wire name ("filter", "zoom", "time_range",
	// "highlight").
	Kind string `yaml:"kind"`

	// Metadata contains optional opaque annotations.
	Metadata map[string]string `yaml:"metadata,omitempty"`
}

// EventStep is one interaction event fed to the engine.
type EventStep struct {
	// Source is the chart the interaction originated from.
	Source string `yaml:"source"`

	// Kind is the sync kind wire name.
	Kind string `yaml:"kind"`

	// CorrelationID ties echoes of the same user gesture together.
	CorrelationID string `yaml:"correlation_id"`

	// Payload holds the kind-specific payload fields.
	Payload map[string]any `yaml:"payload"`

	// At is the event's offset from scenario start in milliseconds.
	// Events drive a fake clock, so debounce windows are stepped over
	// explicitly instead of slept through.
	At int64 `yaml:"at"`
}

// Assertion validates one propagated event's outcome.
type Assertion struct {
	// Type specifies the assertion type:
	// - "update_count": the event produced exactly Count updates
	// - "update_contains": the event produced an update for Target whose
	//   payload contains the given fields (subset match)
	// - "error_count": the event produced exactly Count propagation errors
	// - "suppressed": the event's Suppressed flag equals Suppressed
	Type string `yaml:"type"`

	// Event is the index into the scenario's events list.
	Event int `yaml:"event"`

	// Count is the expected number of updates or errors.
	Count int `yaml:"count,omitempty"`

	// Target is the expected update target (used by update_contains).
	Target string `yaml:"target,omitempty"`

	// Payload contains expected payload fields (used by update_contains).
	// Subset match - only specified fields are validated.
	Payload map[string]any `yaml:"payload,omitempty"`

	// Suppressed is the expected suppression flag (used by suppressed).
	Suppressed bool `yaml:"suppressed,omitempty"`
}

// Assertion type constants.
const (
	AssertUpdateCount    = "update_count"
	AssertUpdateContains = "update_contains"
	AssertErrorCount     = "error_count"
	AssertSuppressed     = "suppressed"
)

// LoadScenario reads and parses a scenario YAML file. Linkage paths are
// resolved relative to the scenario file's directory.
// Returns an error if the file doesn't exist, is malformed, contains
// unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}

	base := filepath.Dir(path)
	for i, linkagePath := range scenario.Linkages {
		if !filepath.IsAbs(linkagePath) {
			scenario.Linkages[i] = filepath.Join(base, linkagePath)
		}
	}

	return scenario, nil
}

// ParseScenario parses scenario YAML with strict field validation
// (catches typos like "assertion:" vs "assertions:").
func ParseScenario(data []byte) (*Scenario, error) {
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

	if len(s.Linkages) == 0 && len(s.Groups) == 0 {
		return fmt.Errorf("at least one linkage file or inline group is required")
	}

	if len(s.Events) == 0 {
		return fmt.Errorf("events list is required and must be non-empty")
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, group := range s.Groups {
		if len(group.Members) == 0 {
			return fmt.Errorf("groups[%d]: members is required", i)
		}
		if _, err := linkage.ParseSyncKind(group.Kind); err != nil {
			return fmt.Errorf("groups[%d]: %w", i, err)
		}
	}

	lastAt := int64(0)
	for i, event := range s.Events {
		if event.Source == "" {
			return fmt.Errorf("events[%d]: source is required", i)
		}
		if _, err := linkage.ParseSyncKind(event.Kind); err != nil {
			return fmt.Errorf("events[%d]: %w", i, err)
		}
		if event.CorrelationID == "" {
			return fmt.Errorf("events[%d]: correlation_id is required", i)
		}
		if event.Payload == nil {
			return fmt.Errorf("events[%d]: payload is required", i)
		}
		if event.At < lastAt {
			return fmt.Errorf("events[%d]: at offsets must be non-decreasing", i)
		}
		lastAt = event.At
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion, len(s.Events)); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion, eventCount int) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	if a.Event < 0 || a.Event >= eventCount {
		return fmt.Errorf("assertions[%d]: event index %d out of range (scenario has %d events)", index, a.Event, eventCount)
	}

	switch a.Type {
	case AssertUpdateCount, AssertErrorCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for %s", index, a.Type)
		}
	case AssertUpdateContains:
		if a.Target == "" {
			return fmt.Errorf("assertions[%d]: target is required for update_contains", index)
		}
	case AssertSuppressed:
		// Suppressed defaults to false, which is a valid expectation.
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
