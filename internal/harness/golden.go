package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/crosslink/internal/linkage"
)

// TraceSnapshot captures the complete trace for a scenario execution.
// All fields use canonical JSON serialization for deterministic comparison.
type TraceSnapshot struct {
	ScenarioName string       `json:"scenario_name"`
	Groups       []string     `json:"groups"`
	Trace        []TraceEvent `json:"trace"`
}

// toCanonicalMap converts a TraceSnapshot to a map[string]any because
// linkage.MarshalCanonical only handles maps, slices, and primitives.
func (s *TraceSnapshot) toCanonicalMap() map[string]any {
	groupList := make([]any, len(s.Groups))
	for i, g := range s.Groups {
		groupList[i] = g
	}

	traceList := make([]any, len(s.Trace))
	for i, event := range s.Trace {
		updateList := make([]any, len(event.Updates))
		for j, u := range event.Updates {
			updateList[j] = map[string]any{
				"target":      u.Target,
				"update_kind": u.UpdateKind,
				"payload":     u.Payload,
			}
		}

		eventMap := map[string]any{
			"at":             event.At,
			"source":         event.Source,
			"kind":           event.Kind,
			"correlation_id": event.CorrelationID,
			"suppressed":     event.Suppressed,
			"updates":        updateList,
		}
		if len(event.Errors) > 0 {
			errorList := make([]any, len(event.Errors))
			for j, e := range event.Errors {
				errorList[j] = e
			}
			eventMap["errors"] = errorList
		}
		traceList[i] = eventMap
	}

	return map[string]any{
		"scenario_name": s.ScenarioName,
		"groups":        groupList,
		"trace":         traceList,
	}
}

// RunWithGolden executes a scenario and compares the trace against a golden
// file stored in testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Golden files serve as the source of truth for expected trace behavior;
// the fake clock and sequential group IDs keep them byte-stable.
//
// Returns error if scenario execution fails. Test failure (via goldie)
// occurs if the trace doesn't match the golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) error {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return err
	}

	snapshot := TraceSnapshot{
		ScenarioName: scenario.Name,
		Groups:       result.Groups,
		Trace:        result.Trace,
	}

	traceJSON, err := linkage.MarshalCanonical(snapshot.toCanonicalMap())
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, traceJSON)

	return nil
}
