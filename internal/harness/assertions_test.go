package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func traceFixture() *Result {
	return &Result{
		Pass: true,
		Trace: []TraceEvent{
			{
				At:            0,
				Source:        "a",
				Kind:          "filter",
				CorrelationID: "c1",
				Updates: []UpdateSnapshot{
					{
						Target:     "b",
						UpdateKind: "ApplyFilter",
						Payload:    map[string]any{"field": "region", "operator": "eq", "value": "EMEA"},
					},
				},
				Errors: []string{"propagation to c failed"},
			},
			{
				At:            300,
				Source:        "a",
				Kind:          "filter",
				CorrelationID: "c1",
				Suppressed:    true,
				Updates:       []UpdateSnapshot{},
			},
		},
	}
}

func TestEvaluateAssertionsAllPass(t *testing.T) {
	failures := EvaluateAssertions(traceFixture(), []Assertion{
		{Type: AssertUpdateCount, Event: 0, Count: 1},
		{Type: AssertUpdateContains, Event: 0, Target: "b", Payload: map[string]any{"field": "region"}},
		{Type: AssertErrorCount, Event: 0, Count: 1},
		{Type: AssertSuppressed, Event: 1, Suppressed: true},
		{Type: AssertUpdateCount, Event: 1, Count: 0},
	})
	assert.Empty(t, failures)
}

func TestEvaluateAssertionsCollectsAllFailures(t *testing.T) {
	failures := EvaluateAssertions(traceFixture(), []Assertion{
		{Type: AssertUpdateCount, Event: 0, Count: 7},
		{Type: AssertSuppressed, Event: 0, Suppressed: true},
	})
	require.Len(t, failures, 2, "evaluation does not fail-fast")
	assert.Contains(t, failures[0], "7 updates")
	assert.Contains(t, failures[1], "suppressed=true")
}

func TestAssertUpdateContainsWrongTarget(t *testing.T) {
	failures := EvaluateAssertions(traceFixture(), []Assertion{
		{Type: AssertUpdateContains, Event: 0, Target: "z"},
	})
	require.Len(t, failures, 1)
	assert.Contains(t, failures[0], "update for z")
}

func TestAssertUpdateContainsPayloadMismatch(t *testing.T) {
	failures := EvaluateAssertions(traceFixture(), []Assertion{
		{Type: AssertUpdateContains, Event: 0, Target: "b", Payload: map[string]any{"field": "country"}},
	})
	assert.Len(t, failures, 1)
}

func TestAssertionErrorIncludesTrace(t *testing.T) {
	failures := EvaluateAssertions(traceFixture(), []Assertion{
		{Type: AssertErrorCount, Event: 0, Count: 0},
	})
	require.Len(t, failures, 1)
	assert.Contains(t, failures[0], "Expected: 0 errors")
	assert.Contains(t, failures[0], "Actual: 1 errors")
	assert.Contains(t, failures[0], "source=a")
}

func TestMatchPayloadNumericEquivalence(t *testing.T) {
	// YAML may parse the same number as int or float64 depending on shape.
	actual := map[string]any{"x_max": float64(10)}
	assert.True(t, matchPayload(actual, map[string]any{"x_max": 10}))
	assert.True(t, matchPayload(actual, map[string]any{"x_max": float64(10)}))
	assert.False(t, matchPayload(actual, map[string]any{"x_max": 11}))
}

func TestMatchPayloadMissingKey(t *testing.T) {
	assert.False(t, matchPayload(map[string]any{}, map[string]any{"field": "f"}))
}

func TestMatchPayloadEmptyExpectation(t *testing.T) {
	assert.True(t, matchPayload(map[string]any{"field": "f"}, nil), "no expected fields always matches")
}
