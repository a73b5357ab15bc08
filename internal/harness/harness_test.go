package harness

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadTestScenario(t *testing.T, name string) *Scenario {
	t.Helper()
	s, err := LoadScenario(filepath.Join("testdata", "scenarios", name+".yaml"))
	require.NoError(t, err)
	return s
}

func TestRunTimeRangePair(t *testing.T) {
	result, err := Run(loadTestScenario(t, "timerange-pair"))
	require.NoError(t, err)

	assert.True(t, result.Pass, "assertion failures: %v", result.Errors)
	assert.Equal(t, []string{"g1"}, result.Groups)

	require.Len(t, result.Trace, 1)
	ev := result.Trace[0]
	assert.False(t, ev.Suppressed)
	require.Len(t, ev.Updates, 1)
	assert.Equal(t, "chart2", ev.Updates[0].Target)
	assert.Equal(t, "ApplyTimeRange", ev.Updates[0].UpdateKind)
	assert.Equal(t, "2024-01-01", ev.Updates[0].Payload["from"])
	assert.Empty(t, ev.Errors)
}

func TestRunEchoSuppression(t *testing.T) {
	result, err := Run(loadTestScenario(t, "echo-suppression"))
	require.NoError(t, err)

	assert.True(t, result.Pass, "assertion failures: %v", result.Errors)
	require.Len(t, result.Trace, 3)

	assert.False(t, result.Trace[0].Suppressed)
	assert.Len(t, result.Trace[0].Updates, 1)

	assert.True(t, result.Trace[1].Suppressed, "echo inside the window is suppressed")
	assert.Empty(t, result.Trace[1].Updates)

	assert.False(t, result.Trace[2].Suppressed, "the window has expired by 1500ms")
	assert.Len(t, result.Trace[2].Updates, 1)
}

func TestRunFaultyTarget(t *testing.T) {
	result, err := Run(loadTestScenario(t, "faulty-target"))
	require.NoError(t, err)

	assert.True(t, result.Pass, "assertion failures: %v", result.Errors)
	require.Len(t, result.Trace, 1)

	ev := result.Trace[0]
	require.Len(t, ev.Updates, 1, "the healthy sibling still gets its update")
	assert.Equal(t, "c", ev.Updates[0].Target)
	require.Len(t, ev.Errors, 1)
	assert.Contains(t, ev.Errors[0], "b")
}

func TestRunDeclaredLinkages(t *testing.T) {
	result, err := Run(loadTestScenario(t, "declared-linkages"))
	require.NoError(t, err)

	assert.True(t, result.Pass, "assertion failures: %v", result.Errors)
	assert.Equal(t, []string{"g1"}, result.Groups)
	require.Len(t, result.Trace, 1)
	require.Len(t, result.Trace[0].Updates, 1)
	assert.Equal(t, "orders", result.Trace[0].Updates[0].Target)
}

func TestRunFailedAssertionFailsResult(t *testing.T) {
	s := loadTestScenario(t, "timerange-pair")
	s.Assertions = append(s.Assertions, Assertion{
		Type:  AssertUpdateCount,
		Event: 0,
		Count: 5,
	})

	result, err := Run(s)
	require.NoError(t, err, "assertion failures are reported in the result, not as errors")
	assert.False(t, result.Pass)
	require.NotEmpty(t, result.Errors)
	assert.Contains(t, result.Errors[0], "5 updates")
}

func TestRunEventForUnlinkedChart(t *testing.T) {
	s := loadTestScenario(t, "timerange-pair")
	s.Events[0].Source = "unrelated"
	s.Assertions = []Assertion{{Type: AssertUpdateCount, Event: 0, Count: 0}}

	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass)
	assert.Empty(t, result.Trace[0].Updates)
}

func TestRunMissingLinkageFile(t *testing.T) {
	s := loadTestScenario(t, "timerange-pair")
	s.Linkages = []string{filepath.Join(t.TempDir(), "nope.cue")}

	_, err := Run(s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load linkages")
}

func TestRunDeterministicTraces(t *testing.T) {
	s := loadTestScenario(t, "echo-suppression")

	first, err := Run(s)
	require.NoError(t, err)
	second, err := Run(s)
	require.NoError(t, err)

	assert.Equal(t, first.Trace, second.Trace, "same scenario, byte-identical trace")
	assert.Equal(t, first.Groups, second.Groups)
}
