package harness

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/roach88/crosslink/internal/linkage"
)

// AssertionError is returned when an assertion fails.
// It includes the event's trace entry to help debug the failure.
type AssertionError struct {
	Type     string     // Assertion type for categorization
	Expected string     // Human-readable expected outcome
	Actual   string     // Human-readable actual outcome
	Event    TraceEvent // The asserted event's trace entry
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nEvent trace:\n")
	fmt.Fprintf(&buf, "  at=%dms source=%s kind=%s suppressed=%t\n",
		e.Event.At, e.Event.Source, e.Event.Kind, e.Event.Suppressed)
	for i, u := range e.Event.Updates {
		fmt.Fprintf(&buf, "  update[%d] target=%s kind=%s payload=%v\n", i, u.Target, u.UpdateKind, u.Payload)
	}
	for i, errMsg := range e.Event.Errors {
		fmt.Fprintf(&buf, "  error[%d] %s\n", i, errMsg)
	}

	return buf.String()
}

// EvaluateAssertions checks every assertion against the trace and returns
// all failure messages. Evaluation never fail-fasts, so one run surfaces
// every broken expectation.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var failures []string

	for _, assertion := range assertions {
		event := result.Trace[assertion.Event]

		var err error
		switch assertion.Type {
		case AssertUpdateCount:
			err = assertUpdateCount(event, assertion)
		case AssertUpdateContains:
			err = assertUpdateContains(event, assertion)
		case AssertErrorCount:
			err = assertErrorCount(event, assertion)
		case AssertSuppressed:
			err = assertSuppressed(event, assertion)
		default:
			err = fmt.Errorf("unknown assertion type %q", assertion.Type)
		}

		if err != nil {
			failures = append(failures, err.Error())
		}
	}

	return failures
}

func assertUpdateCount(event TraceEvent, assertion Assertion) error {
	if len(event.Updates) == assertion.Count {
		return nil
	}
	return &AssertionError{
		Type:     AssertUpdateCount,
		Expected: fmt.Sprintf("%d updates", assertion.Count),
		Actual:   fmt.Sprintf("%d updates", len(event.Updates)),
		Event:    event,
	}
}

func assertUpdateContains(event TraceEvent, assertion Assertion) error {
	for _, u := range event.Updates {
		if u.Target == assertion.Target && matchPayload(u.Payload, assertion.Payload) {
			return nil
		}
	}
	return &AssertionError{
		Type:     AssertUpdateContains,
		Expected: fmt.Sprintf("update for %s with payload %v", assertion.Target, assertion.Payload),
		Actual:   "not found among the event's updates",
		Event:    event,
	}
}

func assertErrorCount(event TraceEvent, assertion Assertion) error {
	if len(event.Errors) == assertion.Count {
		return nil
	}
	return &AssertionError{
		Type:     AssertErrorCount,
		Expected: fmt.Sprintf("%d errors", assertion.Count),
		Actual:   fmt.Sprintf("%d errors", len(event.Errors)),
		Event:    event,
	}
}

func assertSuppressed(event TraceEvent, assertion Assertion) error {
	if event.Suppressed == assertion.Suppressed {
		return nil
	}
	return &AssertionError{
		Type:     AssertSuppressed,
		Expected: fmt.Sprintf("suppressed=%t", assertion.Suppressed),
		Actual:   fmt.Sprintf("suppressed=%t", event.Suppressed),
		Event:    event,
	}
}

// matchPayload reports whether every expected field appears in the actual
// payload with an equal value. Values are compared through canonical JSON
// so YAML's int/float variance for the same number never causes a spurious
// mismatch.
func matchPayload(actual, expected map[string]any) bool {
	for key, want := range expected {
		got, ok := actual[key]
		if !ok {
			return false
		}

		wantJSON, err := linkage.MarshalCanonical(want)
		if err != nil {
			return false
		}
		gotJSON, err := linkage.MarshalCanonical(got)
		if err != nil {
			return false
		}
		if !bytes.Equal(wantJSON, gotJSON) {
			return false
		}
	}
	return true
}
