package harness

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/roach88/crosslink/internal/compiler"
	"github.com/roach88/crosslink/internal/engine"
	"github.com/roach88/crosslink/internal/linkage"
	"github.com/roach88/crosslink/internal/testutil"
)

// scenarioEpoch is the fake clock's starting instant. Event At offsets are
// relative to it, so every run of the same scenario sees identical times.
var scenarioEpoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// TraceEvent is one propagated interaction with everything it produced.
type TraceEvent struct {
	At            int64            `json:"at"`
	Source        string           `json:"source"`
	Kind          string           `json:"kind"`
	CorrelationID string           `json:"correlation_id"`
	Suppressed    bool             `json:"suppressed"`
	Updates       []UpdateSnapshot `json:"updates"`
	Errors        []string         `json:"errors,omitempty"`
}

// UpdateSnapshot is one chart update in serializable form.
type UpdateSnapshot struct {
	Target     string         `json:"target"`
	UpdateKind string         `json:"update_kind"`
	Payload    map[string]any `json:"payload"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall success: every assertion held.
	Pass bool `json:"pass"`

	// Groups lists the created group IDs in creation order.
	Groups []string `json:"groups"`

	// Trace contains one entry per scenario event, in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains assertion failure messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Groups: []string{},
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds an assertion failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Recorder receives each propagated event with its full outcome.
// The CLI uses this to journal scenario runs; tests pass nil.
type Recorder interface {
	Record(seq int64, event linkage.InteractionEvent, suppressed bool, updates []linkage.ChartUpdate, errs []*engine.PropagationError) error
}

// Run executes a scenario against a fresh engine and returns the result.
//
// Determinism: the engine runs with a fake clock pinned to the scenario's
// At offsets and a sequential group ID generator, so the same scenario
// always produces a byte-identical trace.
//
// Execution flow:
//  1. Build an engine with deterministic helpers
//  2. Create groups from linkage files, then inline groups
//  3. Propagate each event at its At offset, peeking the loop guard first
//     so suppressed echoes are labeled in the trace
//  4. Evaluate assertions against the trace
func Run(scenario *Scenario) (*Result, error) {
	return RunWithRecorder(scenario, nil)
}

// RunWithRecorder is Run with a recorder receiving every propagated event.
// Seq numbers start at 1 and follow scenario event order.
func RunWithRecorder(scenario *Scenario, rec Recorder) (*Result, error) {
	clock := testutil.NewFakeNow(scenarioEpoch)

	eng := engine.New(
		engine.WithNowFunc(clock.Now),
		engine.WithIDGenerator(testutil.NewSeqIDGenerator()),
		engine.WithTranslator(scenarioTranslator(scenario.FailTargets)),
		engine.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)

	result := NewResult()

	for _, path := range scenario.Linkages {
		defs, err := compiler.LoadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load linkages: %w", err)
		}
		for _, def := range defs {
			group, err := eng.CreateGroup(def.Members, def.Kind, def.Metadata)
			if err != nil {
				return nil, fmt.Errorf("linkage %q: %w", def.Name, err)
			}
			result.Groups = append(result.Groups, string(group.ID))
		}
	}

	for i, step := range scenario.Groups {
		members := make([]linkage.ChartID, len(step.Members))
		for j, m := range step.Members {
			members[j] = linkage.ChartID(m)
		}
		kind, err := linkage.ParseSyncKind(step.Kind)
		if err != nil {
			return nil, fmt.Errorf("groups[%d]: %w", i, err)
		}
		group, err := eng.CreateGroup(members, kind, step.Metadata)
		if err != nil {
			return nil, fmt.Errorf("groups[%d]: %w", i, err)
		}
		result.Groups = append(result.Groups, string(group.ID))
	}

	for i, step := range scenario.Events {
		clock.Set(scenarioEpoch.Add(time.Duration(step.At) * time.Millisecond))

		kind, err := linkage.ParseSyncKind(step.Kind)
		if err != nil {
			return nil, fmt.Errorf("events[%d]: %w", i, err)
		}
		payload, err := linkage.DecodePayload(kind, step.Payload)
		if err != nil {
			return nil, fmt.Errorf("events[%d]: %w", i, err)
		}

		event := linkage.InteractionEvent{
			SourceChart:   linkage.ChartID(step.Source),
			Kind:          kind,
			Payload:       payload,
			Timestamp:     clock.Now(),
			CorrelationID: step.CorrelationID,
		}

		// Peek before Propagate records the key, so the trace can label
		// suppressed echoes instead of showing an unexplained no-op.
		suppressed := eng.Guard().WouldSuppress(event.SourceChart, event.Kind, event.CorrelationID, clock.Now())

		updates, perrs := eng.Propagate(event)

		if rec != nil {
			if err := rec.Record(int64(i+1), event, suppressed, updates, perrs); err != nil {
				return nil, fmt.Errorf("events[%d]: failed to record: %w", i, err)
			}
		}

		trace := TraceEvent{
			At:            step.At,
			Source:        step.Source,
			Kind:          kind.String(),
			CorrelationID: step.CorrelationID,
			Suppressed:    suppressed,
			Updates:       []UpdateSnapshot{},
		}
		for _, u := range updates {
			trace.Updates = append(trace.Updates, UpdateSnapshot{
				Target:     string(u.TargetChart),
				UpdateKind: u.UpdateKind.String(),
				Payload:    linkage.EncodePayload(u.Payload),
			})
		}
		for _, perr := range perrs {
			trace.Errors = append(trace.Errors, perr.Error())
		}
		result.Trace = append(result.Trace, trace)
	}

	for _, errMsg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(errMsg)
	}

	return result, nil
}

// scenarioTranslator returns the engine translator for a scenario:
// passthrough, except that translations for fail_targets charts fail.
func scenarioTranslator(failTargets []string) engine.Translator {
	if len(failTargets) == 0 {
		return engine.PassthroughTranslator{}
	}

	failing := make(map[linkage.ChartID]bool, len(failTargets))
	for _, t := range failTargets {
		failing[linkage.ChartID(t)] = true
	}

	return engine.TranslateFunc(func(kind linkage.SyncKind, target linkage.ChartID, payload linkage.Payload) (linkage.Payload, error) {
		if failing[target] {
			return nil, fmt.Errorf("translation unavailable for %s", target)
		}
		return engine.PassthroughTranslator{}.Translate(kind, target, payload)
	})
}
