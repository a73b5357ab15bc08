package engine

import (
	"log/slog"
	"time"

	"github.com/roach88/crosslink/internal/linkage"
)

// DefaultSlowWarn is the advisory latency budget for one Propagate call.
// Exceeding it logs a warning; it is never an enforced deadline - the
// call is bounded by at most four translations per group and performs no
// blocking I/O, so no cancellation path exists.
const DefaultSlowWarn = 200 * time.Millisecond

// Engine is the cross-view propagation engine for one session.
//
// An Engine is explicitly constructed and explicitly owned by its caller
// (the session transport) - there is no process-wide instance, so
// independent sessions run concurrently without cross-talk.
//
// Thread-safety model:
//   - Propagate(): safe from any goroutine
//   - CreateGroup()/RemoveGroup()/SetGroupStatus(): safe from any goroutine
//   - the Registry and LoopGuard carry their own locks; the Engine itself
//     holds no mutable state after construction
type Engine struct {
	registry   *Registry
	guard      *LoopGuard
	translator Translator
	nowFn      func() time.Time
	slowWarn   time.Duration
	logger     *slog.Logger

	// construction-only; consumed by New
	idGen       GroupIDGenerator
	guardWindow time.Duration
}

// Option configures an Engine at construction.
type Option func(*Engine)

// WithGuardWindow sets the loop-guard debounce window.
// Default: DefaultDebounceWindow (1s).
func WithGuardWindow(window time.Duration) Option {
	return func(e *Engine) {
		e.guardWindow = window
	}
}

// WithNowFunc sets the time source used for guard checks, update
// timestamps, and the slow-propagation budget. Tests drive a fake clock
// through this.
func WithNowFunc(nowFn func() time.Time) Option {
	return func(e *Engine) {
		e.nowFn = nowFn
	}
}

// WithTranslator replaces the default passthrough translator.
func WithTranslator(t Translator) Option {
	return func(e *Engine) {
		e.translator = t
	}
}

// WithSlowWarn sets the advisory latency budget for Propagate.
// Default: DefaultSlowWarn (200ms).
func WithSlowWarn(budget time.Duration) Option {
	return func(e *Engine) {
		e.slowWarn = budget
	}
}

// WithIDGenerator sets the group ID generator.
// Default: UUIDv7Generator.
func WithIDGenerator(g GroupIDGenerator) Option {
	return func(e *Engine) {
		e.idGen = g
	}
}

// WithLogger sets the structured logger.
// Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// New creates an Engine with a fresh registry and loop guard.
func New(opts ...Option) *Engine {
	e := &Engine{
		translator:  PassthroughTranslator{},
		nowFn:       time.Now,
		slowWarn:    DefaultSlowWarn,
		logger:      slog.Default(),
		idGen:       UUIDv7Generator{},
		guardWindow: DefaultDebounceWindow,
	}
	for _, opt := range opts {
		opt(e)
	}

	e.registry = NewRegistry(e.idGen, e.nowFn)
	e.guard = NewLoopGuard(e.guardWindow)
	return e
}

// CreateGroup registers a linkage group. See Registry.CreateGroup.
func (e *Engine) CreateGroup(members []linkage.ChartID, kind linkage.SyncKind, metadata map[string]string) (*linkage.Group, error) {
	group, err := e.registry.CreateGroup(members, kind, metadata)
	if err != nil {
		return nil, err
	}

	e.logger.Info("linkage group created",
		"group_id", group.ID,
		"kind", group.Kind.String(),
		"members", len(group.Members),
		"seq", group.Seq,
	)
	return group, nil
}

// RemoveGroup purges a linkage group. See Registry.RemoveGroup.
func (e *Engine) RemoveGroup(id linkage.GroupID) bool {
	removed := e.registry.RemoveGroup(id)
	if removed {
		e.logger.Info("linkage group removed", "group_id", id)
	}
	return removed
}

// SetGroupStatus updates a group's status. See Registry.SetStatus.
func (e *Engine) SetGroupStatus(id linkage.GroupID, status linkage.Status) bool {
	updated := e.registry.SetStatus(id, status)
	if updated {
		e.logger.Info("linkage group status changed",
			"group_id", id,
			"status", status.String(),
		)
	}
	return updated
}

// Registry returns the engine's linkage registry.
func (e *Engine) Registry() *Registry {
	return e.registry
}

// Guard returns the engine's loop guard.
// Callers use its read-only WouldSuppress to label no-op propagations.
func (e *Engine) Guard() *LoopGuard {
	return e.guard
}

// Propagate consumes one interaction event and fans out one update per
// other member of each affected group.
//
// Algorithm:
//  1. Suppress echoes via the loop guard - a suppressed event returns
//     (nil, nil); debounce is expected steady-state behavior, not an error.
//  2. Resolve the source chart's groups; a chart with no linkages also
//     returns (nil, nil).
//  3. Skip groups that are not Active or whose kind differs from the
//     event's - silently, so mixed-kind groups sharing a chart never
//     cross-talk.
//  4. For each remaining group, translate once per target member. A
//     translation failure becomes a PropagationError and processing
//     continues with the next target.
//  5. Return all successful updates plus all collected errors.
//
// Updates preserve member order within a group and creation order across
// groups. No deduplication is performed when two groups produce an update
// for the same target; idempotent application is the caller's concern.
func (e *Engine) Propagate(event linkage.InteractionEvent) ([]linkage.ChartUpdate, []*PropagationError) {
	start := e.nowFn()

	if e.guard.ShouldSuppress(event.SourceChart, event.Kind, event.CorrelationID, start) {
		e.logger.Debug("interaction suppressed",
			"source", event.SourceChart,
			"kind", event.Kind.String(),
			"correlation_id", event.CorrelationID,
		)
		return nil, nil
	}

	groups := e.registry.GroupsForChart(event.SourceChart)
	if len(groups) == 0 {
		return nil, nil
	}

	// Update timestamps come from the event when the caller stamped it,
	// otherwise from the propagation start.
	timestamp := event.Timestamp
	if timestamp.IsZero() {
		timestamp = start
	}

	var updates []linkage.ChartUpdate
	var errs []*PropagationError

	for _, group := range groups {
		if group.Status != linkage.StatusActive || group.Kind != event.Kind {
			continue
		}

		updateKind, ok := linkage.UpdateKindFor(event.Kind)
		if !ok {
			// Unreachable for groups created through the registry, which
			// rejects invalid kinds; kept so a corrupt event cannot abort
			// sibling groups.
			errs = append(errs, &PropagationError{
				GroupID: group.ID,
				Cause:   NewUnsupportedKindError(event.Kind),
			})
			continue
		}

		for _, member := range group.Members {
			if member == event.SourceChart {
				continue
			}

			translated, err := e.translator.Translate(event.Kind, member, event.Payload)
			if err != nil {
				errs = append(errs, &PropagationError{
					GroupID:     group.ID,
					TargetChart: member,
					Cause:       err,
				})
				e.logger.Warn("translation failed",
					"group_id", group.ID,
					"target", member,
					"kind", event.Kind.String(),
					"error", err,
				)
				continue
			}

			updates = append(updates, linkage.ChartUpdate{
				TargetChart: member,
				UpdateKind:  updateKind,
				Payload:     translated,
				SourceChart: event.SourceChart,
				Timestamp:   timestamp,
			})
		}
	}

	if elapsed := e.nowFn().Sub(start); elapsed > e.slowWarn {
		e.logger.Warn("slow propagation",
			"source", event.SourceChart,
			"kind", event.Kind.String(),
			"elapsed", elapsed,
			"budget", e.slowWarn,
		)
	}

	e.logger.Debug("propagation complete",
		"source", event.SourceChart,
		"kind", event.Kind.String(),
		"updates", len(updates),
		"errors", len(errs),
	)

	return updates, errs
}
