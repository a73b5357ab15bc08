package engine

import (
	"sync"
	"time"

	"github.com/roach88/crosslink/internal/linkage"
)

// DefaultDebounceWindow is the default suppression window for repeated
// interaction events.
const DefaultDebounceWindow = time.Second

// LoopGuard suppresses echo events to prevent infinite propagation loops.
//
// Loops occur when a target chart re-emits an interaction event in
// response to an applied update - a zoom widget that fires its own zoom
// event when redrawn, for example. Without suppression two linked charts
// would ping-pong the same zoom forever.
//
// The guard keys on (source chart, kind, correlation id) - the source and
// the kind, not the target - because the loop risk is "the same logical
// action firing again", not "the same target receiving twice". A repeat
// of the same key inside the debounce window is suppressed; expired
// entries are evicted lazily on every call.
type LoopGuard struct {
	mu     sync.Mutex
	window time.Duration
	seen   map[guardKey]time.Time
}

type guardKey struct {
	source      linkage.ChartID
	kind        linkage.SyncKind
	correlation string
}

// NewLoopGuard creates a guard with the given debounce window.
// A non-positive window falls back to DefaultDebounceWindow.
func NewLoopGuard(window time.Duration) *LoopGuard {
	if window <= 0 {
		window = DefaultDebounceWindow
	}
	return &LoopGuard{
		window: window,
		seen:   make(map[guardKey]time.Time),
	}
}

// ShouldSuppress reports whether an event is a duplicate/echo inside the
// debounce window. On the first occurrence the key is recorded with now
// and false is returned; the check-then-record step is a single critical
// section, so N concurrent duplicates admit exactly one event.
//
// Thread-safe: can be called concurrently.
func (g *LoopGuard) ShouldSuppress(source linkage.ChartID, kind linkage.SyncKind, correlationID string, now time.Time) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.evictExpired(now)

	key := guardKey{source: source, kind: kind, correlation: correlationID}
	if _, ok := g.seen[key]; ok {
		return true
	}

	g.seen[key] = now
	return false
}

// WouldSuppress is the read-only form of ShouldSuppress: it reports
// whether the event would be suppressed without recording anything.
// Used by callers that observe propagation (journal recorders, the
// scenario harness) to label a no-op result as a debounce rather than
// "no linkages apply".
//
// Thread-safe: can be called concurrently.
func (g *LoopGuard) WouldSuppress(source linkage.ChartID, kind linkage.SyncKind, correlationID string, now time.Time) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	key := guardKey{source: source, kind: kind, correlation: correlationID}
	seen, ok := g.seen[key]
	return ok && now.Sub(seen) < g.window
}

// Window returns the configured debounce window.
func (g *LoopGuard) Window() time.Duration {
	return g.window
}

// Len returns the number of live debounce records.
// Used for testing and introspection.
func (g *LoopGuard) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.seen)
}

// evictExpired removes entries older than the window. Callers must hold mu.
//
// The table is bounded by the number of distinct interactions inside one
// window (a handful per session), so a full sweep per call is cheap.
func (g *LoopGuard) evictExpired(now time.Time) {
	for key, seen := range g.seen {
		if now.Sub(seen) >= g.window {
			delete(g.seen, key)
		}
	}
}
