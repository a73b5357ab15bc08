// Package engine implements the cross-view propagation engine.
//
// The engine is the heart of crosslink - it receives interaction events
// from source charts, resolves affected linkage groups, suppresses echo
// loops, translates payloads, and fans out one update per target chart.
//
// ARCHITECTURE:
//
// Synchronous fan-out:
// The engine has no internal worker goroutines or background loop. All
// work happens inside the caller's Propagate() call, which is bounded by
// at most MaxMembers-1 translations per group and performs no blocking
// I/O. Concurrency arises only because multiple charts in a session can
// fire events near-simultaneously, so Propagate() may run concurrently
// against the shared Registry and LoopGuard.
//
// Shared state:
//   - Registry: forward (group id -> group) and reverse (chart -> groups)
//     indices under one RWMutex. Readers never observe a half-updated
//     index pair.
//   - LoopGuard: debounce table under one mutex; the check-then-record
//     step is a single critical section so concurrent duplicates admit
//     exactly one event.
//   - Translator: stateless, invoked without coordination.
//
// Error model:
// Per-target translation failures become PropagationError values in the
// returned error list and never abort sibling targets or sibling groups.
// Configuration mistakes (bad membership, unknown kinds) surface
// immediately as ConfigError from the call that caused them. No failure
// path is silently dropped.
//
// Ordering:
// Within a group, updates follow the group's fixed member order. Across
// groups, updates follow group-creation order (the registry's logical
// clock), never time-of-call order. No deduplication is performed when a
// chart belongs to multiple active groups of the same kind.
package engine
