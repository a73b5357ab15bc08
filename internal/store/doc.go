// Package store provides SQLite-backed durable storage for propagation
// traces.
//
// The journal is an append-only record of one session:
//   - Interactions: source events, including suppressed echoes
//   - Updates: the chart updates each interaction fanned out
//   - Propagation Errors: per-target translation failures
//
// Ordering uses the caller's seq INTEGER (logical counter), never
// timestamps, so two journals of the same scenario are comparable
// regardless of wall time. All payload columns hold canonical JSON.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
