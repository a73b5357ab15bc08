// Package linkage defines the data model for cross-view synchronization:
// the closed enumerations (sync kind, linkage status, update kind), the
// LinkageGroup configuration unit, the transient InteractionEvent and
// ChartUpdate messages, and the tagged payload variants they carry.
//
// Payloads are a sealed variant type - one shape per sync kind - so the
// translator's exhaustiveness is checked by the compiler instead of
// relying on runtime key lookups into untyped maps.
//
// The package also provides canonical JSON serialization used wherever a
// payload or trace must serialize deterministically (journal rows, golden
// trace files). See canonical.go.
//
// Everything in this package is a pure data structure with no I/O.
package linkage
