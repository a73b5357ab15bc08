package engine

import (
	"sync"

	"github.com/google/uuid"

	"github.com/roach88/crosslink/internal/linkage"
)

// GroupIDGenerator generates unique linkage group identifiers.
// Implemented by UUIDv7Generator (production) and FixedGenerator (tests).
type GroupIDGenerator interface {
	Generate() linkage.GroupID
}

// UUIDv7Generator generates time-sortable UUIDv7 group IDs.
//
// UUIDv7 embeds a timestamp in the most significant bits, making IDs
// sortable by creation time - helpful when reading journals and traces.
//
// Thread-safety: stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate creates a new UUIDv7 and returns it as a hyphenated string.
//
// Panics if UUID generation fails (should never happen in practice).
func (g UUIDv7Generator) Generate() linkage.GroupID {
	return linkage.GroupID(uuid.Must(uuid.NewV7()).String())
}

// FixedGenerator returns predetermined group IDs for testing.
//
// This enables deterministic group creation and golden trace comparison.
//
// Thread-safety: safe for concurrent use via internal mutex.
type FixedGenerator struct {
	mu  sync.Mutex
	ids []linkage.GroupID
	idx int
}

// NewFixedGenerator creates a generator that returns IDs in order.
//
// Example:
//
//	gen := NewFixedGenerator("g1", "g2")
//	gen.Generate() // "g1"
//	gen.Generate() // "g2"
//	gen.Generate() // panic: all IDs exhausted
func NewFixedGenerator(ids ...linkage.GroupID) *FixedGenerator {
	return &FixedGenerator{ids: ids}
}

// Generate returns the next predetermined ID.
//
// Panics when all IDs are consumed - a fail-fast signal that the test
// created more groups than it declared.
func (g *FixedGenerator) Generate() linkage.GroupID {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.idx >= len(g.ids) {
		panic("FixedGenerator: all IDs exhausted")
	}
	id := g.ids[g.idx]
	g.idx++
	return id
}
