package testutil

import (
	"fmt"
	"sync"

	"github.com/roach88/crosslink/internal/linkage"
)

// SeqIDGenerator generates sequential group IDs: "g1", "g2", "g3", ...
//
// Unlike engine.FixedGenerator, which panics when its supply runs out,
// SeqIDGenerator never exhausts. The scenario harness uses it so golden
// traces carry stable group IDs regardless of how many groups a scenario
// declares.
//
// Thread-safety: all methods are safe for concurrent use via internal mutex.
type SeqIDGenerator struct {
	mu   sync.Mutex
	next int
}

// NewSeqIDGenerator creates a generator whose first ID is "g1".
func NewSeqIDGenerator() *SeqIDGenerator {
	return &SeqIDGenerator{next: 1}
}

// Generate returns the next sequential group ID.
//
// Implements engine.GroupIDGenerator.
func (g *SeqIDGenerator) Generate() linkage.GroupID {
	g.mu.Lock()
	defer g.mu.Unlock()
	id := linkage.GroupID(fmt.Sprintf("g%d", g.next))
	g.next++
	return id
}
