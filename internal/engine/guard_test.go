package engine

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/crosslink/internal/linkage"
)

func TestLoopGuard_FirstOccurrence(t *testing.T) {
	g := NewLoopGuard(time.Second)
	now := time.Unix(1000, 0)

	suppressed := g.ShouldSuppress("chart1", linkage.KindZoom, "c1", now)
	assert.False(t, suppressed, "first occurrence should not be suppressed")
}

func TestLoopGuard_DuplicateWithinWindow(t *testing.T) {
	g := NewLoopGuard(time.Second)
	now := time.Unix(1000, 0)

	require.False(t, g.ShouldSuppress("chart1", linkage.KindZoom, "c1", now))
	assert.True(t, g.ShouldSuppress("chart1", linkage.KindZoom, "c1", now.Add(500*time.Millisecond)),
		"same key inside the window should be suppressed")
}

func TestLoopGuard_ReadmitsAfterWindow(t *testing.T) {
	g := NewLoopGuard(time.Second)
	now := time.Unix(1000, 0)

	require.False(t, g.ShouldSuppress("chart1", linkage.KindZoom, "c1", now))
	assert.False(t, g.ShouldSuppress("chart1", linkage.KindZoom, "c1", now.Add(time.Second)),
		"same key at exactly the window boundary should be re-admitted")
}

func TestLoopGuard_DistinctKeys(t *testing.T) {
	g := NewLoopGuard(time.Second)
	now := time.Unix(1000, 0)

	require.False(t, g.ShouldSuppress("chart1", linkage.KindZoom, "c1", now))

	// Different source, kind, or correlation id each make a distinct key.
	assert.False(t, g.ShouldSuppress("chart2", linkage.KindZoom, "c1", now))
	assert.False(t, g.ShouldSuppress("chart1", linkage.KindFilter, "c1", now))
	assert.False(t, g.ShouldSuppress("chart1", linkage.KindZoom, "c2", now))
}

func TestLoopGuard_LazyEviction(t *testing.T) {
	g := NewLoopGuard(time.Second)
	now := time.Unix(1000, 0)

	g.ShouldSuppress("chart1", linkage.KindZoom, "c1", now)
	g.ShouldSuppress("chart2", linkage.KindZoom, "c2", now)
	require.Equal(t, 2, g.Len())

	// A later call for a fresh key sweeps the expired records.
	g.ShouldSuppress("chart3", linkage.KindZoom, "c3", now.Add(2*time.Second))
	assert.Equal(t, 1, g.Len(), "expired records should be evicted lazily")
}

func TestLoopGuard_WouldSuppress_DoesNotRecord(t *testing.T) {
	g := NewLoopGuard(time.Second)
	now := time.Unix(1000, 0)

	assert.False(t, g.WouldSuppress("chart1", linkage.KindZoom, "c1", now))
	assert.Equal(t, 0, g.Len(), "peek must not record")

	g.ShouldSuppress("chart1", linkage.KindZoom, "c1", now)
	assert.True(t, g.WouldSuppress("chart1", linkage.KindZoom, "c1", now.Add(time.Millisecond)))
	assert.False(t, g.WouldSuppress("chart1", linkage.KindZoom, "c1", now.Add(2*time.Second)),
		"peek respects the window")
}

func TestLoopGuard_DefaultWindow(t *testing.T) {
	g := NewLoopGuard(0)
	assert.Equal(t, DefaultDebounceWindow, g.Window())
}

func TestLoopGuard_ConcurrentDuplicates_SingleWinner(t *testing.T) {
	g := NewLoopGuard(time.Second)
	now := time.Unix(1000, 0)

	const n = 32
	var count int64
	var mu sync.Mutex
	var wg sync.WaitGroup

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if !g.ShouldSuppress("chart1", linkage.KindZoom, "c1", now) {
				mu.Lock()
				count++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, count, "exactly one of N concurrent duplicates should be admitted")
}
