package testutil

import (
	"sync"
	"time"
)

// FakeNow provides a thread-safe controllable time source for tests.
//
// Its Now method satisfies the nowFn hook on engine.WithNowFunc, so tests
// and the scenario harness can step time explicitly instead of sleeping
// through debounce windows.
//
// Thread-safety: all methods are safe for concurrent use via internal mutex.
type FakeNow struct {
	mu  sync.Mutex
	now time.Time
}

// NewFakeNow creates a fake time source frozen at the given instant.
func NewFakeNow(start time.Time) *FakeNow {
	return &FakeNow{now: start}
}

// Now returns the current fake instant. Time never advances on its own.
func (f *FakeNow) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

// Set moves the fake clock to an absolute instant.
func (f *FakeNow) Set(t time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = t
}

// Advance moves the fake clock forward by d.
//
// Negative d moves it backward; the harness never does that, but tests
// exercising clock skew can.
func (f *FakeNow) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}
