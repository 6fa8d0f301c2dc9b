package testutil

import (
	"context"
	"sync"
)

// ManualClock is a simulation clock driven by hand from tests.
//
// Tests set how many events remain at the current instant; each Yield
// consumes one. It satisfies the router's Clock contract without a real
// event queue.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type ManualClock struct {
	mu      sync.Mutex
	now     float64
	pending int
	yields  int
}

// NewManualClock creates a clock at now with no pending events.
func NewManualClock(now float64) *ManualClock {
	return &ManualClock{now: now}
}

// Now returns the current simulated time.
func (c *ManualClock) Now() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// PendingNow reports whether events remain at the current instant.
func (c *ManualClock) PendingNow() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending > 0
}

// Yield consumes one pending event. Returns ctx.Err() if ctx is done.
func (c *ManualClock) Yield(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending > 0 {
		c.pending--
	}
	c.yields++
	return nil
}

// SetPending sets the number of events left at the current instant.
func (c *ManualClock) SetPending(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = n
}

// Advance moves time to at and drops any pending events.
func (c *ManualClock) Advance(at float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = at
	c.pending = 0
}

// Yields returns how many times Yield was called.
func (c *ManualClock) Yields() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.yields
}

// FixedIDGenerator returns the same cycle ID every time.
//
// Useful when every cycle of a test should share one ID in logs.
// If id is empty, Generate() returns "cycle-fixed".
type FixedIDGenerator struct {
	id string
}

// NewFixedIDGenerator creates a fixed ID generator.
func NewFixedIDGenerator(id string) *FixedIDGenerator {
	if id == "" {
		id = "cycle-fixed"
	}
	return &FixedIDGenerator{id: id}
}

// Generate returns the fixed ID.
func (g *FixedIDGenerator) Generate() string {
	return g.id
}
