package testutil

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManualClock_StartsIdle(t *testing.T) {
	clock := NewManualClock(7)
	assert.Equal(t, 7.0, clock.Now())
	assert.False(t, clock.PendingNow())
	assert.Equal(t, 0, clock.Yields())
}

func TestManualClock_YieldConsumesPending(t *testing.T) {
	clock := NewManualClock(0)
	clock.SetPending(2)

	require.NoError(t, clock.Yield(context.Background()))
	assert.True(t, clock.PendingNow())

	require.NoError(t, clock.Yield(context.Background()))
	assert.False(t, clock.PendingNow())
	assert.Equal(t, 2, clock.Yields())
}

func TestManualClock_YieldHonoursContext(t *testing.T) {
	clock := NewManualClock(0)
	clock.SetPending(1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, clock.Yield(ctx), context.Canceled)
	assert.True(t, clock.PendingNow(), "cancelled yield must not consume an event")
}

func TestManualClock_AdvanceDropsPending(t *testing.T) {
	clock := NewManualClock(0)
	clock.SetPending(3)
	clock.Advance(5)

	assert.Equal(t, 5.0, clock.Now())
	assert.False(t, clock.PendingNow())
}

func TestManualClock_ThreadSafe(t *testing.T) {
	clock := NewManualClock(0)
	clock.SetPending(1000)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = clock.Yield(context.Background())
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1000, clock.Yields())
	assert.False(t, clock.PendingNow())
}

func TestFixedIDGenerator(t *testing.T) {
	assert.Equal(t, "cycle-fixed", NewFixedIDGenerator("").Generate())

	gen := NewFixedIDGenerator("c-1")
	assert.Equal(t, "c-1", gen.Generate())
	assert.Equal(t, "c-1", gen.Generate())
}
