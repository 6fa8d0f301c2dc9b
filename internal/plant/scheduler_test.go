package plant

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recordTo(log *[]string, name string) Action {
	return func(context.Context) error {
		*log = append(*log, name)
		return nil
	}
}

func TestScheduler_OrdersByTimeThenSequence(t *testing.T) {
	s := NewScheduler(0)
	var log []string

	require.NoError(t, s.Schedule(2, "late", recordTo(&log, "late")))
	require.NoError(t, s.Schedule(1, "first", recordTo(&log, "first")))
	require.NoError(t, s.Schedule(1, "second", recordTo(&log, "second")))

	require.NoError(t, s.Run(context.Background()))
	assert.Equal(t, []string{"first", "second", "late"}, log)
	assert.Equal(t, 2.0, s.Now())
	assert.Equal(t, 0, s.Len())
}

func TestScheduler_SecondaryRunsAfterPrimary(t *testing.T) {
	s := NewScheduler(0)
	var log []string

	require.NoError(t, s.ScheduleSecondary(1, "resolve", recordTo(&log, "resolve")))
	require.NoError(t, s.Schedule(1, "arrive", recordTo(&log, "arrive")))
	require.NoError(t, s.Schedule(0.5, "early", recordTo(&log, "early")))

	require.NoError(t, s.Run(context.Background()))
	assert.Equal(t, []string{"early", "arrive", "resolve"}, log)
}

func TestScheduler_RejectsPast(t *testing.T) {
	s := NewScheduler(5)
	err := s.Schedule(4, "stale", recordTo(new([]string), "stale"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "before current time")
}

func TestScheduler_PendingNowIgnoresSecondary(t *testing.T) {
	s := NewScheduler(0)
	require.NoError(t, s.ScheduleSecondary(0, "resolve", recordTo(new([]string), "resolve")))
	assert.False(t, s.PendingNow())

	require.NoError(t, s.Schedule(0, "arrive", recordTo(new([]string), "arrive")))
	assert.True(t, s.PendingNow())

	require.NoError(t, s.Schedule(3, "later", recordTo(new([]string), "later")))
	require.NoError(t, s.Yield(context.Background()))
	assert.False(t, s.PendingNow())
	assert.Equal(t, 2, s.Len())
	assert.Equal(t, 0.0, s.Now())
}

func TestScheduler_YieldWithoutPendingIsNoOp(t *testing.T) {
	s := NewScheduler(0)
	require.NoError(t, s.Schedule(1, "later", recordTo(new([]string), "later")))

	require.NoError(t, s.Yield(context.Background()))
	assert.Equal(t, 1, s.Len())
	assert.Equal(t, 0.0, s.Now())
}

func TestScheduler_EventsCanScheduleEvents(t *testing.T) {
	s := NewScheduler(0)
	var log []string

	require.NoError(t, s.Schedule(1, "parent", func(context.Context) error {
		log = append(log, "parent")
		return s.Schedule(1, "child", recordTo(&log, "child"))
	}))

	require.NoError(t, s.Run(context.Background()))
	assert.Equal(t, []string{"parent", "child"}, log)
}

func TestScheduler_StopsOnError(t *testing.T) {
	s := NewScheduler(0)
	boom := errors.New("boom")
	var log []string

	require.NoError(t, s.Schedule(1, "fails", func(context.Context) error { return boom }))
	require.NoError(t, s.Schedule(2, "never", recordTo(&log, "never")))

	err := s.Run(context.Background())
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "event fails at 1")
	assert.Empty(t, log)
}

func TestScheduler_RunHonoursContext(t *testing.T) {
	s := NewScheduler(0)
	require.NoError(t, s.Schedule(1, "x", recordTo(new([]string), "x")))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, s.Run(ctx), context.Canceled)
	assert.ErrorIs(t, s.Yield(ctx), context.Canceled)
	assert.Equal(t, 1, s.Len())
}
