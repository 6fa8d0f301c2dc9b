package plant

import (
	"container/heap"
	"context"
	"fmt"
)

// Action is an event body.
type Action func(ctx context.Context) error

// event is a scheduled action. Secondary events run after every primary
// event of the same instant.
type event struct {
	at        float64
	secondary bool
	seq       int64
	name      string
	run       Action
}

// eventQueue implements heap.Interface ordered by (at, secondary, seq).
type eventQueue []*event

func (q eventQueue) Len() int { return len(q) }

func (q eventQueue) Less(i, j int) bool {
	if q[i].at != q[j].at {
		return q[i].at < q[j].at
	}
	if q[i].secondary != q[j].secondary {
		return !q[i].secondary
	}
	return q[i].seq < q[j].seq
}

func (q eventQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *eventQueue) Push(x any) { *q = append(*q, x.(*event)) }

func (q *eventQueue) Pop() any {
	old := *q
	n := len(old)
	ev := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return ev
}

// Scheduler is a single-threaded discrete-event clock.
//
// Time only moves forward when an event is popped. Scheduling into the past
// is an error.
type Scheduler struct {
	now float64
	seq int64
	q   eventQueue
}

// NewScheduler creates a scheduler starting at start.
func NewScheduler(start float64) *Scheduler {
	s := &Scheduler{now: start}
	heap.Init(&s.q)
	return s
}

// Now returns the current simulated time.
func (s *Scheduler) Now() float64 { return s.now }

// Schedule adds a primary event.
func (s *Scheduler) Schedule(at float64, name string, fn Action) error {
	return s.push(at, false, name, fn)
}

// ScheduleSecondary adds an event that runs after all primary events at at.
func (s *Scheduler) ScheduleSecondary(at float64, name string, fn Action) error {
	return s.push(at, true, name, fn)
}

func (s *Scheduler) push(at float64, secondary bool, name string, fn Action) error {
	if at < s.now {
		return fmt.Errorf("scheduling %s at %v: before current time %v", name, at, s.now)
	}
	s.seq++
	heap.Push(&s.q, &event{at: at, secondary: secondary, seq: s.seq, name: name, run: fn})
	return nil
}

// Len returns the number of queued events.
func (s *Scheduler) Len() int { return s.q.Len() }

// PendingNow reports whether a primary event is queued at the current instant.
func (s *Scheduler) PendingNow() bool {
	return s.q.Len() > 0 && s.q[0].at == s.now && !s.q[0].secondary
}

// Yield runs the next primary event of the current instant, if any.
func (s *Scheduler) Yield(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !s.PendingNow() {
		return nil
	}
	_, err := s.Step(ctx)
	return err
}

// Step pops and runs the next event, advancing time to it. It reports false
// when the queue is empty.
func (s *Scheduler) Step(ctx context.Context) (bool, error) {
	if s.q.Len() == 0 {
		return false, nil
	}
	ev := heap.Pop(&s.q).(*event)
	s.now = ev.at
	if err := ev.run(ctx); err != nil {
		return true, fmt.Errorf("event %s at %v: %w", ev.name, ev.at, err)
	}
	return true, nil
}

// Run processes events until the queue is empty, ctx is cancelled or an
// event fails.
func (s *Scheduler) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		ok, err := s.Step(ctx)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
	}
}
