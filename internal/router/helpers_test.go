package router

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/oprouter/internal/layout"
	"github.com/roach88/oprouter/internal/plant"
)

// buildPlant parses a layout document and builds a plant from it.
func buildPlant(t *testing.T, doc string) *plant.Plant {
	t.Helper()
	l, err := layout.Parse([]byte(doc))
	require.NoError(t, err)
	p, err := plant.Build(l)
	require.NoError(t, err)
	return p
}

// newTestRouter creates a router over p with deterministic cycle IDs.
func newTestRouter(p *plant.Plant, opts ...Option) *Router {
	opts = append([]Option{WithIDGenerator(NewSequentialGenerator("c"))}, opts...)
	return New(p, p, opts...)
}

func station(t *testing.T, p *plant.Plant, id string) *plant.Station {
	t.Helper()
	s, ok := p.Station(id)
	require.True(t, ok, "station %s", id)
	return s
}

func operator(t *testing.T, p *plant.Plant, id string) *plant.Operator {
	t.Helper()
	op, ok := p.Operator(id)
	require.True(t, ok, "operator %s", id)
	return op
}

func job(t *testing.T, p *plant.Plant, id string) *plant.Job {
	t.Helper()
	j, ok := p.Job(id)
	require.True(t, ok, "job %s", id)
	return j
}

// captureRecorder collects cycle results for assertions.
type captureRecorder struct {
	mu       sync.Mutex
	outcomes []*Outcome
	failures []error
}

func (r *captureRecorder) CycleCompleted(o *Outcome) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, o)
}

func (r *captureRecorder) CycleFailed(_ string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures = append(r.failures, err)
}

func (r *captureRecorder) completed() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.outcomes)
}

func (r *captureRecorder) failed() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.failures)
}

// ============================================================================
// Layouts
// ============================================================================

const simpleLine = `
name: simple-line
now: 2
stations:
  - id: Q1
    kind: queue
    next: [M1]
  - id: M1
    kind: machine
    operations: [Load]
    pool: [W1]
operators:
  - id: W1
jobs:
  - id: J1
    station: Q1
`

const brokerWait = `
name: broker-wait
stations:
  - id: M1
    kind: machine
    waiting_for_operator: true
    pool: [W1]
operators:
  - id: W1
jobs:
  - id: J1
    station: M1
`

const managedConflict = `
name: managed-conflict
stations:
  - id: Q
    kind: queue
    capacity: 5
    next: [S]
  - id: S
    kind: machine
    operations: [Load]
operators:
  - id: A
  - id: B
jobs:
  - id: J1
    station: Q
    manager: A
  - id: J2
    station: Q
    manager: B
`

const managedSorted = `
name: managed-sorted
stations:
  - id: Q
    kind: queue
    capacity: 5
    next: [S1, S2]
  - id: S1
    kind: machine
    operations: [Load]
    idle_since: 5
  - id: S2
    kind: machine
    operations: [Load]
operators:
  - id: A
  - id: B
jobs:
  - id: J1
    station: Q
    manager: A
  - id: J2
    station: Q
    manager: A
  - id: J3
    station: Q
    manager: B
`

const preemption = `
name: preemption
now: 3
stations:
  - id: Q
    kind: queue
    next: [M1]
  - id: M1
    kind: machine
    operations: [Load]
    pool: [W]
  - id: M2
    kind: machine
    operations: [Load]
    pool: [W]
operators:
  - id: W
    serving: M2
jobs:
  - id: J1
    station: Q
    critical: true
  - id: J2
    station: M2
`

const emptyPlant = `
name: empty
stations:
  - id: Q
    kind: queue
    next: [M1]
  - id: M1
    kind: machine
    operations: [Load]
    pool: [W1]
operators:
  - id: W1
`
