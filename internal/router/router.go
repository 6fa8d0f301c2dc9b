// Package router implements the operator-to-station assignment resolver.
//
// A Router is woken whenever new demand may exist. Each wake runs one
// resolution cycle against a fresh Snapshot:
//
//	Idle -> Draining -> Resolving -> Exiting -> Idle
//
// Draining yields to the clock until no more events remain at the current
// instant. Resolving collects demand, matches it to operators, resolves
// conflicts, commits winners and signals stations. Exiting discards all
// per-cycle state and restores the default scheduling rule.
//
// Thread-safety model:
//   - Invoke(), Invoked(), State(), SchedulingRule(): safe from any goroutine
//   - Resolve() and Run(): must not run concurrently with each other
//
// A cycle mutates collaborators without locking. Callers must guarantee the
// plant is not mutated elsewhere while a cycle runs.
package router

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/roach88/oprouter/internal/model"
	"github.com/roach88/oprouter/internal/policy"
)

// Source supplies the registry view a cycle resolves against.
type Source interface {
	Snapshot() model.Snapshot
}

// Clock is the discrete-event clock the router drains against.
type Clock interface {
	// Now returns the current simulated time.
	Now() float64

	// PendingNow reports whether events remain at the current instant.
	PendingNow() bool

	// Yield lets the clock process pending same-instant events.
	Yield(ctx context.Context) error
}

// Recorder observes cycle results. Implemented by metrics.Collector.
type Recorder interface {
	CycleCompleted(o *Outcome)
	CycleFailed(cycleID string, err error)
}

// IDGenerator generates cycle identifiers.
// Implemented by UUIDv7Generator (production) and SequentialGenerator (tests).
type IDGenerator interface {
	Generate() string
}

// State is the controller state.
type State int32

const (
	StateIdle State = iota
	StateDraining
	StateResolving
	StateExiting
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateDraining:
		return "draining"
	case StateResolving:
		return "resolving"
	case StateExiting:
		return "exiting"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// Mode is the assignment mode of one cycle.
type Mode string

const (
	// ModeSimple assigns operators directly to stations.
	ModeSimple Mode = "simple"

	// ModeManaged assigns managers to the receivers of the entities they move.
	ModeManaged Mode = "managed"
)

// PreemptionPolicy chooses which busy operator a critical queue may take over.
type PreemptionPolicy string

const (
	// PreemptFirstFound takes the first eligible operator in pool order.
	PreemptFirstFound PreemptionPolicy = "first-found"

	// PreemptLeastWorked takes the eligible operator with the lowest total
	// working time, pool order breaking ties.
	PreemptLeastWorked PreemptionPolicy = "least-worked"
)

// ParsePreemptionPolicy resolves a preemption policy name. Empty means first-found.
func ParsePreemptionPolicy(name string) (PreemptionPolicy, error) {
	switch PreemptionPolicy(name) {
	case "", PreemptFirstFound:
		return PreemptFirstFound, nil
	case PreemptLeastWorked:
		return PreemptLeastWorked, nil
	default:
		return "", fmt.Errorf("unknown preemption policy %q", name)
	}
}

// Router is the assignment resolver.
type Router struct {
	source Source
	clock  Clock
	ids    IDGenerator

	sorting     bool
	defaultRule policy.Criterion
	preemption  PreemptionPolicy
	recorder    Recorder

	state   atomic.Int32
	invoked atomic.Bool
	wake    chan struct{} // buffered, size 1

	mu   sync.Mutex
	rule policy.Criterion
}

// Option configures a Router.
type Option func(*Router)

// WithSorting enables global sorting: pending entities are ranked by the
// unified criterion and operators with a single option go first. Disabled
// sorting turns claim collisions into queue-order tie-breaks.
func WithSorting(enabled bool) Option {
	return func(r *Router) {
		r.sorting = enabled
	}
}

// WithDefaultRule sets the criterion restored at every cycle exit.
//
// Default: policy.Default (WT)
func WithDefaultRule(c policy.Criterion) Option {
	return func(r *Router) {
		r.defaultRule = c
	}
}

// WithPreemptionPolicy sets how a preemptive operator is chosen from a pool.
func WithPreemptionPolicy(p PreemptionPolicy) Option {
	return func(r *Router) {
		r.preemption = p
	}
}

// WithRecorder attaches a cycle observer.
func WithRecorder(rec Recorder) Option {
	return func(r *Router) {
		r.recorder = rec
	}
}

// WithIDGenerator sets the cycle ID generator.
//
// Default: UUIDv7Generator
func WithIDGenerator(g IDGenerator) Option {
	return func(r *Router) {
		r.ids = g
	}
}

// New creates a Router reading demand from src and draining against clock.
func New(src Source, clock Clock, opts ...Option) *Router {
	r := &Router{
		source:      src,
		clock:       clock,
		ids:         UUIDv7Generator{},
		defaultRule: policy.Default,
		preemption:  PreemptFirstFound,
		recorder:    nopRecorder{},
		wake:        make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.rule = r.defaultRule
	return r
}

// Invoke requests a resolution cycle.
//
// Invoking an already invoked router is absorbed: the next cycle covers all
// demand accumulated so far. Safe from any goroutine.
func (r *Router) Invoke() {
	r.invoked.Store(true)
	select {
	case r.wake <- struct{}{}:
	default:
	}
}

// Invoked reports whether a cycle has been requested and not yet exited.
func (r *Router) Invoked() bool {
	return r.invoked.Load()
}

// State returns the current controller state.
func (r *Router) State() State {
	return State(r.state.Load())
}

// SchedulingRule returns the effective criterion of the running cycle, or
// the default rule between cycles.
func (r *Router) SchedulingRule() policy.Criterion {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rule
}

// Sorting reports whether global sorting is enabled.
func (r *Router) Sorting() bool {
	return r.sorting
}

func (r *Router) setRule(c policy.Criterion) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rule = c
}

// Run waits for invocations and resolves one cycle per wake until ctx is
// cancelled or a cycle fails.
//
// Configuration and consistency errors end the loop: later state would be
// meaningless, so the host simulation should abort.
func (r *Router) Run(ctx context.Context) error {
	slog.Info("router starting", "sorting", r.sorting, "default_rule", r.defaultRule)

	for {
		select {
		case <-ctx.Done():
			slog.Info("router stopping: context cancelled")
			return ctx.Err()

		case <-r.wake:
			if !r.invoked.Load() {
				continue
			}
			if _, err := r.Resolve(ctx); err != nil {
				slog.Error("router stopping: cycle failed", "error", err)
				return err
			}
		}
	}
}

// Resolve runs one full cycle and returns its outcome.
//
// Draining honours ctx. Once Resolving begins the cycle runs to completion.
// On failure Exiting still runs, so the router is idle and clean whatever
// the result.
func (r *Router) Resolve(ctx context.Context) (*Outcome, error) {
	r.state.Store(int32(StateDraining))
	for r.clock.PendingNow() {
		if err := r.clock.Yield(ctx); err != nil {
			r.exit()
			return nil, fmt.Errorf("draining: %w", err)
		}
	}

	r.state.Store(int32(StateResolving))
	c := newCycle(r.ids.Generate(), r.clock.Now(), r.source.Snapshot(), r.defaultRule)

	slog.Info("router cycle starting", "cycle", c.id, "at", c.now)

	err := r.resolve(c)
	var out *Outcome
	if err == nil {
		out = c.outcome()
	} else {
		var re *model.Error
		if errors.As(err, &re) && re.CycleID == "" {
			re.CycleID = c.id
		}
	}

	r.exit()

	if err != nil {
		slog.Error("router cycle failed", "cycle", c.id, "error", err)
		r.recorder.CycleFailed(c.id, err)
		return nil, err
	}

	slog.Info("router cycle exiting",
		"cycle", c.id,
		"mode", out.Mode,
		"assignments", len(out.Assignments),
		"signals", len(out.Signals),
	)
	r.recorder.CycleCompleted(out)
	return out, nil
}

// resolve runs the Resolving phases in order, stopping at the first error.
func (r *Router) resolve(c *cycle) error {
	r.collect(c)
	if err := r.match(c); err != nil {
		return fmt.Errorf("match: %w", err)
	}
	r.setRule(c.criterion)
	if err := r.sortCandidates(c); err != nil {
		return fmt.Errorf("sort: %w", err)
	}
	if err := r.findCandidateTargets(c); err != nil {
		return fmt.Errorf("resolve: %w", err)
	}
	r.commit(c)
	r.unbook(c)
	if err := r.signal(c); err != nil {
		return fmt.Errorf("signal: %w", err)
	}
	return nil
}

// exit restores the default rule, clears the invoked guard and returns the
// controller to Idle. The cycle context goes out of scope with Resolve.
func (r *Router) exit() {
	r.state.Store(int32(StateExiting))
	r.setRule(r.defaultRule)
	r.invoked.Store(false)
	r.state.Store(int32(StateIdle))
}

type nopRecorder struct{}

func (nopRecorder) CycleCompleted(*Outcome)   {}
func (nopRecorder) CycleFailed(string, error) {}
