package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"slices"

	"github.com/roach88/oprouter/internal/model"
	"github.com/roach88/oprouter/internal/plant"
	"github.com/roach88/oprouter/internal/policy"
	"github.com/roach88/oprouter/internal/router"
)

// Harness executes one scenario.
type Harness struct {
	scenario *Scenario
	plant    *plant.Plant
	router   *router.Router
	result   *Result
	logger   *slog.Logger

	// cycleErr is the error that stopped the run, if a cycle failed.
	cycleErr *model.Error
}

// Run executes a scenario and checks its expectations.
//
// The returned error reports a scenario the harness could not execute. A
// cycle error is part of the result: it is compared with expect.error.
func Run(s *Scenario) (*Result, error) {
	return RunContext(context.Background(), s)
}

// RunContext is Run with a caller-supplied context.
func RunContext(ctx context.Context, s *Scenario) (*Result, error) {
	h, err := newHarness(s)
	if err != nil {
		return nil, err
	}
	if err := h.schedule(); err != nil {
		return nil, err
	}
	if err := h.run(ctx); err != nil {
		return nil, err
	}
	h.check()
	return h.result, nil
}

func newHarness(s *Scenario) (*Harness, error) {
	l := s.Layout
	p, err := plant.Build(&l)
	if err != nil {
		return nil, fmt.Errorf("building plant: %w", err)
	}

	opts := []router.Option{
		router.WithSorting(s.Sorting),
		router.WithIDGenerator(router.NewSequentialGenerator("cycle")),
	}
	pp, err := router.ParsePreemptionPolicy(s.Preemption)
	if err != nil {
		return nil, err
	}
	opts = append(opts, router.WithPreemptionPolicy(pp))
	if s.DefaultRule != "" {
		c, err := policy.Parse(s.DefaultRule)
		if err != nil {
			return nil, fmt.Errorf("default rule: %w", err)
		}
		opts = append(opts, router.WithDefaultRule(c))
	}

	return &Harness{
		scenario: s,
		plant:    p,
		router:   router.New(p, p, opts...),
		result:   NewResult(),
		// Discard output in tests
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}, nil
}

// schedule puts every scenario event on the plant clock. The scheduler
// keeps document order for events at the same instant.
func (h *Harness) schedule() error {
	for i, ev := range h.scenario.Events {
		name := fmt.Sprintf("%s[%d]", ev.Type, i)
		if err := h.plant.Schedule(ev.At, name, h.apply(ev)); err != nil {
			return err
		}
	}
	return nil
}

func (h *Harness) apply(ev Event) plant.Action {
	return func(ctx context.Context) error {
		at := h.plant.Now()
		switch ev.Type {
		case EventInvoke:
			return h.invoke(at)
		case EventArrive:
			if err := h.plant.Arrive(ev.Job, ev.Station); err != nil {
				return err
			}
			h.result.addTrace(TraceEvent{At: at, Type: ev.Type, Subject: ev.Job + "->" + ev.Station})
		case EventBlock:
			if err := h.plant.Block(ev.Station); err != nil {
				return err
			}
			h.result.addTrace(TraceEvent{At: at, Type: ev.Type, Subject: ev.Station})
		case EventRelease:
			if err := h.plant.Release(ev.Operator); err != nil {
				return err
			}
			h.result.addTrace(TraceEvent{At: at, Type: ev.Type, Subject: ev.Operator})
		default:
			return fmt.Errorf("unknown event type %q", ev.Type)
		}
		return nil
	}
}

// invoke requests a resolution after every other event of this instant.
// A router already invoked absorbs the request.
func (h *Harness) invoke(at float64) error {
	if h.router.Invoked() {
		h.result.addTrace(TraceEvent{At: at, Type: TraceAbsorbed})
		return nil
	}
	h.router.Invoke()
	h.result.addTrace(TraceEvent{At: at, Type: EventInvoke})
	return h.plant.ScheduleSecondary(at, "resolve", h.resolve)
}

func (h *Harness) resolve(ctx context.Context) error {
	out, err := h.router.Resolve(ctx)
	if err != nil {
		var me *model.Error
		if errors.As(err, &me) {
			h.cycleErr = me
			h.result.addTrace(TraceEvent{At: h.plant.Now(), Type: TraceError, Cycle: me.CycleID, Error: string(me.Code)})
		}
		return err
	}
	h.result.Outcomes = append(h.result.Outcomes, out)
	h.result.addCycleTrace(out)
	return nil
}

// run drives the clock until the timeline is exhausted or a cycle fails.
func (h *Harness) run(ctx context.Context) error {
	h.logger.Debug("running scenario", "scenario", h.scenario.Name, "events", h.plant.Len())

	err := h.plant.Run(ctx)
	if err != nil && h.cycleErr == nil {
		return fmt.Errorf("scenario %s: %w", h.scenario.Name, err)
	}
	if h.cycleErr != nil {
		h.logger.Debug("scenario stopped by cycle error", "scenario", h.scenario.Name, "error", h.cycleErr)
	}
	return nil
}

// check compares the run with the scenario's expectations.
func (h *Harness) check() {
	want := h.scenario.Expect

	switch {
	case want.Error == "" && h.cycleErr != nil:
		h.result.AddError(fmt.Sprintf("unexpected error: %v", h.cycleErr))
	case want.Error != "" && h.cycleErr == nil:
		h.result.AddError(fmt.Sprintf("expected error %s, run completed", want.Error))
	case want.Error != "" && string(h.cycleErr.Code) != want.Error:
		h.result.AddError(fmt.Sprintf("expected error %s, got %s", want.Error, h.cycleErr.Code))
	}

	if want.Assignments != nil {
		got := make(map[string]string)
		for _, o := range h.result.Outcomes {
			for _, a := range o.Assignments {
				got[a.Operator] = a.Station
			}
		}
		if !maps.Equal(got, want.Assignments) {
			h.result.AddError(fmt.Sprintf("assignments: expected %v, got %v", want.Assignments, got))
		}
	}

	if want.Signals != nil {
		got := []string{}
		for _, o := range h.result.Outcomes {
			for _, s := range o.Signals {
				got = append(got, formatSignal(s))
			}
		}
		if !slices.Equal(got, want.Signals) {
			h.result.AddError(fmt.Sprintf("signals: expected %v, got %v", want.Signals, got))
		}
	}

	if want.Dropped != nil {
		got := []string{}
		for _, o := range h.result.Outcomes {
			got = append(got, o.Dropped...)
		}
		if !slices.Equal(got, want.Dropped) {
			h.result.AddError(fmt.Sprintf("dropped: expected %v, got %v", want.Dropped, got))
		}
	}

	if want.Preempted != nil {
		got := []string{}
		for _, ls := range h.scenario.Layout.Stations {
			if s, ok := h.plant.Station(ls.ID); ok {
				if _, preempted := s.PreemptedAt(); preempted {
					got = append(got, ls.ID)
				}
			}
		}
		if !slices.Equal(got, want.Preempted) {
			h.result.AddError(fmt.Sprintf("preempted: expected %v, got %v", want.Preempted, got))
		}
	}
}
