// Package plant is an in-memory plant implementing the router's collaborator
// contracts.
//
// It holds no physics: stations only track occupants, broker flags and
// bookings, operators only track what they serve and what the router
// assigned them. Every signal and preemption the router delivers is
// recorded with its timestamp so callers can inspect what happened.
package plant

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/roach88/oprouter/internal/layout"
	"github.com/roach88/oprouter/internal/model"
)

// Signal kinds recorded by stations.
const (
	RecordBroker  = "broker"
	RecordLoad    = "load"
	RecordPreempt = "preempt"
)

// Record is one signal or preemption a station received.
type Record struct {
	At      float64 `json:"at"`
	Station string  `json:"station"`
	Kind    string  `json:"kind"`
}

// Plant owns the stations, operators and jobs of one layout, and the clock
// they live on.
type Plant struct {
	*Scheduler

	name      string
	stations  []*Station
	operators []*Operator
	jobs      []*Job

	stationByID  map[string]*Station
	operatorByID map[string]*Operator
	jobByID      map[string]*Job

	records []Record
}

// Build constructs a plant from a layout. The layout should already have
// passed layout.Prepare; references are checked again here.
func Build(l *layout.Layout) (*Plant, error) {
	if err := l.CheckReferences(); err != nil {
		return nil, err
	}

	p := &Plant{
		Scheduler:    NewScheduler(l.Now),
		name:         l.Name,
		stationByID:  make(map[string]*Station, len(l.Stations)),
		operatorByID: make(map[string]*Operator, len(l.Operators)),
		jobByID:      make(map[string]*Job, len(l.Jobs)),
	}

	for _, ls := range l.Stations {
		capacity := ls.Capacity
		if capacity == 0 {
			capacity = 1
		}
		s := &Station{
			plant:     p,
			id:        ls.ID,
			kind:      model.Kind(ls.Kind),
			capacity:  capacity,
			load:      slices.Contains(ls.Operations, layout.OpLoad),
			waiting:   ls.WaitingForOperator,
			idleSince: ls.IdleSince,
		}
		p.stations = append(p.stations, s)
		p.stationByID[s.id] = s
	}

	for _, lo := range l.Operators {
		op := &Operator{
			id:          lo.ID,
			rule:        lo.Rule,
			criteria:    slices.Clone(lo.Criteria),
			workingTime: lo.WorkingTime,
		}
		if lo.Serving != "" {
			op.serving = p.stationByID[lo.Serving]
			op.assignedTo = op.serving
		}
		p.operators = append(p.operators, op)
		p.operatorByID[op.id] = op
	}

	for i, ls := range l.Stations {
		s := p.stations[i]
		for _, id := range ls.Next {
			next := p.stationByID[id]
			s.next = append(s.next, next)
			next.prev = append(next.prev, s)
		}
		for _, id := range ls.Pool {
			s.pool = append(s.pool, p.operatorByID[id])
		}
		if ls.ExitAssignedTo != "" {
			s.exit = p.stationByID[ls.ExitAssignedTo]
		}
	}

	for _, lj := range l.Jobs {
		j := &Job{
			id:            lj.ID,
			critical:      lj.Critical,
			proceed:       lj.Proceeds(),
			priority:      lj.Priority,
			dueDate:       lj.DueDate,
			orderDate:     lj.OrderDate,
			lastScheduled: lj.LastScheduled,
		}
		if lj.Manager != "" {
			j.manager = p.operatorByID[lj.Manager]
		}
		for _, step := range lj.Route {
			rs := model.RouteStep{StationIDs: slices.Clone(step.Stations)}
			if step.ProcessingTime != nil {
				rs.ProcessingTime = &model.ProcessingTime{Mean: step.ProcessingTime.Mean}
			}
			j.route = append(j.route, rs)
		}
		at := p.stationByID[lj.Station]
		j.station = at
		at.occupants = append(at.occupants, j)
		p.jobs = append(p.jobs, j)
		p.jobByID[j.id] = j
	}

	return p, nil
}

// Name returns the layout name.
func (p *Plant) Name() string { return p.name }

// Snapshot returns the registries in declaration order. Every job not yet
// at an exit is pending.
func (p *Plant) Snapshot() model.Snapshot {
	var snap model.Snapshot
	for _, j := range p.jobs {
		if j.station.kind != model.KindExit {
			snap.Pending = append(snap.Pending, j)
		}
	}
	for _, s := range p.stations {
		snap.Objects = append(snap.Objects, s)
		switch s.kind {
		case model.KindMachine:
			snap.Machines = append(snap.Machines, s)
		case model.KindQueue:
			snap.Queues = append(snap.Queues, s)
		case model.KindSource:
			snap.Sources = append(snap.Sources, s)
		}
	}
	return snap
}

// Station returns the station with the given ID.
func (p *Plant) Station(id string) (*Station, bool) {
	s, ok := p.stationByID[id]
	return s, ok
}

// Operator returns the operator with the given ID.
func (p *Plant) Operator(id string) (*Operator, bool) {
	op, ok := p.operatorByID[id]
	return op, ok
}

// Job returns the job with the given ID.
func (p *Plant) Job(id string) (*Job, bool) {
	j, ok := p.jobByID[id]
	return j, ok
}

// Operators returns every operator in declaration order.
func (p *Plant) Operators() []*Operator {
	return slices.Clone(p.operators)
}

// Records returns the signals and preemptions delivered so far.
func (p *Plant) Records() []Record {
	return slices.Clone(p.records)
}

// Arrive moves a job to a station, appending it to the station's queue.
func (p *Plant) Arrive(jobID, stationID string) error {
	j, ok := p.jobByID[jobID]
	if !ok {
		return fmt.Errorf("unknown job %q", jobID)
	}
	to, ok := p.stationByID[stationID]
	if !ok {
		return fmt.Errorf("unknown station %q", stationID)
	}
	from := j.station
	from.occupants = slices.DeleteFunc(from.occupants, func(x *Job) bool { return x == j })
	if len(from.occupants) < from.capacity {
		from.idleSince = p.Now()
	}
	to.occupants = append(to.occupants, j)
	j.station = to
	j.lastScheduled = p.Now()

	slog.Debug("job arrived", "job", jobID, "from", from.id, "to", stationID, "at", p.Now())
	return nil
}

// Block marks a machine's broker as waiting for an operator.
func (p *Plant) Block(stationID string) error {
	s, ok := p.stationByID[stationID]
	if !ok {
		return fmt.Errorf("unknown station %q", stationID)
	}
	s.waiting = true
	return nil
}

// Release frees an operator and clears its assignment.
func (p *Plant) Release(operatorID string) error {
	op, ok := p.operatorByID[operatorID]
	if !ok {
		return fmt.Errorf("unknown operator %q", operatorID)
	}
	op.serving = nil
	op.assignedTo = nil
	return nil
}

func (p *Plant) record(s *Station, kind string, at float64) {
	p.records = append(p.records, Record{At: at, Station: s.id, Kind: kind})
	slog.Debug("station signalled", "station", s.id, "kind", kind, "at", at)
}

// seize makes every free operator assigned to s start serving it.
func (p *Plant) seize(s *Station) {
	for _, op := range p.operators {
		if op.assignedTo == s && op.serving == nil {
			op.serving = s
		}
	}
}
