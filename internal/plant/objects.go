package plant

import (
	"slices"

	"github.com/roach88/oprouter/internal/model"
)

// Station is a plant node. It implements model.Station.
type Station struct {
	plant *Plant

	id        string
	kind      model.Kind
	capacity  int
	load      bool
	waiting   bool
	idleSince float64

	next      []*Station
	prev      []*Station
	pool      []*Operator
	occupants []*Job
	exit      *Station

	preemptedAt *float64
}

var _ model.Station = (*Station)(nil)

func (s *Station) ID() string       { return s.id }
func (s *Station) Kind() model.Kind { return s.kind }
func (s *Station) OffersLoad() bool { return s.load }

func (s *Station) IsBlockedAwaitingOperator() bool { return s.waiting }

func (s *Station) Successors() []model.Station   { return stations(s.next) }
func (s *Station) Predecessors() []model.Station { return stations(s.prev) }

func (s *Station) Occupants() []model.Entity {
	out := make([]model.Entity, len(s.occupants))
	for i, j := range s.occupants {
		out[i] = j
	}
	return out
}

func (s *Station) OperatorPool() []model.Operator {
	out := make([]model.Operator, len(s.pool))
	for i, op := range s.pool {
		out[i] = op
	}
	return out
}

// CanAccept reports free capacity. Sources never accept; exits always do.
func (s *Station) CanAccept() bool {
	switch s.kind {
	case model.KindSource:
		return false
	case model.KindExit:
		return true
	default:
		return len(s.occupants) < s.capacity
	}
}

// FindCandidateOperator returns the first free operator of the pool.
func (s *Station) FindCandidateOperator() model.Operator {
	for _, op := range s.pool {
		if op.IsResourceFree() {
			return op
		}
	}
	return nil
}

// FindReceiversFor returns the successors of giver that can accept.
func (s *Station) FindReceiversFor(giver model.Station) []model.Station {
	g, ok := giver.(*Station)
	if !ok {
		g = s
	}
	var out []model.Station
	for _, next := range g.next {
		if next.CanAccept() {
			out = append(out, next)
		}
	}
	return out
}

// SelectReceiver returns the candidate idle the longest. The first wins ties.
func (s *Station) SelectReceiver(candidates []model.Station) model.Station {
	var best model.Station
	bestSince := 0.0
	for _, c := range candidates {
		since := 0.0
		if st, ok := c.(*Station); ok {
			since = st.idleSince
		}
		if best == nil || since < bestSince {
			best, bestSince = c, since
		}
	}
	return best
}

func (s *Station) QueueIndexOf(e model.Entity) int {
	return slices.IndexFunc(s.occupants, func(j *Job) bool { return j.id == e.ID() })
}

func (s *Station) ExitAssignedTo() model.Station {
	if s.exit == nil {
		return nil
	}
	return s.exit
}

func (s *Station) UnassignExit() { s.exit = nil }

// SignalBrokerResourceAvailable ends the broker's wait; the assigned
// operator starts serving.
func (s *Station) SignalBrokerResourceAvailable(at float64) {
	s.plant.record(s, RecordBroker, at)
	s.waiting = false
	s.plant.seize(s)
}

// SignalLoadAvailable lets the assigned operator start loading.
func (s *Station) SignalLoadAvailable(at float64) {
	s.plant.record(s, RecordLoad, at)
	s.plant.seize(s)
}

// Preempt interrupts the station: operators serving it but assigned
// elsewhere leave, operators assigned to it take over.
func (s *Station) Preempt(at float64) {
	s.plant.record(s, RecordPreempt, at)
	s.preemptedAt = &at
	for _, op := range s.plant.operators {
		if op.serving == s && op.assignedTo != s {
			op.serving = nil
		}
	}
	s.plant.seize(s)
}

// PreemptedAt returns the last preemption time, if any.
func (s *Station) PreemptedAt() (float64, bool) {
	if s.preemptedAt == nil {
		return 0, false
	}
	return *s.preemptedAt, true
}

// Operator is a plant worker. It implements model.Operator.
type Operator struct {
	id          string
	rule        string
	criteria    []string
	workingTime float64

	serving    *Station
	assignedTo *Station
}

var _ model.Operator = (*Operator)(nil)

func (o *Operator) ID() string                { return o.id }
func (o *Operator) SchedulingRule() string    { return o.rule }
func (o *Operator) Criteria() []string        { return slices.Clone(o.criteria) }
func (o *Operator) TotalWorkingTime() float64 { return o.workingTime }
func (o *Operator) IsResourceFree() bool      { return o.serving == nil }
func (o *Operator) Unassign()                 { o.assignedTo = nil }

// AssignTo books the operator for s. Stations from another plant are ignored.
func (o *Operator) AssignTo(s model.Station) {
	if st, ok := s.(*Station); ok {
		o.assignedTo = st
	}
}

func (o *Operator) AssignedTo() model.Station {
	if o.assignedTo == nil {
		return nil
	}
	return o.assignedTo
}

func (o *Operator) Serving() model.Station {
	if o.serving == nil {
		return nil
	}
	return o.serving
}

// FindCandidateEntities returns the pending jobs this operator manages that
// can proceed, in pending order.
func (o *Operator) FindCandidateEntities(pending []model.Entity) []model.Entity {
	var out []model.Entity
	for _, e := range pending {
		if m := e.Manager(); m != nil && m.ID() == o.id && e.CanProceed() {
			out = append(out, e)
		}
	}
	return out
}

// Job is a plant entity. It implements model.Entity.
type Job struct {
	id            string
	station       *Station
	manager       *Operator
	critical      bool
	proceed       bool
	priority      int
	dueDate       float64
	orderDate     float64
	lastScheduled float64
	route         []model.RouteStep
}

var _ model.Entity = (*Job)(nil)

func (j *Job) ID() string             { return j.id }
func (j *Job) IsCritical() bool       { return j.critical }
func (j *Job) Priority() int          { return j.priority }
func (j *Job) DueDate() float64       { return j.dueDate }
func (j *Job) OrderDate() float64     { return j.orderDate }
func (j *Job) LastScheduled() float64 { return j.lastScheduled }

func (j *Job) CurrentStation() model.Station {
	if j.station == nil {
		return nil
	}
	return j.station
}

func (j *Job) Manager() model.Operator {
	if j.manager == nil {
		return nil
	}
	return j.manager
}

// CanProceed requires the job's own flag and somewhere to go: a job on a
// machine proceeds in place, elsewhere it needs a receiver.
func (j *Job) CanProceed() bool {
	if !j.proceed {
		return false
	}
	if j.station.kind == model.KindMachine {
		return true
	}
	return len(j.station.FindReceiversFor(j.station)) > 0
}

func (j *Job) RemainingRoute() []model.RouteStep {
	return slices.Clone(j.route)
}

func stations(list []*Station) []model.Station {
	out := make([]model.Station, len(list))
	for i, s := range list {
		out[i] = s
	}
	return out
}
