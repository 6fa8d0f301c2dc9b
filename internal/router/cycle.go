package router

import (
	"slices"

	"github.com/roach88/oprouter/internal/model"
	"github.com/roach88/oprouter/internal/policy"
)

// target is one station an operator could serve, with the entity whose
// hand-off it would enable and the station holding that entity.
type target struct {
	station model.Station
	giver   model.Station
	entity  model.Entity
}

// operatorScratch is the per-cycle state of one candidate operator.
type operatorScratch struct {
	stations []target       // simple mode candidates
	chosen   *target        // simple mode pick
	entities []model.Entity // managed mode candidates, ranked
	entity   model.Entity   // managed mode pick
}

// entityScratch is the per-cycle state of one pending entity.
type entityScratch struct {
	receivers []model.Station
	receiver  model.Station
	taken     bool
}

// commitment is a committed (operator, station) pair.
type commitment struct {
	op         model.Operator
	station    model.Station
	entity     model.Entity
	preemptive bool

	// victim is the station the operator served before a preemptive commit.
	victim model.Station
}

// cycle is the resolver-owned context of one resolution pass. It is built
// at Resolving and dropped wholesale at Exiting.
type cycle struct {
	id        string
	now       float64
	snap      model.Snapshot
	mode      Mode
	criterion policy.Criterion

	pendingQueues   []model.Station
	pendingMachines []model.Station
	pendingObjects  []model.Station
	pending         []model.Entity
	criticalPending []model.Entity

	candidateOperators  []model.Operator
	preemptiveOperators []model.Operator
	criteria            []string

	conflictingOperators []model.Operator
	conflictingEntities  []model.Entity
	conflictingStations  []model.Station

	occupiedReceivers             []model.Station
	entitiesWithOccupiedReceivers []model.Entity

	toBeSignalled []model.Station
	committed     []commitment
	dropped       []model.Operator
	signals       []Signal

	operators map[string]*operatorScratch
	entities  map[string]*entityScratch
}

func newCycle(id string, now float64, snap model.Snapshot, rule policy.Criterion) *cycle {
	return &cycle{
		id:        id,
		now:       now,
		snap:      snap,
		mode:      ModeSimple,
		criterion: rule,
		operators: make(map[string]*operatorScratch),
		entities:  make(map[string]*entityScratch),
	}
}

func (c *cycle) operator(op model.Operator) *operatorScratch {
	sc, ok := c.operators[op.ID()]
	if !ok {
		sc = &operatorScratch{}
		c.operators[op.ID()] = sc
	}
	return sc
}

func (c *cycle) entity(e model.Entity) *entityScratch {
	sc, ok := c.entities[e.ID()]
	if !ok {
		sc = &entityScratch{}
		c.entities[e.ID()] = sc
	}
	return sc
}

// candidateEntityOf is the ranking key extractor for operators.
func (c *cycle) candidateEntityOf(op model.Operator) model.Entity {
	sc, ok := c.operators[op.ID()]
	if !ok {
		return nil
	}
	return sc.entity
}

// receiverOf returns the chosen receiver of e this cycle, or nil.
func (c *cycle) receiverOf(e model.Entity) model.Station {
	if e == nil {
		return nil
	}
	sc, ok := c.entities[e.ID()]
	if !ok {
		return nil
	}
	return sc.receiver
}

// chosenStation returns the operator's committed target in the cycle mode.
func (c *cycle) chosenStation(op model.Operator) model.Station {
	sc, ok := c.operators[op.ID()]
	if !ok {
		return nil
	}
	if c.mode == ModeManaged {
		return c.receiverOf(sc.entity)
	}
	if sc.chosen == nil {
		return nil
	}
	return sc.chosen.station
}

func (c *cycle) addCandidateOperator(op model.Operator) bool {
	if hasOperator(c.candidateOperators, op) {
		return false
	}
	c.candidateOperators = append(c.candidateOperators, op)
	c.operator(op)
	return true
}

func (c *cycle) addTarget(op model.Operator, t target) {
	sc := c.operator(op)
	if slices.ContainsFunc(sc.stations, func(x target) bool { return model.SameStation(x.station, t.station) }) {
		return
	}
	sc.stations = append(sc.stations, t)
}

func (c *cycle) markSignalled(s model.Station) {
	c.toBeSignalled = appendStation(c.toBeSignalled, s)
}

func (c *cycle) dropOperator(op model.Operator) {
	c.candidateOperators = slices.DeleteFunc(c.candidateOperators, func(x model.Operator) bool {
		return x.ID() == op.ID()
	})
	if !hasOperator(c.dropped, op) {
		c.dropped = append(c.dropped, op)
	}
}

func (c *cycle) committedStation(s model.Station) bool {
	return slices.ContainsFunc(c.committed, func(cm commitment) bool {
		return model.SameStation(cm.station, s)
	})
}

func (c *cycle) record(s model.Station, kind SignalKind) {
	c.signals = append(c.signals, Signal{Station: s.ID(), Kind: kind, At: c.now})
}

// outcome captures the cycle result before the context is discarded.
func (c *cycle) outcome() *Outcome {
	o := &Outcome{
		CycleID:        c.id,
		At:             c.now,
		Mode:           c.mode,
		Criterion:      c.criterion,
		PendingObjects: model.StationIDs(c.pendingObjects),
		Pending:        model.EntityIDs(c.pending),
		Critical:       model.EntityIDs(c.criticalPending),
		Candidates:     model.OperatorIDs(c.candidateOperators),
		Preemptive:     model.OperatorIDs(c.preemptiveOperators),
		Dropped:        model.OperatorIDs(c.dropped),
		Blocked:        model.EntityIDs(c.entitiesWithOccupiedReceivers),
		Assignments:    make([]Assignment, 0, len(c.committed)),
		Signals:        slices.Clone(c.signals),
	}
	for _, cm := range c.committed {
		a := Assignment{
			Operator:   cm.op.ID(),
			Station:    cm.station.ID(),
			Preemptive: cm.preemptive,
		}
		if cm.entity != nil {
			a.Entity = cm.entity.ID()
		}
		o.Assignments = append(o.Assignments, a)
	}
	if o.Signals == nil {
		o.Signals = []Signal{}
	}
	return o
}

func hasStation(list []model.Station, s model.Station) bool {
	return slices.ContainsFunc(list, func(x model.Station) bool { return model.SameStation(x, s) })
}

func appendStation(list []model.Station, s model.Station) []model.Station {
	if hasStation(list, s) {
		return list
	}
	return append(list, s)
}

func hasOperator(list []model.Operator, op model.Operator) bool {
	return slices.ContainsFunc(list, func(x model.Operator) bool { return x.ID() == op.ID() })
}

func hasEntity(list []model.Entity, e model.Entity) bool {
	return slices.ContainsFunc(list, func(x model.Entity) bool { return x.ID() == e.ID() })
}

func appendEntity(list []model.Entity, e model.Entity) []model.Entity {
	if hasEntity(list, e) {
		return list
	}
	return append(list, e)
}

// isQueueLike reports whether s buffers entities (queue or source).
func isQueueLike(s model.Station) bool {
	return s.Kind() == model.KindQueue || s.Kind() == model.KindSource
}

// stationID returns s.ID(), or "" for nil.
func stationID(s model.Station) string {
	if s == nil {
		return ""
	}
	return s.ID()
}
