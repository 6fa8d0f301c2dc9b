package router

import (
	"cmp"
	"log/slog"
	"math"
	"slices"

	"github.com/roach88/oprouter/internal/model"
	"github.com/roach88/oprouter/internal/policy"
)

// sortCandidates ranks pending entities and each operator's candidate
// entities, then orders candidate operators when sorting is enabled.
func (r *Router) sortCandidates(c *cycle) error {
	env := policy.Env{Objects: c.snap.Objects}

	if r.sorting && len(c.candidateOperators) > 0 && len(c.pending) > 0 {
		if err := policy.Rank(c.criterion, c.pending, policy.Self, env); err != nil {
			return err
		}
	}

	oneOption := make(map[string]bool)
	for _, op := range c.candidateOperators {
		sc := c.operator(op)
		if c.mode == ModeManaged {
			oneOption[op.ID()] = len(sc.entities) == 1
		} else {
			oneOption[op.ID()] = len(sc.stations) == 1
		}
	}

	for _, op := range c.candidateOperators {
		sc := c.operator(op)
		if len(sc.entities) == 0 {
			continue
		}
		criteria, err := r.operatorCriteria(c, op)
		if err != nil {
			return err
		}
		if err := policy.RankBy(criteria, sc.entities, policy.Self, env); err != nil {
			return err
		}
	}

	if r.sorting {
		slices.SortStableFunc(c.candidateOperators, func(a, b model.Operator) int {
			return cmp.Compare(a.TotalWorkingTime(), b.TotalWorkingTime())
		})
		slices.SortStableFunc(c.candidateOperators, func(a, b model.Operator) int {
			return cmp.Compare(rankOf(oneOption[a.ID()]), rankOf(oneOption[b.ID()]))
		})
	}

	if c.mode == ModeManaged {
		for _, op := range c.candidateOperators {
			slog.Debug("candidate entities", "cycle", c.id, "operator", op.ID(),
				"entities", model.EntityIDs(c.operator(op).entities))
		}
	}
	return nil
}

// rankOf orders operators with a single option first.
func rankOf(oneOption bool) int {
	if oneOption {
		return 0
	}
	return 1
}

// operatorCriteria returns the criteria op ranks its candidate entities by:
// the unified criterion when sorting is enabled, else its own declaration.
func (r *Router) operatorCriteria(c *cycle, op model.Operator) ([]policy.Criterion, error) {
	if r.sorting {
		return []policy.Criterion{c.criterion}, nil
	}
	return policy.ParseAll(r.declaredRules(op))
}

// findCandidateTargets gives every candidate operator at most one target
// and resolves collisions.
func (r *Router) findCandidateTargets(c *cycle) error {
	if c.mode == ModeManaged {
		return r.findCandidateReceivers(c)
	}
	return r.findCandidateStations(c)
}

func (r *Router) findCandidateStations(c *cycle) error {
	for _, op := range c.candidateOperators {
		sc := c.operator(op)
		if len(sc.stations) == 0 {
			continue
		}
		sc.chosen = r.pickStation(c, sc)
	}

	if r.sorting || len(c.conflictingStations) == 0 {
		return nil
	}

	for _, op := range c.candidateOperators {
		if st := c.chosenStation(op); st != nil && hasStation(c.conflictingStations, st) {
			c.conflictingOperators = append(c.conflictingOperators, op)
		}
	}

	for _, st := range c.conflictingStations {
		group := filterOperators(c.conflictingOperators, func(op model.Operator) bool {
			return model.SameStation(c.chosenStation(op), st)
		})
		if err := r.breakTie(c, st, group, func(op model.Operator) int {
			t := c.operator(op).chosen
			if t.entity == nil {
				return -1
			}
			return t.giver.QueueIndexOf(t.entity)
		}); err != nil {
			return err
		}
	}
	return nil
}

// pickStation claims the first unclaimed candidate station. With sorting
// disabled and every candidate claimed, it falls back to the first one and
// marks it contested.
func (r *Router) pickStation(c *cycle, sc *operatorScratch) *target {
	for i := range sc.stations {
		t := sc.stations[i]
		if !hasStation(c.occupiedReceivers, t.station) {
			c.occupiedReceivers = append(c.occupiedReceivers, t.station)
			return &t
		}
	}
	if r.sorting {
		return nil
	}
	t := sc.stations[0]
	c.conflictingStations = appendStation(c.conflictingStations, t.station)
	return &t
}

func (r *Router) findCandidateReceivers(c *cycle) error {
	for _, op := range c.candidateOperators {
		sc := c.operator(op)
		if len(sc.entities) == 0 {
			continue
		}
		e := r.pickEntity(c, sc)
		sc.entity = e
		if e == nil {
			continue
		}
		es := c.entity(e)
		if es.taken {
			// fallback onto an entity another operator holds; it shares that receiver
			continue
		}
		es.taken = true
		if hasStation(c.pendingMachines, e.CurrentStation()) {
			es.receiver = e.CurrentStation()
		} else {
			es.receiver = r.findCandidateReceiverFor(c, e)
		}
	}

	for _, e := range c.pending {
		if recv := c.receiverOf(e); recv != nil {
			slog.Debug("candidate receiver", "cycle", c.id, "entity", e.ID(), "receiver", recv.ID())
		}
	}

	if r.sorting || len(c.conflictingEntities) == 0 {
		return nil
	}

	var contested []model.Station
	for _, e := range c.conflictingEntities {
		if recv := c.receiverOf(e); recv != nil {
			contested = appendStation(contested, recv)
		}
	}
	for _, op := range c.candidateOperators {
		e := c.candidateEntityOf(op)
		if e == nil {
			continue
		}
		if hasEntity(c.conflictingEntities, e) || hasStation(contested, c.receiverOf(e)) {
			c.conflictingOperators = append(c.conflictingOperators, op)
		}
	}

	var receivers []model.Station
	for _, op := range c.conflictingOperators {
		if recv := c.receiverOf(c.candidateEntityOf(op)); recv != nil {
			receivers = appendStation(receivers, recv)
		}
	}
	for _, recv := range receivers {
		group := filterOperators(c.conflictingOperators, func(op model.Operator) bool {
			return model.SameStation(c.receiverOf(c.candidateEntityOf(op)), recv)
		})
		if err := r.breakTie(c, recv, group, func(op model.Operator) int {
			e := c.candidateEntityOf(op)
			return e.CurrentStation().QueueIndexOf(e)
		}); err != nil {
			return err
		}
	}
	return nil
}

// pickEntity returns the operator's first candidate entity that is neither
// blocked nor taken by another operator. With sorting disabled it falls
// back to the first candidate and marks it conflicting.
func (r *Router) pickEntity(c *cycle, sc *operatorScratch) model.Entity {
	for _, e := range sc.entities {
		if c.entity(e).taken || hasEntity(c.entitiesWithOccupiedReceivers, e) {
			continue
		}
		return e
	}
	if r.sorting {
		return nil
	}
	e := sc.entities[0]
	c.conflictingEntities = appendEntity(c.conflictingEntities, e)
	return e
}

// findCandidateReceiverFor claims the longest-waiting free receiver of e.
//
// An entity whose receivers are all claimed is blocked for this cycle; with
// sorting disabled it still falls back to its first receiver and becomes
// conflicting. An entity with no receivers at all is only blocked.
func (r *Router) findCandidateReceiverFor(c *cycle, e model.Entity) model.Station {
	cur := e.CurrentStation()
	es := c.entity(e)
	es.receivers = cur.FindReceiversFor(cur)

	available := filterStations(es.receivers, func(s model.Station) bool {
		return !hasStation(c.occupiedReceivers, s)
	})
	if len(available) > 0 {
		recv := cur.SelectReceiver(available)
		if recv != nil {
			c.occupiedReceivers = appendStation(c.occupiedReceivers, recv)
			return recv
		}
	}

	c.entitiesWithOccupiedReceivers = appendEntity(c.entitiesWithOccupiedReceivers, e)
	if len(es.receivers) == 0 {
		slog.Debug("entity blocked: no receivers", "cycle", c.id, "entity", e.ID())
		return nil
	}
	if r.sorting {
		slog.Debug("entity blocked: receivers occupied", "cycle", c.id, "entity", e.ID())
		return nil
	}
	c.conflictingEntities = appendEntity(c.conflictingEntities, e)
	return es.receivers[0]
}

// breakTie keeps the operator whose contended entity is earliest in queue
// order and drops the rest for this cycle. Unknown positions go last.
func (r *Router) breakTie(c *cycle, contested model.Station, group []model.Operator, indexOf func(model.Operator) int) error {
	if len(group) == 0 {
		return model.NewConsistencyError(model.MsgEmptyConflictGroup, map[string]string{
			"station": contested.ID(),
		})
	}

	position := func(op model.Operator) int {
		if idx := indexOf(op); idx >= 0 {
			return idx
		}
		return math.MaxInt
	}
	slices.SortStableFunc(group, func(a, b model.Operator) int {
		return cmp.Compare(position(a), position(b))
	})

	for _, loser := range group[1:] {
		slog.Debug("operator dropped by tie-break",
			"cycle", c.id,
			"operator", loser.ID(),
			"station", contested.ID(),
			"winner", group[0].ID(),
		)
		c.dropOperator(loser)
	}
	return nil
}

func filterOperators(ops []model.Operator, keep func(model.Operator) bool) []model.Operator {
	var out []model.Operator
	for _, op := range ops {
		if keep(op) {
			out = append(out, op)
		}
	}
	return out
}

func filterStations(stations []model.Station, keep func(model.Station) bool) []model.Station {
	var out []model.Station
	for _, s := range stations {
		if keep(s) {
			out = append(out, s)
		}
	}
	return out
}
