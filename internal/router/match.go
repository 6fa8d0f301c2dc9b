package router

import (
	"cmp"
	"log/slog"
	"slices"

	"github.com/roach88/oprouter/internal/model"
	"github.com/roach88/oprouter/internal/policy"
)

// match builds candidateOperators for the cycle mode and, with sorting
// enabled, derives the cycle's single effective criterion.
func (r *Router) match(c *cycle) error {
	if c.mode == ModeManaged {
		r.matchManaged(c)
	} else {
		r.matchSimple(c)
	}

	slog.Debug("router matched operators",
		"cycle", c.id,
		"candidates", model.OperatorIDs(c.candidateOperators),
		"preemptive", model.OperatorIDs(c.preemptiveOperators),
	)

	if r.sorting && len(c.candidateOperators) > 0 {
		return r.unifyCriterion(c)
	}
	return nil
}

func (r *Router) matchSimple(c *cycle) {
	for _, m := range c.pendingMachines {
		op := m.FindCandidateOperator()
		if op == nil {
			slog.Debug("no candidate operator", "cycle", c.id, "station", m.ID())
			continue
		}
		c.addCandidateOperator(op)
		c.addTarget(op, target{station: m, giver: m, entity: headOf(m)})
	}

	for _, q := range c.pendingQueues {
		found := false
		for _, recv := range q.FindReceiversFor(q) {
			op := recv.FindCandidateOperator()
			if op == nil {
				slog.Debug("no candidate operator", "cycle", c.id, "station", recv.ID(), "giver", q.ID())
				continue
			}
			found = true
			c.addCandidateOperator(op)
			c.addTarget(op, target{station: recv, giver: q, entity: c.firstPendingIn(q)})
		}
		if !found {
			if critical := firstCriticalIn(q); critical != nil {
				r.matchPreemptive(c, q, critical)
			}
		}
	}
}

// matchPreemptive looks through the pools of q's successors for an operator
// serving non-critical work elsewhere. One operator per successor, at most.
func (r *Router) matchPreemptive(c *cycle, q model.Station, critical model.Entity) {
	for _, next := range q.Successors() {
		pool := next.OperatorPool()
		if r.preemption == PreemptLeastWorked {
			pool = slices.Clone(pool)
			slices.SortStableFunc(pool, func(a, b model.Operator) int {
				return cmp.Compare(a.TotalWorkingTime(), b.TotalWorkingTime())
			})
		}

		for _, op := range pool {
			if !preemptible(op) {
				continue
			}
			c.addTarget(op, target{station: next, giver: q, entity: critical})
			if c.addCandidateOperator(op) {
				c.preemptiveOperators = append(c.preemptiveOperators, op)
			}
			slog.Debug("preemptive candidate",
				"cycle", c.id,
				"operator", op.ID(),
				"station", next.ID(),
				"victim", stationID(op.Serving()),
				"entity", critical.ID(),
			)
			break
		}
	}
}

// preemptible reports whether op is busy on a station whose head occupant
// is not critical. A free operator is never a preemption.
func preemptible(op model.Operator) bool {
	victim := op.Serving()
	if victim == nil {
		return false
	}
	occ := victim.Occupants()
	return len(occ) == 0 || !occ[0].IsCritical()
}

func (r *Router) matchManaged(c *cycle) {
	for _, e := range c.pending {
		mgr := e.Manager()
		if mgr == nil {
			continue
		}
		if mgr.IsResourceFree() && e.CanProceed() {
			c.addCandidateOperator(mgr)
		}
	}
	for _, op := range c.candidateOperators {
		c.operator(op).entities = op.FindCandidateEntities(c.pending)
	}
}

// unifyCriterion collects every candidate operator's declared rules and
// requires exactly one distinct value.
func (r *Router) unifyCriterion(c *cycle) error {
	for _, op := range c.candidateOperators {
		for _, name := range r.declaredRules(op) {
			if !slices.Contains(c.criteria, name) {
				c.criteria = append(c.criteria, name)
			}
		}
	}
	criterion, err := policy.Unify(c.criteria)
	if err != nil {
		return err
	}
	c.criterion = criterion
	return nil
}

// declaredRules returns op's criteria list, or its single rule, or the
// router default.
func (r *Router) declaredRules(op model.Operator) []string {
	if criteria := op.Criteria(); len(criteria) > 0 {
		return criteria
	}
	if rule := op.SchedulingRule(); rule != "" {
		return []string{rule}
	}
	return []string{string(r.defaultRule)}
}

func headOf(s model.Station) model.Entity {
	if occ := s.Occupants(); len(occ) > 0 {
		return occ[0]
	}
	return nil
}
