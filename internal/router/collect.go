package router

import (
	"log/slog"

	"github.com/roach88/oprouter/internal/model"
)

// collect builds the pending set from the snapshot and fixes the cycle mode.
//
// Discovery order is registry order. Pending objects list queues before
// machines.
func (r *Router) collect(c *cycle) {
	for _, e := range c.snap.Pending {
		cur := e.CurrentStation()
		if cur == nil {
			continue
		}
		if cur.Kind() == model.KindMachine && cur.IsBlockedAwaitingOperator() {
			c.pendingMachines = appendStation(c.pendingMachines, cur)
		}
		if isQueueLike(cur) && feedsLoadMachine(cur) {
			c.pendingQueues = appendStation(c.pendingQueues, cur)
		}
	}
	c.pendingObjects = append(append([]model.Station{}, c.pendingQueues...), c.pendingMachines...)

	for _, m := range c.pendingMachines {
		if occ := m.Occupants(); len(occ) > 0 {
			c.pending = appendEntity(c.pending, occ[0])
		}
	}
	for _, e := range c.snap.Pending {
		cur := e.CurrentStation()
		if cur == nil || !isQueueLike(cur) || !feedsLoadMachine(cur) {
			continue
		}
		c.pending = appendEntity(c.pending, e)
		if e.IsCritical() {
			c.criticalPending = appendEntity(c.criticalPending, e)
		}
	}

	if len(c.pending) > 0 && c.pending[0].Manager() != nil {
		c.mode = ModeManaged
	}

	slog.Debug("router collected demand",
		"cycle", c.id,
		"mode", c.mode,
		"pending_queues", model.StationIDs(c.pendingQueues),
		"pending_machines", model.StationIDs(c.pendingMachines),
		"pending", model.EntityIDs(c.pending),
		"critical", model.EntityIDs(c.criticalPending),
	)
}

// feedsLoadMachine reports whether any successor of s is a machine that
// needs a load operator.
func feedsLoadMachine(s model.Station) bool {
	for _, next := range s.Successors() {
		if next.Kind() == model.KindMachine && next.OffersLoad() {
			return true
		}
	}
	return false
}

// firstPendingIn returns the earliest occupant of giver that is pending.
func (c *cycle) firstPendingIn(giver model.Station) model.Entity {
	for _, e := range giver.Occupants() {
		if hasEntity(c.pending, e) {
			return e
		}
	}
	return nil
}

// firstCriticalIn returns the earliest critical occupant of giver.
func firstCriticalIn(giver model.Station) model.Entity {
	for _, e := range giver.Occupants() {
		if e.IsCritical() {
			return e
		}
	}
	return nil
}
