package router

import (
	"log/slog"

	"github.com/roach88/oprouter/internal/model"
)

// commit assigns every surviving candidate operator to its target.
//
// Free operators commit in both modes. Busy operators commit only as
// preemptions in simple mode. A station already committed this cycle is
// skipped, so no station ends up with two operators.
func (r *Router) commit(c *cycle) {
	for _, op := range c.candidateOperators {
		switch {
		case op.IsResourceFree():
			if c.mode == ModeManaged {
				r.commitManaged(c, op)
			} else {
				r.commitSimple(c, op)
			}

		case c.mode == ModeSimple && hasOperator(c.preemptiveOperators, op):
			r.commitPreemptive(c, op)
		}
	}

	slog.Debug("router committed operators",
		"cycle", c.id,
		"to_be_signalled", model.StationIDs(c.toBeSignalled),
	)
}

func (r *Router) commitSimple(c *cycle, op model.Operator) {
	t := c.operator(op).chosen
	if t == nil {
		return
	}
	if c.committedStation(t.station) {
		slog.Debug("station already committed", "cycle", c.id, "operator", op.ID(), "station", t.station.ID())
		return
	}

	slog.Debug("assigning operator", "cycle", c.id, "operator", op.ID(), "station", t.station.ID())
	op.AssignTo(t.station)
	c.markSignalled(t.station)
	c.committed = append(c.committed, commitment{op: op, station: t.station, entity: t.entity})
}

func (r *Router) commitPreemptive(c *cycle, op model.Operator) {
	t := c.operator(op).chosen
	if t == nil {
		return
	}
	if c.committedStation(t.station) {
		slog.Debug("station already committed", "cycle", c.id, "operator", op.ID(), "station", t.station.ID())
		return
	}

	victim := op.Serving()
	if !model.SameStation(victim, t.station) {
		slog.Debug("reassigning preemptive operator",
			"cycle", c.id,
			"operator", op.ID(),
			"from", stationID(victim),
			"to", t.station.ID(),
		)
		op.Unassign()
		op.AssignTo(t.station)
	}
	c.markSignalled(t.station)
	c.committed = append(c.committed, commitment{
		op:         op,
		station:    t.station,
		entity:     t.entity,
		preemptive: true,
		victim:     victim,
	})
}

func (r *Router) commitManaged(c *cycle, op model.Operator) {
	e := c.candidateEntityOf(op)
	if e == nil {
		return
	}
	recv := c.receiverOf(e)
	cur := e.CurrentStation()
	if recv == nil || !hasStation(c.pendingObjects, cur) {
		return
	}
	if c.committedStation(recv) {
		slog.Debug("station already committed", "cycle", c.id, "operator", op.ID(), "station", recv.ID())
		return
	}

	slog.Debug("assigning manager", "cycle", c.id, "operator", op.ID(), "station", recv.ID(), "entity", e.ID())
	op.AssignTo(recv)
	c.markSignalled(cur)
	c.committed = append(c.committed, commitment{op: op, station: recv, entity: e})
}

// unbook clears outgoing hand-off bookings that no committed operator will
// fulfil: predecessors booked to another receiver, and every pending queue
// that is not about to be signalled.
func (r *Router) unbook(c *cycle) {
	for _, cm := range c.committed {
		if hasStation(c.pendingObjects, cm.station) {
			continue
		}
		if c.mode == ModeManaged {
			cur := cm.entity.CurrentStation()
			if booked := cur.ExitAssignedTo(); booked != nil && !model.SameStation(booked, cm.station) {
				slog.Debug("unbooking hand-off", "cycle", c.id, "station", cur.ID(), "booked", booked.ID())
				cur.UnassignExit()
			}
			continue
		}
		for _, prev := range cm.station.Predecessors() {
			if booked := prev.ExitAssignedTo(); booked != nil && !model.SameStation(booked, cm.station) {
				slog.Debug("unbooking hand-off", "cycle", c.id, "station", prev.ID(), "booked", booked.ID())
				prev.UnassignExit()
			}
		}
	}

	for _, q := range c.pendingQueues {
		if hasStation(c.toBeSignalled, q) {
			continue
		}
		if q.ExitAssignedTo() != nil {
			slog.Debug("unbooking hand-off", "cycle", c.id, "station", q.ID(), "booked", q.ExitAssignedTo().ID())
		}
		q.UnassignExit()
	}
}

// signal wakes the stations won this cycle.
func (r *Router) signal(c *cycle) error {
	for _, cm := range c.committed {
		var err error
		if c.mode == ModeManaged {
			err = r.signalManaged(c, cm)
		} else {
			err = r.signalSimple(c, cm)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *Router) signalSimple(c *cycle, cm commitment) error {
	station := cm.station
	if !hasStation(c.toBeSignalled, station) {
		return model.NewConsistencyError(model.MsgStationNotSignalled, map[string]string{
			"operator": cm.op.ID(),
			"station":  station.ID(),
		})
	}

	switch {
	case cm.preemptive:
		if cm.victim != nil && !model.SameStation(cm.victim, station) {
			slog.Debug("preempting", "cycle", c.id, "station", cm.victim.ID())
			cm.victim.Preempt(c.now)
			c.record(cm.victim, SignalPreempt)
		}
		slog.Debug("preempting receiver", "cycle", c.id, "station", station.ID())
		station.Preempt(c.now)
		c.record(station, SignalPreempt)

	case station.IsBlockedAwaitingOperator():
		slog.Debug("signalling broker", "cycle", c.id, "station", station.ID())
		station.SignalBrokerResourceAvailable(c.now)
		c.record(station, SignalBroker)

	case station.CanAccept() && station.OffersLoad():
		slog.Debug("signalling load", "cycle", c.id, "station", station.ID())
		station.SignalLoadAvailable(c.now)
		c.record(station, SignalLoad)
	}
	return nil
}

func (r *Router) signalManaged(c *cycle, cm commitment) error {
	station := cm.station
	if hasStation(c.pendingMachines, station) && hasStation(c.toBeSignalled, station) {
		slog.Debug("signalling broker", "cycle", c.id, "station", station.ID())
		station.SignalBrokerResourceAvailable(c.now)
		c.record(station, SignalBroker)
		return nil
	}

	if cm.entity == nil {
		return model.NewConsistencyError(model.MsgCandidateEntityAbsent, map[string]string{
			"operator": cm.op.ID(),
		})
	}
	giver := cm.entity.CurrentStation()
	if !hasStation(c.toBeSignalled, giver) {
		return model.NewConsistencyError(model.MsgStationNotSignalled, map[string]string{
			"operator": cm.op.ID(),
			"station":  giver.ID(),
		})
	}
	if !isQueueLike(giver) {
		return model.NewConsistencyError(model.MsgGiverNotQueue, map[string]string{
			"operator": cm.op.ID(),
			"station":  giver.ID(),
			"kind":     string(giver.Kind()),
		})
	}

	if station.CanAccept() && station.OffersLoad() {
		slog.Debug("signalling queue", "cycle", c.id, "station", giver.ID(), "receiver", station.ID())
		giver.SignalLoadAvailable(c.now)
		c.record(giver, SignalLoad)
	}
	return nil
}
