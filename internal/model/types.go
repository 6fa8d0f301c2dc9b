package model

import "slices"

// Kind classifies a station in the routing graph.
type Kind string

const (
	KindMachine Kind = "machine"
	KindQueue   Kind = "queue"
	KindSource  Kind = "source"
	KindExit    Kind = "exit"
)

// OperationType names a capability a station needs an operator for.
type OperationType string

const (
	OpLoad       OperationType = "Load"
	OpSetup      OperationType = "Setup"
	OpProcessing OperationType = "Processing"
)

// ProcessingTime is the distribution parameter set of a route step.
// Only the mean takes part in ranking.
type ProcessingTime struct {
	Mean float64
}

// RouteStep is one future step of a job's route.
type RouteStep struct {
	// StationIDs are the candidate stations for this step.
	StationIDs []string

	// ProcessingTime is nil when the step declares none; it then
	// contributes zero to every processing-time key.
	ProcessingTime *ProcessingTime
}

// Mean returns the step's mean processing time, or zero if none is declared.
func (s RouteStep) Mean() float64 {
	if s.ProcessingTime == nil {
		return 0
	}
	return s.ProcessingTime.Mean
}

// Entity is a job or part moving through the plant.
type Entity interface {
	ID() string
	CurrentStation() Station

	// Manager returns nil for simple entities. A non-nil manager puts the
	// router in managed mode.
	Manager() Operator

	IsCritical() bool

	// CanProceed reports whether the entity is allowed to move on now.
	CanProceed() bool

	Priority() int
	DueDate() float64
	OrderDate() float64

	// LastScheduled is the time of the entity's last schedule event.
	LastScheduled() float64

	RemainingRoute() []RouteStep
}

// Station is a machine, queue, source or exit node.
type Station interface {
	ID() string
	Kind() Kind

	// OffersLoad reports whether the station's operation types include Load.
	OffersLoad() bool

	Successors() []Station
	Predecessors() []Station

	// Occupants returns the held entities in the station's natural queue order.
	Occupants() []Entity

	OperatorPool() []Operator

	// IsBlockedAwaitingOperator reports whether the station's broker is
	// currently waiting for an operator.
	IsBlockedAwaitingOperator() bool

	CanAccept() bool

	// FindCandidateOperator returns the operator that could serve the
	// station now, or nil.
	FindCandidateOperator() Operator

	// FindReceiversFor returns the stations able to receive from giver.
	FindReceiversFor(giver Station) []Station

	// SelectReceiver picks the candidate that has waited longest.
	SelectReceiver(candidates []Station) Station

	// QueueIndexOf returns the entity's position in Occupants, or -1.
	QueueIndexOf(e Entity) int

	// ExitAssignedTo returns the receiver the station's outgoing hand-off
	// is booked for, or nil.
	ExitAssignedTo() Station
	UnassignExit()

	SignalBrokerResourceAvailable(at float64)
	SignalLoadAvailable(at float64)

	// Preempt interrupts the station's current work and records at as its
	// preemption time.
	Preempt(at float64)
}

// Operator is an exclusive-access resource (worker or robot).
type Operator interface {
	ID() string

	// SchedulingRule is the operator's single criterion name. Empty means
	// the router default.
	SchedulingRule() string

	// Criteria is the operator's criterion list. When non-empty it takes
	// precedence over SchedulingRule.
	Criteria() []string

	TotalWorkingTime() float64

	IsResourceFree() bool

	AssignTo(s Station)
	Unassign()
	AssignedTo() Station

	// Serving returns the station currently holding the operator, or nil
	// when the operator is free.
	Serving() Station

	// FindCandidateEntities returns the entries of pending this operator
	// could move now.
	FindCandidateEntities(pending []Entity) []Entity
}

// Snapshot is the read-only registry view handed to the router at cycle start.
type Snapshot struct {
	// Pending holds the entities currently pending assignment, in
	// registry order.
	Pending []Entity

	// Machines, Queues and Sources partition Objects by kind for hosts that
	// walk one kind at a time. The router itself works from Pending.
	Machines []Station
	Queues   []Station
	Sources  []Station

	// Objects is every known station, used for lookup by ID.
	Objects []Station
}

// Lookup returns the last station in Objects with the given ID.
func (s Snapshot) Lookup(id string) (Station, bool) {
	return FindStation(s.Objects, id)
}

// FindStation returns the last of objects whose ID is any of ids.
func FindStation(objects []Station, ids ...string) (Station, bool) {
	var found Station
	for _, obj := range objects {
		if slices.Contains(ids, obj.ID()) {
			found = obj
		}
	}
	return found, found != nil
}

// SameStation reports whether a and b are the same station (nil-safe).
func SameStation(a, b Station) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.ID() == b.ID()
}

// StationIDs returns the IDs of the given stations.
func StationIDs(stations []Station) []string {
	ids := make([]string, len(stations))
	for i, s := range stations {
		ids[i] = s.ID()
	}
	return ids
}

// EntityIDs returns the IDs of the given entities.
func EntityIDs(entities []Entity) []string {
	ids := make([]string, len(entities))
	for i, e := range entities {
		ids[i] = e.ID()
	}
	return ids
}

// OperatorIDs returns the IDs of the given operators.
func OperatorIDs(ops []Operator) []string {
	ids := make([]string, len(ops))
	for i, op := range ops {
		ids[i] = op.ID()
	}
	return ids
}
