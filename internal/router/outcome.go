package router

import "github.com/roach88/oprouter/internal/policy"

// SignalKind identifies how a station was woken.
type SignalKind string

const (
	SignalBroker  SignalKind = "broker"
	SignalLoad    SignalKind = "load"
	SignalPreempt SignalKind = "preempt"
)

// Signal is one wake-up the router delivered.
type Signal struct {
	Station string     `json:"station"`
	Kind    SignalKind `json:"kind"`
	At      float64    `json:"at"`
}

// Assignment is one committed (operator, station) pair.
type Assignment struct {
	Operator   string `json:"operator"`
	Station    string `json:"station"`
	Entity     string `json:"entity,omitempty"`
	Preemptive bool   `json:"preemptive,omitempty"`
}

// Outcome summarizes one resolution cycle.
type Outcome struct {
	CycleID   string           `json:"cycle_id"`
	At        float64          `json:"at"`
	Mode      Mode             `json:"mode"`
	Criterion policy.Criterion `json:"criterion"`

	PendingObjects []string `json:"pending_objects"`
	Pending        []string `json:"pending"`
	Critical       []string `json:"critical,omitempty"`

	// Candidates are the operators that survived conflict resolution.
	Candidates []string `json:"candidates"`
	Preemptive []string `json:"preemptive,omitempty"`

	Assignments []Assignment `json:"assignments"`
	Signals     []Signal     `json:"signals"`

	// Dropped operators lost a tie-break and get nothing this cycle.
	Dropped []string `json:"dropped,omitempty"`

	// Blocked entities found no free receiver this cycle.
	Blocked []string `json:"blocked,omitempty"`
}

// Preemptions counts the preemptive assignments of the cycle.
func (o *Outcome) Preemptions() int {
	n := 0
	for _, a := range o.Assignments {
		if a.Preemptive {
			n++
		}
	}
	return n
}
