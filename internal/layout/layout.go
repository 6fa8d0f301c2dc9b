// Package layout reads plant layout documents.
//
// A layout names the stations of a plant, the operators that serve them and
// the jobs they hold at one instant. Documents are YAML, decoded strictly,
// checked against the embedded CUE schema, NFC-normalized and then checked
// for dangling references.
package layout

// Layout is one plant snapshot.
type Layout struct {
	Name      string     `yaml:"name" json:"name"`
	Now       float64    `yaml:"now,omitempty" json:"now,omitempty"`
	Stations  []Station  `yaml:"stations" json:"stations"`
	Operators []Operator `yaml:"operators,omitempty" json:"operators,omitempty"`
	Jobs      []Job      `yaml:"jobs,omitempty" json:"jobs,omitempty"`
}

// Station is a machine, queue, source or exit.
type Station struct {
	ID   string `yaml:"id" json:"id"`
	Kind string `yaml:"kind" json:"kind"`

	// Capacity is the number of jobs the station holds. Zero means one.
	Capacity int `yaml:"capacity,omitempty" json:"capacity,omitempty"`

	// Operations lists the operation types that need an operator, e.g. Load.
	Operations []string `yaml:"operations,omitempty" json:"operations,omitempty"`

	// Next lists successor station IDs in routing order.
	Next []string `yaml:"next,omitempty" json:"next,omitempty"`

	// Pool lists the operator IDs that may serve this station.
	Pool []string `yaml:"pool,omitempty" json:"pool,omitempty"`

	// WaitingForOperator marks a machine whose broker waits for an operator.
	WaitingForOperator bool `yaml:"waiting_for_operator,omitempty" json:"waiting_for_operator,omitempty"`

	// ExitAssignedTo is the receiver an outgoing hand-off is booked for.
	ExitAssignedTo string `yaml:"exit_assigned_to,omitempty" json:"exit_assigned_to,omitempty"`

	// IdleSince is when the station last became able to receive.
	IdleSince float64 `yaml:"idle_since,omitempty" json:"idle_since,omitempty"`
}

// Operator is a worker or robot.
type Operator struct {
	ID          string   `yaml:"id" json:"id"`
	Rule        string   `yaml:"rule,omitempty" json:"rule,omitempty"`
	Criteria    []string `yaml:"criteria,omitempty" json:"criteria,omitempty"`
	WorkingTime float64  `yaml:"working_time,omitempty" json:"working_time,omitempty"`

	// Serving is the station the operator currently works at. Empty means free.
	Serving string `yaml:"serving,omitempty" json:"serving,omitempty"`
}

// Job is an entity resident at a station. Jobs at the same station are
// queued in document order.
type Job struct {
	ID            string  `yaml:"id" json:"id"`
	Station       string  `yaml:"station" json:"station"`
	Manager       string  `yaml:"manager,omitempty" json:"manager,omitempty"`
	Critical      bool    `yaml:"critical,omitempty" json:"critical,omitempty"`
	Priority      int     `yaml:"priority,omitempty" json:"priority,omitempty"`
	DueDate       float64 `yaml:"due_date,omitempty" json:"due_date,omitempty"`
	OrderDate     float64 `yaml:"order_date,omitempty" json:"order_date,omitempty"`
	LastScheduled float64 `yaml:"last_scheduled,omitempty" json:"last_scheduled,omitempty"`

	// CanProceed defaults to true when omitted.
	CanProceed *bool `yaml:"can_proceed,omitempty" json:"can_proceed,omitempty"`

	Route []Step `yaml:"route,omitempty" json:"route,omitempty"`
}

// Proceeds reports the effective can_proceed flag.
func (j Job) Proceeds() bool {
	return j.CanProceed == nil || *j.CanProceed
}

// Step is one remaining route step of a job.
type Step struct {
	Stations       []string        `yaml:"stations,omitempty" json:"stations,omitempty"`
	ProcessingTime *ProcessingTime `yaml:"processing_time,omitempty" json:"processing_time,omitempty"`
}

// ProcessingTime holds the distribution parameters of a step.
type ProcessingTime struct {
	Mean float64 `yaml:"mean" json:"mean"`
}

// Station kinds.
const (
	KindMachine = "machine"
	KindQueue   = "queue"
	KindSource  = "source"
	KindExit    = "exit"
)

// OpLoad is the operation type that makes a machine need a load operator.
const OpLoad = "Load"
