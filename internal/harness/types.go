package harness

import "github.com/roach88/oprouter/internal/router"

// Trace event types. The event types of the timeline are reused for the
// events themselves.
const (
	TraceAbsorbed = "absorbed"
	TraceCycle    = "cycle"
	TraceError    = "error"
)

// TraceEvent is one line of a run's trace.
type TraceEvent struct {
	Seq  int     `json:"seq"`
	At   float64 `json:"at"`
	Type string  `json:"type"`

	// Subject names what the event touched: a job move as job->station,
	// a station or an operator.
	Subject string `json:"subject,omitempty"`

	// Cycle fields.
	Cycle       string   `json:"cycle,omitempty"`
	Mode        string   `json:"mode,omitempty"`
	Assignments []string `json:"assignments,omitempty"`
	Signals     []string `json:"signals,omitempty"`
	Dropped     []string `json:"dropped,omitempty"`
	Blocked     []string `json:"blocked,omitempty"`

	Error string `json:"error,omitempty"`
}

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true if every expectation held.
	Pass bool `json:"pass"`

	// Errors contains expectation failures. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Trace contains every applied event and every cycle, in order.
	Trace []TraceEvent `json:"trace"`

	// Outcomes are the completed cycles, in order.
	Outcomes []*router.Outcome `json:"outcomes"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:     true,
		Errors:   []string{},
		Trace:    []TraceEvent{},
		Outcomes: []*router.Outcome{},
	}
}

// AddError adds an expectation failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

func (r *Result) addTrace(ev TraceEvent) {
	ev.Seq = len(r.Trace) + 1
	r.Trace = append(r.Trace, ev)
}

// addCycleTrace records a completed cycle.
func (r *Result) addCycleTrace(o *router.Outcome) {
	ev := TraceEvent{
		At:      o.At,
		Type:    TraceCycle,
		Cycle:   o.CycleID,
		Mode:    string(o.Mode),
		Dropped: o.Dropped,
		Blocked: o.Blocked,
	}
	for _, a := range o.Assignments {
		ev.Assignments = append(ev.Assignments, formatAssignment(a))
	}
	for _, s := range o.Signals {
		ev.Signals = append(ev.Signals, formatSignal(s))
	}
	r.addTrace(ev)
}

func formatAssignment(a router.Assignment) string {
	if a.Preemptive {
		return a.Operator + "->" + a.Station + " (preemptive)"
	}
	return a.Operator + "->" + a.Station
}

func formatSignal(s router.Signal) string {
	return string(s.Kind) + ":" + s.Station
}
