// Package harness runs resolver scenarios against the in-memory plant.
//
// A scenario embeds a plant layout and a timeline of events. The harness
// schedules the events on the plant clock, resolves after every invocation,
// records a trace and checks the outcome against the scenario's expectations.
//
// # Scenario Format
//
//	name: simple_load
//	description: "A free operator is sent to the machine its queue feeds"
//	sorting: false
//	preemption: first-found
//	layout:
//	  name: line
//	  stations: [...]
//	  operators: [...]
//	  jobs: [...]
//	events:
//	  - at: 2
//	    type: invoke
//	  - at: 2
//	    type: arrive
//	    job: J1
//	    station: Q1
//	expect:
//	  assignments: { W1: M1 }
//	  signals: ["load:M1"]
//	  dropped: []
//	  preempted: []
//	  error: CONFIGURATION
//
// # Event Types
//
//   - invoke: requests a resolution; it runs after every other event of the
//     same instant, and a second invoke before it runs is absorbed
//   - arrive: moves a job to a station
//   - block: marks a machine's broker as waiting for an operator
//   - release: frees an operator
//
// # Expectations
//
// Every expectation is optional. An absent list is not checked; an empty
// list requires that nothing happened.
//
//   - assignments: operator to station, last assignment per operator wins
//   - signals: every signal delivered, as kind:station, in order
//   - dropped: operators that lost a tie-break, in order
//   - preempted: stations preempted at least once, in layout order
//   - error: the error code that must stop the run
//
// # Golden Files
//
// AssertGolden compares a run's trace with testdata/golden/<name>.golden.
// Regenerate with:
//
//	go test ./internal/harness -update
package harness
