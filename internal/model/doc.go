// Package model defines the collaborator contracts the operator router consumes.
//
// The router never owns stations, operators or jobs. It receives them through
// these interfaces, reads a Snapshot of the registries once per cycle, and
// mutates only the assignment state the contracts expose (AssignTo, Unassign,
// UnassignExit) plus the signalling and preemption primitives.
//
// Identity is the ID() string. Two values with the same ID are the same
// object as far as the router is concerned; all per-cycle bookkeeping is keyed
// by ID so long-lived objects carry no router scratch state.
//
// Errors:
//
//   - CONFIGURATION: unknown or inconsistent scheduling criterion. The model
//     is mis-specified and the run should abort.
//   - INTERNAL_CONSISTENCY: the router's own bookkeeping disagrees with
//     itself (a signalled station missing from the signal set, an empty
//     conflict group). Always a bug, never suppressed.
package model
