// Package ilp builds and solves the binary integer program that decides, for
// a fixed root set R, how to partition a workflow's rDAG into per-root
// subgraphs at minimum cross-root edge cost, subject to per-subgraph memory
// and CPU capacity (including the async fan-out penalty).
package ilp

import "time"

// Status mirrors the four solver outcomes the spec treats uniformly for any
// feasible result: OPTIMAL, SUBOPTIMAL, and TIME_LIMIT are all "success".
type Status int

const (
	StatusInfeasible Status = iota
	StatusOptimal
	StatusSuboptimal
	StatusTimeLimit
)

// String renders the status the way a diagnostic log would.
func (s Status) String() string {
	switch s {
	case StatusOptimal:
		return "OPTIMAL"
	case StatusSuboptimal:
		return "SUBOPTIMAL"
	case StatusTimeLimit:
		return "TIME_LIMIT"
	default:
		return "INFEASIBLE"
	}
}

// Feasible reports whether the status represents a usable solution.
func (s Status) Feasible() bool {
	return s == StatusOptimal || s == StatusSuboptimal || s == StatusTimeLimit
}

// Options configures a single subgraph-construction solve.
type Options struct {
	// TimeLimit bounds the wall-clock time GLPK spends on the MIP search.
	// Zero means no limit.
	TimeLimit time.Duration

	// MIPGap is the relative optimality gap at which the branch-and-bound
	// search may stop early and report SUBOPTIMAL/TIME_LIMIT.
	MIPGap float64

	// MIPFocus is an opaque solver hint (0 = balanced), kept for parity
	// with the spec's contract. Solve does not read it and passes nothing
	// for it to GLPK, so it has no effect on the search.
	MIPFocus int

	// NumThreads is informational for this solver (GLPK's MIP search is
	// single-threaded); parallelism across R-tuples is the orchestrator's
	// responsibility, not this package's.
	NumThreads int
}

// DefaultOptions returns conservative defaults suitable for small-to-medium
// rDAGs.
func DefaultOptions() Options {
	return Options{
		TimeLimit:  30 * time.Second,
		MIPGap:     0.0,
		MIPFocus:   0,
		NumThreads: 1,
	}
}

// Assignment records that node was placed in the subgraph rooted at Root.
type Assignment struct {
	Node int64
	Root int64
}

// Result is the outcome of a single subgraph-construction solve.
type Result struct {
	Status     Status
	Cost       float64
	Assignment []Assignment
}
