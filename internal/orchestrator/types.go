// Package orchestrator implements the Root-Selection Orchestrator: it drives
// repeated invocations of the subgraph-construction ILP (package ilp) over
// candidate root sets to find the minimum-cost function-merging plan for a
// workflow rDAG.
package orchestrator

import (
	"mergesolver/internal/heuristics"
	"mergesolver/internal/ilp"
)

// Mode selects the core search algorithm.
type Mode int

const (
	// ModeCombinatorial exhaustively enumerates (k-1)-combinations of the
	// candidate pool for k = 1..MaxK, solving each independently in a
	// worker pool. Suited to small graphs or small candidate pools.
	ModeCombinatorial Mode = iota

	// ModeGreedyRefine starts from a single feasible solution and
	// repeatedly removes the lowest-scoring root as long as doing so
	// strictly improves cost. Suited to large graphs where combinatorial
	// search is too expensive.
	ModeGreedyRefine
)

// String renders the mode the way a diagnostic log would.
func (m Mode) String() string {
	if m == ModeGreedyRefine {
		return "greedy_refine"
	}
	return "combinatorial"
}

// CandidateSelector wraps one of the heuristics.Select* functions behind a
// uniform signature so the orchestrator can retry with a larger candidate
// count without knowing which heuristic it is driving.
type CandidateSelector struct {
	Name string
	// Select returns the candidate root pool (excluding the graph root) and
	// the full descending score list, for a given candidate count.
	Select func(numCandidates int) (map[int64]bool, []heuristics.Scored)
}

// ResultCache memoizes repeated (graph, R) ILP evaluations. Key is expected
// to be a caller-supplied canonical hash of the pair; the orchestrator never
// interprets it. Memoization is used only when both Options.Cache and
// Options.HashKey are set; the zero Options value disables it.
type ResultCache interface {
	Get(key string) (ilp.Result, bool)
	Set(key string, result ilp.Result)
}

// Options configures a single orchestrator run.
type Options struct {
	// StrategyName labels this run for logging/metrics (e.g. "Optimal",
	// "Downstream Impact", "Weighted In-Degree").
	StrategyName string

	// MaxK is the maximum number of subgraphs (roots) to consider.
	MaxK int

	// Selector chooses the candidate root pool. Nil means "Optimal": every
	// non-root node is a candidate and no heuristic pre-check runs.
	Selector *CandidateSelector

	// InitialNumCandidates seeds Selector.Select on the first attempt; each
	// retry increments it by one, up to len(graph nodes) attempts.
	InitialNumCandidates int

	// MaxCombinationsThreshold caps the number of (k-1)-combinations
	// explored at any single k, but only when Selector is nil (the Optimal
	// strategy); heuristic-driven runs never hit this cap since their pool
	// is already small. Zero disables the cap.
	MaxCombinationsThreshold int

	// Mode selects combinatorial vs. greedy-refine search.
	Mode Mode

	// Solver carries the ILP solver's own tuning knobs (time limit, MIP
	// gap, ...). NumThreads is forced to 1 by this package for every solve,
	// in both combinatorial and greedy-refine mode — concurrency comes only
	// from NumWorkers in combinatorial mode, never from the ILP solver
	// itself, and greedy-refine solves run one at a time with one thread.
	Solver ilp.Options

	// NumWorkers bounds the number of concurrent ILP solves in
	// combinatorial mode. Defaults to 1 if <= 0.
	NumWorkers int

	// Cache optionally memoizes ILP evaluations across retries/strategies.
	Cache ResultCache

	// HashKey builds the cache key for a given root set, when Cache is set.
	HashKey func(R map[int64]bool) string
}

// Result is the outcome of a completed orchestrator run.
type Result struct {
	Cost       float64
	R          map[int64]bool
	Assignment []ilp.Assignment

	// LimitHit is true when the Optimal strategy's combination threshold
	// cut the search short — the returned cost is the best found so far,
	// not guaranteed globally optimal.
	LimitHit bool

	// PrunedCount is the number of combinatorial root-set configurations
	// whose ILP evaluation gave no feasible result (including structural
	// short-circuits). Candidate pools rejected by the aggressive pruner are
	// not counted, and greedy-refine mode leaves it at zero.
	PrunedCount int
}
