package orchestrator

import (
	"context"
	"log/slog"
	"sort"

	"mergesolver/internal/heuristics"
	"mergesolver/internal/ilp"
	"mergesolver/internal/pruner"
	"mergesolver/internal/rdag"
	"mergesolver/pkg/apperror"
)

// Run finds the minimum-cost root set for the given preprocessed rDAG under
// memory/CPU capacity M/C and per-container invocation capacity N, following
// opts.Mode. It returns *apperror.Error with CodeTriviallyInfeasible if a
// single node's own requirements already exceed capacity, or
// CodeHeuristicPoolInfeasible if no feasible candidate pool was found within
// the retry budget.
func Run(ctx context.Context, p *rdag.Preprocessed, m, c, n int64, opts Options) (*Result, error) {
	log := slog.With("strategy", opts.StrategyName, "mode", opts.Mode.String())

	for _, id := range p.AllNodes {
		node, ok := p.Graph.GetNode(id)
		if !ok {
			continue
		}
		if node.M > m || node.C > c {
			log.Warn("single node exceeds container capacity, problem is infeasible", "node", id)
			return nil, apperror.New(apperror.CodeTriviallyInfeasible,
				"a single function's requirements exceed container capacity").
				WithDetails("node", id)
		}
	}

	log.Info("starting root selection", "num_workers", effectiveWorkers(opts.NumWorkers))

	pool, best, scores, err := selectCandidatePool(ctx, p, m, c, n, opts, log)
	if err != nil {
		return nil, err
	}

	switch opts.Mode {
	case ModeGreedyRefine:
		return runGreedyRefine(ctx, p, m, c, n, opts, best, scores, log)
	default:
		return runCombinatorial(ctx, p, m, c, n, opts, pool, best, log)
	}
}

// selectCandidatePool runs the candidate-selection retry loop: for
// heuristic-driven strategies, it asks the selector for a candidate pool,
// pre-checks it via the aggressive pruner and a full ILP solve, and retries
// with a larger pool on failure, up to len(graph nodes) attempts. For the
// Optimal strategy (nil Selector) it returns every non-root node immediately.
func selectCandidatePool(ctx context.Context, p *rdag.Preprocessed, m, c, n int64, opts Options, log *slog.Logger) (map[int64]bool, *Result, []heuristics.Scored, error) {
	if opts.Selector == nil {
		pool := make(map[int64]bool)
		for _, id := range p.AllNodes {
			if id != p.Root {
				pool[id] = true
			}
		}
		return pool, nil, nil, nil
	}

	maxRetries := len(p.AllNodes)
	if maxRetries < 1 {
		maxRetries = 1
	}
	numCandidates := opts.InitialNumCandidates

	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			numCandidates++
			log.Info("retrying candidate selection", "attempt", attempt+1, "num_candidates", numCandidates)
		}

		candidatePool, scores := opts.Selector.Select(numCandidates)
		if len(candidatePool) == 0 {
			continue
		}

		fullR := make(map[int64]bool, len(candidatePool)+1)
		for id := range candidatePool {
			fullR[id] = true
		}
		fullR[p.Root] = true

		if pruner.Check(p.Graph, fullR, m, c, n) {
			log.Info("candidate pool failed aggressive prune check, retrying")
			continue
		}

		res, err := solveWithCache(ctx, p, fullR, m, c, n, opts)
		if err != nil {
			return nil, nil, nil, err
		}
		if !res.Status.Feasible() {
			log.Info("ILP found no feasible solution with full candidate pool, retrying")
			continue
		}

		log.Info("candidate pool pre-check passed", "pool_size", len(candidatePool))

		best := &Result{Cost: res.Cost, R: fullR, Assignment: res.Assignment}
		return candidatePool, best, scores, nil
	}

	return nil, nil, nil, apperror.New(apperror.CodeHeuristicPoolInfeasible,
		"no feasible candidate pool found within the retry budget")
}

func solveWithCache(ctx context.Context, p *rdag.Preprocessed, R map[int64]bool, m, c, n int64, opts Options) (ilp.Result, error) {
	select {
	case <-ctx.Done():
		return ilp.Result{Status: ilp.StatusInfeasible}, ctx.Err()
	default:
	}

	var key string
	if opts.Cache != nil && opts.HashKey != nil {
		key = opts.HashKey(R)
		if cached, ok := opts.Cache.Get(key); ok {
			return cached, nil
		}
	}

	solverOpts := opts.Solver
	solverOpts.NumThreads = 1
	res, err := ilp.Solve(p, R, m, c, n, solverOpts)
	if err != nil {
		return ilp.Result{}, err
	}

	if opts.Cache != nil && opts.HashKey != nil {
		opts.Cache.Set(key, res)
	}
	return res, nil
}

func effectiveWorkers(n int) int {
	if n <= 0 {
		return 1
	}
	return n
}

func errNoInitialSolution() error {
	return apperror.New(apperror.CodeHeuristicPoolInfeasible,
		"no initial feasible solution found to refine")
}

func sortedInt64(m map[int64]bool) []int64 {
	out := make([]int64, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
