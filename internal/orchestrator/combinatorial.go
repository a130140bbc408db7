package orchestrator

import (
	"context"
	"log/slog"
	"sync"

	"mergesolver/internal/ilp"
	"mergesolver/internal/rdag"
)

// workerOutcome is the per-tuple result of a combinatorial dispatch; nil
// means the solve was infeasible, erred, or never ran.
type workerOutcome struct {
	R          map[int64]bool
	cost       float64
	assignment []ilp.Assignment
}

// runCombinatorial enumerates (k-1)-combinations of pool for k = 1..MaxK,
// each combined with the graph root to form a full candidate root set,
// dispatching independent ILP solves across a bounded worker pool (a
// buffered-channel semaphore, mirroring SolverPool.Acquire/Release). Already
// solved configurations (e.g. from the pre-check) are skipped via
// tried-configuration dedup. When Selector is nil (the Optimal strategy) and
// MaxCombinationsThreshold is set, a k whose combination count would exceed
// it stops the search early and sets LimitHit.
func runCombinatorial(ctx context.Context, p *rdag.Preprocessed, m, c, n int64, opts Options, pool map[int64]bool, preCheckBest *Result, log *slog.Logger) (*Result, error) {
	log.Info("running combinatorial", "pool_size", len(pool), "max_k", opts.MaxK)

	best := preCheckBest
	triedConfigs := make(map[string]bool)
	if preCheckBest != nil {
		triedConfigs[rootSetKey(sortedInt64(preCheckBest.R))] = true
	}
	prunedCount := 0
	limitHit := false

	poolList := sortedInt64(pool)

	for k := 1; k <= opts.MaxK; k++ {
		if limitHit {
			break
		}
		kMinus1 := k - 1
		if kMinus1 > len(poolList) {
			continue
		}

		var tuples [][]int64
		if k == 1 {
			tuples = [][]int64{{p.Root}}
		} else {
			if opts.Selector == nil && opts.MaxCombinationsThreshold > 0 {
				if numCombinations(len(poolList), kMinus1) > int64(opts.MaxCombinationsThreshold) {
					log.Info("stopping search: combination count exceeds threshold", "k", k)
					limitHit = true
					break
				}
			}
			combos := combinations(poolList, kMinus1)
			for _, combo := range combos {
				tuple := append([]int64{p.Root}, combo...)
				tuples = append(tuples, tuple)
			}
		}

		var toRun [][]int64
		for _, t := range tuples {
			key := rootSetKey(t)
			if triedConfigs[key] {
				continue
			}
			triedConfigs[key] = true
			toRun = append(toRun, t)
		}
		if len(toRun) == 0 {
			continue
		}

		results := dispatch(ctx, p, m, c, n, opts, toRun)
		for _, outcome := range results {
			if outcome == nil {
				prunedCount++
				continue
			}
			if best == nil || outcome.cost < best.Cost {
				best = &Result{Cost: outcome.cost, R: outcome.R, Assignment: outcome.assignment}
				log.Info("new best solution found", "root_count", len(outcome.R), "cost", outcome.cost)
			}
		}
	}

	log.Info("combinatorial search finished", "pruned_count", prunedCount, "limit_hit", limitHit)

	if best == nil {
		return &Result{LimitHit: limitHit, PrunedCount: prunedCount}, nil
	}
	best.LimitHit = limitHit
	best.PrunedCount = prunedCount
	return best, nil
}

// dispatch runs one ILP solve per tuple across a bounded worker pool (a
// semaphore channel of size opts.NumWorkers), returning one outcome per
// tuple in the same order, nil where the solve was infeasible or failed.
func dispatch(ctx context.Context, p *rdag.Preprocessed, m, c, n int64, opts Options, tuples [][]int64) []*workerOutcome {
	results := make([]*workerOutcome, len(tuples))
	sem := make(chan struct{}, effectiveWorkers(opts.NumWorkers))
	var wg sync.WaitGroup

	for i, tuple := range tuples {
		wg.Add(1)
		sem <- struct{}{}
		go func(idx int, roots []int64) {
			defer wg.Done()
			defer func() { <-sem }()

			R := make(map[int64]bool, len(roots))
			for _, r := range roots {
				R[r] = true
			}

			res, err := solveWithCache(ctx, p, R, m, c, n, opts)
			if err != nil || !res.Status.Feasible() {
				return
			}

			results[idx] = &workerOutcome{
				R:          R,
				cost:       res.Cost,
				assignment: res.Assignment,
			}
		}(i, tuple)
	}

	wg.Wait()
	return results
}
