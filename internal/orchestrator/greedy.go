package orchestrator

import (
	"context"
	"log/slog"
	"sort"

	"mergesolver/internal/heuristics"
	"mergesolver/internal/rdag"
)

// runGreedyRefine starts from best (the feasible solution found by the
// candidate-pool pre-check) and repeatedly removes the lowest-scoring
// non-root from the current root set whenever doing so strictly improves
// cost, restarting the pass from the smaller set each time it does. It
// halts once a full pass removes nothing.
func runGreedyRefine(ctx context.Context, p *rdag.Preprocessed, m, c, n int64, opts Options, best *Result, scores []heuristics.Scored, log *slog.Logger) (*Result, error) {
	if best == nil {
		return nil, errNoInitialSolution()
	}

	scoreOf := make(map[int64]float64, len(scores))
	for _, s := range scores {
		scoreOf[s.Node] = s.Score
	}

	log.Info("running greedy_refine", "initial_root_count", len(best.R), "initial_cost", best.Cost)

	for {
		select {
		case <-ctx.Done():
			return best, ctx.Err()
		default:
		}

		var removable []int64
		for r := range best.R {
			if r != p.Root {
				removable = append(removable, r)
			}
		}
		if len(removable) == 0 {
			break
		}
		sort.Slice(removable, func(i, j int) bool {
			if scoreOf[removable[i]] != scoreOf[removable[j]] {
				return scoreOf[removable[i]] < scoreOf[removable[j]]
			}
			return removable[i] < removable[j]
		})

		improved := false
		for _, candidate := range removable {
			tempR := make(map[int64]bool, len(best.R)-1)
			for r := range best.R {
				if r != candidate {
					tempR[r] = true
				}
			}

			res, err := solveWithCache(ctx, p, tempR, m, c, n, opts)
			if err != nil {
				return best, err
			}
			if res.Status.Feasible() && res.Cost < best.Cost {
				log.Info("greedy refinement improved solution", "removed_root", candidate,
					"new_root_count", len(tempR), "new_cost", res.Cost)
				best = &Result{Cost: res.Cost, R: tempR, Assignment: res.Assignment}
				improved = true
				break
			}
		}

		if !improved {
			log.Info("no further improvements, halting greedy refinement")
			break
		}
	}

	log.Info("greedy_refine finished", "final_root_count", len(best.R), "final_cost", best.Cost)
	return best, nil
}
