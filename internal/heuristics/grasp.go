// Package heuristics implements the GRASP-wrapped root-candidate selectors
// used by the root-selection orchestrator when the candidate pool is too
// large to search exhaustively: the Downstream Impact Heuristic (DIH) and
// the Weighted In-Degree heuristic (WID).
package heuristics

import "math/rand"

// Scored pairs a node with its heuristic score, sorted descending by Score
// by the caller. It is also handed back to the orchestrator so greedy-refine
// can look up a node's score without recomputing it.
type Scored struct {
	Node  int64
	Score float64
}

// GRASPSelect builds a restricted candidate list (RCL) of the best `rclSize`
// entries of the (already score-descending-sorted) `scores` slice and picks
// one uniformly at random via rng, repeating until `numCandidates` distinct
// nodes have been chosen or the pool is exhausted. rclSize of 1 degenerates
// to pure greedy selection; rclSize > 1 introduces randomized diversity to
// help the orchestrator's retry loop escape a single bad candidate pool.
//
// rng must not be nil; callers that want reproducible selections should pass
// a rand.New(rand.NewSource(seed)) built once per solve invocation.
func GRASPSelect(scores []Scored, numCandidates, rclSize int, rng *rand.Rand) map[int64]bool {
	selected := make(map[int64]bool, numCandidates)
	if numCandidates <= 0 {
		return selected
	}

	remaining := make([]Scored, len(scores))
	copy(remaining, scores)

	numToSelect := numCandidates
	if numToSelect > len(remaining) {
		numToSelect = len(remaining)
	}

	for i := 0; i < numToSelect; i++ {
		if len(remaining) == 0 {
			break
		}

		currentRCLSize := rclSize
		if currentRCLSize > len(remaining) {
			currentRCLSize = len(remaining)
		}
		if currentRCLSize < 1 {
			currentRCLSize = 1
		}

		choice := rng.Intn(currentRCLSize)
		chosen := remaining[choice].Node
		selected[chosen] = true

		filtered := remaining[:0:0]
		for _, s := range remaining {
			if s.Node != chosen {
				filtered = append(filtered, s)
			}
		}
		remaining = filtered
	}

	return selected
}
