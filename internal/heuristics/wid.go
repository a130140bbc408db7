package heuristics

import (
	"math/rand"
	"sort"

	"mergesolver/internal/rdag"
)

// WIDOptions configures a single Weighted In-Degree candidate-selection
// call. Unlike DIH, WID only looks at a node's immediate incoming edges, so
// it needs none of DIH's capacity/pressure inputs.
type WIDOptions struct {
	NumCandidates int
	RCLSize       int
	Rand          *rand.Rand
}

// SelectWeightedDegreeCandidates runs the baseline Weighted In-Degree
// heuristic: it scores every non-root node by the sum of its incoming edge
// weights and selects opts.NumCandidates of them via GRASP. It is "local"
// compared to DIH, considering only a node's direct predecessors rather than
// its entire downstream subgraph.
func SelectWeightedDegreeCandidates(p *rdag.Preprocessed, opts WIDOptions) (map[int64]bool, []Scored) {
	if opts.NumCandidates <= 0 {
		return map[int64]bool{}, nil
	}

	g := p.Graph

	var toConsider []int64
	for _, id := range p.AllNodes {
		if id != p.Root {
			toConsider = append(toConsider, id)
		}
	}
	if len(toConsider) == 0 {
		return map[int64]bool{}, nil
	}

	scores := make([]Scored, 0, len(toConsider))
	for _, node := range toConsider {
		var wIn float64
		for _, u := range p.Predecessors[node] {
			if e, ok := g.GetEdge(u, node); ok {
				wIn += float64(e.Weight)
			}
		}
		scores = append(scores, Scored{Node: node, Score: wIn})
	}

	sort.SliceStable(scores, func(i, j int) bool {
		if scores[i].Score != scores[j].Score {
			return scores[i].Score > scores[j].Score
		}
		return scores[i].Node < scores[j].Node
	})

	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	rclSize := opts.RCLSize
	if rclSize < 1 {
		rclSize = 1
	}

	selected := GRASPSelect(scores, opts.NumCandidates, rclSize, rng)
	return selected, scores
}
