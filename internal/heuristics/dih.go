package heuristics

import (
	"math/rand"
	"sort"

	"mergesolver/internal/rdag"
)

const epsilon = 1e-9

// DIHWeights holds the three coefficients of the Downstream Impact Heuristic
// score: beta for weighted in-degree, gamma for downstream memory impact,
// delta for downstream CPU impact. gamma and delta are further scaled by the
// graph's memory/CPU pressure before use (see SelectDownstreamCandidates).
type DIHWeights struct {
	Beta  float64
	Gamma float64
	Delta float64
}

// DIHOptions configures a single DIH candidate-selection call.
type DIHOptions struct {
	NumCandidates int
	M             int64 // container memory capacity
	C             int64 // container CPU capacity
	N             int64 // invocation capacity per container instance
	Weights       DIHWeights
	RCLSize       int
	Rand          *rand.Rand
}

// SelectDownstreamCandidates runs the Downstream Impact Heuristic: it scores
// every non-root node by its weighted in-degree plus its normalized,
// pressure-adjusted downstream memory and CPU footprint, then selects
// opts.NumCandidates of them via GRASP.
//
// It returns the selected candidate set and the full score list (sorted
// descending), the latter reused by the orchestrator's greedy-refine mode to
// rank roots for removal without rescoring.
func SelectDownstreamCandidates(p *rdag.Preprocessed, opts DIHOptions) (map[int64]bool, []Scored) {
	if opts.NumCandidates <= 0 {
		return map[int64]bool{}, nil
	}
	if opts.M <= 0 || opts.C <= 0 || opts.N <= 0 {
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

	descendants := computeDescendants(g, p.ReverseTopoOrder)

	downstreamM := make(map[int64]int64, len(toConsider))
	downstreamC := make(map[int64]int64, len(toConsider))
	weightedInDegree := make(map[int64]float64, len(toConsider))
	var maxWIn float64

	for _, j := range toConsider {
		descSet := descendants[j]

		var dsM, dsC int64
		for x := range descSet {
			if n, ok := g.GetNode(x); ok {
				dsM += n.M
				dsC += n.C
			}
		}

		var asyncM, asyncC int64
		for _, e := range g.AllEdges() {
			if e.Type != rdag.EdgeAsync || !descSet[e.From] || !descSet[e.To] {
				continue
			}
			callee, ok := g.GetNode(e.To)
			if !ok {
				continue
			}
			m, c := rdag.AsyncPenalty(e, callee, opts.N)
			asyncM += m
			asyncC += c
		}

		downstreamM[j] = dsM + asyncM
		downstreamC[j] = dsC + asyncC

		var wIn float64
		for _, u := range p.Predecessors[j] {
			if e, ok := g.GetEdge(u, j); ok {
				wIn += float64(e.Weight)
			}
		}
		weightedInDegree[j] = wIn
		if wIn > maxWIn {
			maxWIn = wIn
		}
	}

	var totalM, totalC int64
	for _, id := range p.AllNodes {
		if n, ok := g.GetNode(id); ok {
			totalM += n.M
			totalC += n.C
		}
	}
	memPressure := float64(totalM) / (float64(opts.M) + epsilon)
	cpuPressure := float64(totalC) / (float64(opts.C) + epsilon)
	gammaAdjusted := opts.Weights.Gamma * (1 + memPressure)
	deltaAdjusted := opts.Weights.Delta * (1 + cpuPressure)

	scores := make([]Scored, 0, len(toConsider))
	for _, j := range toConsider {
		normWIn := weightedInDegree[j] / (maxWIn + epsilon)
		normDsM := float64(downstreamM[j]) / (float64(opts.M) + epsilon)
		normDsC := float64(downstreamC[j]) / (float64(opts.C) + epsilon)

		score := opts.Weights.Beta*normWIn + gammaAdjusted*normDsM + deltaAdjusted*normDsC
		scores = append(scores, Scored{Node: j, Score: score})
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

// computeDescendants returns, for every node, the set of nodes reachable
// from it (including itself), computed bottom-up in reverse topological
// order so each node's descendant set is built from its already-computed
// successors' sets in O(1) amortized set unions per edge.
func computeDescendants(g *rdag.Graph, reverseTopoOrder []int64) map[int64]map[int64]bool {
	memo := make(map[int64]map[int64]bool, len(reverseTopoOrder))
	for _, node := range reverseTopoOrder {
		set := map[int64]bool{node: true}
		for _, succ := range g.Successors(node) {
			for d := range memo[succ] {
				set[d] = true
			}
		}
		memo[node] = set
	}
	return memo
}
