package rdag

import (
	"mergesolver/pkg/apperror"
)

// Preprocessed bundles every graph-derived fact the solver components need
// so they never have to recompute it: the unique root, the node list (in no
// particular order), predecessor lists, full reachability from every node, and a reverse
// topological order for descendant memoization (see Appendix B of the
// underlying heuristics).
type Preprocessed struct {
	Graph             *Graph
	Root              int64
	AllNodes          []int64
	Predecessors      map[int64][]int64
	FullReachableFrom map[int64]map[int64]bool
	ReverseTopoOrder  []int64
}

// Preprocess validates that g is a valid rDAG (acyclic, single in-degree-0
// root) and precomputes the data every downstream component needs.
//
// It returns a *apperror.Error with CodeNotADAG if g contains a cycle,
// CodeNoRoot if no node has in-degree 0, or CodeMultipleRoots if more than
// one does.
func Preprocess(g *Graph) (*Preprocessed, error) {
	topoOrder, ok := topologicalSort(g)
	if !ok {
		return nil, apperror.New(apperror.CodeNotADAG, "graph contains a cycle")
	}

	root, err := findRoot(g)
	if err != nil {
		return nil, err
	}

	allNodes := g.NodeIDs()
	predecessors := make(map[int64][]int64, len(allNodes))
	for _, id := range allNodes {
		preds := g.Predecessors(id)
		cp := make([]int64, len(preds))
		copy(cp, preds)
		predecessors[id] = cp
	}

	fullReachableFrom := computeFullReachability(g, allNodes)

	reverseTopo := make([]int64, len(topoOrder))
	for i, id := range topoOrder {
		reverseTopo[len(topoOrder)-1-i] = id
	}

	return &Preprocessed{
		Graph:             g,
		Root:              root,
		AllNodes:          allNodes,
		Predecessors:      predecessors,
		FullReachableFrom: fullReachableFrom,
		ReverseTopoOrder:  reverseTopo,
	}, nil
}

// findRoot returns the single node with in-degree 0, or an error if there is
// zero or more than one such node.
func findRoot(g *Graph) (int64, error) {
	var roots []int64
	for _, id := range g.NodeIDs() {
		if g.InDegree(id) == 0 {
			roots = append(roots, id)
		}
	}

	switch len(roots) {
	case 0:
		return 0, apperror.New(apperror.CodeNoRoot, "graph has no node with in-degree 0")
	case 1:
		return roots[0], nil
	default:
		return 0, apperror.New(apperror.CodeMultipleRoots, "graph has multiple nodes with in-degree 0").
			WithDetails("roots", roots)
	}
}

// topologicalSort performs Kahn's algorithm, returning the nodes in
// topological order and false if the graph contains a cycle.
func topologicalSort(g *Graph) ([]int64, bool) {
	allNodes := g.NodeIDs()
	inDegree := make(map[int64]int, len(allNodes))
	for _, id := range allNodes {
		inDegree[id] = g.InDegree(id)
	}

	queue := make([]int64, 0, len(allNodes))
	for _, id := range allNodes {
		if inDegree[id] == 0 {
			queue = append(queue, id)
		}
	}

	order := make([]int64, 0, len(allNodes))
	for len(queue) > 0 {
		u := queue[0]
		queue = queue[1:]
		order = append(order, u)

		for _, v := range g.Successors(u) {
			inDegree[v]--
			if inDegree[v] == 0 {
				queue = append(queue, v)
			}
		}
	}

	return order, len(order) == len(allNodes)
}

// computeFullReachability computes, for every node r in roots, the set of
// nodes reachable from r (including r itself) via a BFS over successors.
// The ILP only ever builds variables y(i, r) for i in FullReachableFrom[r].
func computeFullReachability(g *Graph, roots []int64) map[int64]map[int64]bool {
	result := make(map[int64]map[int64]bool, len(roots))
	for _, r := range roots {
		visited := map[int64]bool{r: true}
		queue := []int64{r}
		for len(queue) > 0 {
			u := queue[0]
			queue = queue[1:]
			for _, v := range g.Successors(u) {
				if !visited[v] {
					visited[v] = true
					queue = append(queue, v)
				}
			}
		}
		result[r] = visited
	}
	return result
}
