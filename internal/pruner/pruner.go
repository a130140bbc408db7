// Package pruner implements the Aggressive Pruner: a fast, UNSOUND
// feasibility check used only as an advisory fast-fail inside the heuristic
// strategies (DIH/WID), never by the exhaustive "Optimal" strategy.
//
// It assumes every non-root node that is connected — ignoring edge direction
// — to another non-root node must end up in the same subgraph. That
// assumption is stronger than what the ILP actually requires (the ILP can
// legally split such a group across roots via cloning), so a positive result
// here means "likely infeasible", never "provably infeasible".
package pruner

import "mergesolver/internal/rdag"

// Check returns true if the root set R is likely infeasible: some
// weakly-connected component of non-root nodes requires, on its own, more
// memory or CPU than the container limits M/C allow (including the async
// concurrency penalty for edges internal to the component).
//
// A false result carries no feasibility guarantee either — it only means
// this particular heuristic found no violation.
func Check(g *rdag.Graph, R map[int64]bool, m, c, n int64) bool {
	nonRoot := nonRootNodes(g, R)
	if len(nonRoot) == 0 {
		return false
	}

	for _, component := range weaklyConnectedComponents(g, nonRoot) {
		var baseM, baseC int64
		for _, id := range component {
			if node, ok := g.GetNode(id); ok {
				baseM += node.M
				baseC += node.C
			}
		}
		if baseM > m || baseC > c {
			return true
		}

		inComponent := make(map[int64]bool, len(component))
		for _, id := range component {
			inComponent[id] = true
		}

		var asyncM, asyncC int64
		for _, e := range g.AllEdges() {
			if e.Type != rdag.EdgeAsync || !inComponent[e.From] || !inComponent[e.To] {
				continue
			}
			callee, ok := g.GetNode(e.To)
			if !ok {
				continue
			}
			pm, pc := rdag.AsyncPenalty(e, callee, n)
			asyncM += pm
			asyncC += pc
		}

		if baseM+asyncM > m || baseC+asyncC > c {
			return true
		}
	}

	return false
}

func nonRootNodes(g *rdag.Graph, R map[int64]bool) []int64 {
	var result []int64
	for _, id := range g.NodeIDs() {
		if !R[id] {
			result = append(result, id)
		}
	}
	return result
}

// weaklyConnectedComponents groups nodeSet into connected components over
// the undirected view of the graph, restricted to edges whose both
// endpoints are in nodeSet.
func weaklyConnectedComponents(g *rdag.Graph, nodeSet []int64) [][]int64 {
	in := make(map[int64]bool, len(nodeSet))
	for _, id := range nodeSet {
		in[id] = true
	}

	adj := make(map[int64][]int64)
	for _, e := range g.AllEdges() {
		if in[e.From] && in[e.To] {
			adj[e.From] = append(adj[e.From], e.To)
			adj[e.To] = append(adj[e.To], e.From)
		}
	}

	visited := make(map[int64]bool, len(nodeSet))
	var components [][]int64

	for _, start := range nodeSet {
		if visited[start] {
			continue
		}

		var component []int64
		queue := []int64{start}
		visited[start] = true

		for len(queue) > 0 {
			u := queue[0]
			queue = queue[1:]
			component = append(component, u)

			for _, v := range adj[u] {
				if !visited[v] {
					visited[v] = true
					queue = append(queue, v)
				}
			}
		}

		components = append(components, component)
	}

	return components
}
