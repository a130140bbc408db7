package ilp

import (
	"sort"

	"mergesolver/internal/rdag"
)

// rowKind classifies a linear constraint's bound shape.
type rowKind int

const (
	rowUp    rowKind = iota // coefs . x <= ub
	rowLo                   // coefs . x >= lb
	rowFixed                // coefs . x == lb (== ub)
)

type row struct {
	name  string
	coefs map[int]float64
	kind  rowKind
	lb    float64
	ub    float64
}

// model is a solver-agnostic binary ILP: every column is a 0/1 variable, so
// only the objective and the constraint rows need to be carried to whatever
// backend actually runs branch-and-bound.
type model struct {
	numCols int
	objCoef map[int]float64 // column -> coefficient, only the variable part
	rows    []row

	yIndex map[yKey]int
	zIndex map[zKey]int

	// totalPotentialCost is the constant term of the true objective; the
	// actual cross-root cost is totalPotentialCost + (solved objective
	// value), since the solved part is -sum(weight*y) over cross-root
	// candidate edges.
	totalPotentialCost float64
}

type yKey struct {
	Node int64
	Root int64
}

type zKey struct {
	U    int64
	V    int64
	Root int64
}

// buildModel constructs the subgraph-construction ILP for a fixed root set R.
// It returns (nil, true) when the model is structurally infeasible and no
// solve is needed at all: R is empty, contains a node outside the graph, or
// some node of the graph is unreachable from every root in R (so the coverage
// constraint could never be satisfied).
func buildModel(p *rdag.Preprocessed, R map[int64]bool, mCap, cCap, n int64) (*model, bool) {
	roots := make([]int64, 0, len(R))
	for r := range R {
		roots = append(roots, r)
	}
	sort.Slice(roots, func(i, j int) bool { return roots[i] < roots[j] })

	if len(roots) == 0 {
		return nil, true
	}

	g := p.Graph
	for _, r := range roots {
		if _, ok := g.GetNode(r); !ok {
			return nil, true
		}
	}

	covered := make(map[int64]bool, len(p.AllNodes))
	for _, r := range roots {
		for i := range p.FullReachableFrom[r] {
			covered[i] = true
		}
	}
	for _, id := range p.AllNodes {
		if !covered[id] {
			return nil, true
		}
	}

	mdl := &model{
		objCoef: make(map[int]float64),
		yIndex:  make(map[yKey]int),
		zIndex:  make(map[zKey]int),
	}

	nextCol := 1
	allocY := func(node, root int64) int {
		k := yKey{Node: node, Root: root}
		if col, ok := mdl.yIndex[k]; ok {
			return col
		}
		col := nextCol
		nextCol++
		mdl.yIndex[k] = col
		return col
	}
	allocZ := func(u, v, root int64) int {
		k := zKey{U: u, V: v, Root: root}
		if col, ok := mdl.zIndex[k]; ok {
			return col
		}
		col := nextCol
		nextCol++
		mdl.zIndex[k] = col
		return col
	}

	// 1. Variables y(i, r) for every r in R and every i reachable from r.
	for _, r := range roots {
		reach := make([]int64, 0, len(p.FullReachableFrom[r]))
		for i := range p.FullReachableFrom[r] {
			reach = append(reach, i)
		}
		sort.Slice(reach, func(a, b int) bool { return reach[a] < reach[b] })
		for _, i := range reach {
			allocY(i, r)
		}
	}

	// Variables z(u, v, r): only for async edges whose concurrency penalty is
	// non-zero and whose endpoints are both possibly assigned to root r.
	for _, e := range g.AllEdges() {
		if e.Type != rdag.EdgeAsync {
			continue
		}
		callee, ok := g.GetNode(e.To)
		if !ok {
			continue
		}
		memPenalty, cpuPenalty := rdag.AsyncPenalty(e, callee, n)
		if memPenalty == 0 && cpuPenalty == 0 {
			continue
		}
		for _, r := range roots {
			_, uOK := mdl.yIndex[yKey{Node: e.From, Root: r}]
			_, vOK := mdl.yIndex[yKey{Node: e.To, Root: r}]
			if uOK && vOK {
				allocZ(e.From, e.To, r)
			}
		}
	}

	mdl.numCols = nextCol - 1

	// Constraint 1: root inclusion, y(r, r) = 1.
	for _, r := range roots {
		col := mdl.yIndex[yKey{Node: r, Root: r}]
		mdl.rows = append(mdl.rows, row{
			name:  "root_inclusion",
			coefs: map[int]float64{col: 1},
			kind:  rowFixed,
			lb:    1,
			ub:    1,
		})
	}

	// Constraint 2: coverage/cloning, every node assigned to at least one root.
	for _, i := range p.AllNodes {
		coefs := make(map[int]float64)
		for _, r := range roots {
			if col, ok := mdl.yIndex[yKey{Node: i, Root: r}]; ok {
				coefs[col] = 1
			}
		}
		mdl.rows = append(mdl.rows, row{
			name:  "coverage",
			coefs: coefs,
			kind:  rowLo,
			lb:    1,
		})
	}

	// Constraint 3: connectivity within each subgraph.
	for _, r := range roots {
		for _, i := range sortedKeys(p.FullReachableFrom[r]) {
			if i == r {
				continue
			}
			iCol := mdl.yIndex[yKey{Node: i, Root: r}]

			var predCols []int
			for _, pred := range p.Predecessors[i] {
				if col, ok := mdl.yIndex[yKey{Node: pred, Root: r}]; ok {
					predCols = append(predCols, col)
				}
			}

			if len(predCols) == 0 {
				mdl.rows = append(mdl.rows, row{
					name:  "connectivity_none",
					coefs: map[int]float64{iCol: 1},
					kind:  rowFixed,
					lb:    0,
					ub:    0,
				})
				continue
			}

			coefs := map[int]float64{iCol: 1}
			for _, pc := range predCols {
				coefs[pc] -= 1
			}
			mdl.rows = append(mdl.rows, row{
				name:  "connectivity",
				coefs: coefs,
				kind:  rowUp,
				ub:    0,
			})
		}
	}

	// Constraint 4: cross-edge rule for edges whose head is not itself a root
	// in R — the tail may only join the head's subgraph.
	for _, e := range g.AllEdges() {
		if roots2Set(roots)[e.To] {
			continue
		}
		for _, r := range roots {
			iCol, iOK := mdl.yIndex[yKey{Node: e.From, Root: r}]
			jCol, jOK := mdl.yIndex[yKey{Node: e.To, Root: r}]
			if !iOK || !jOK {
				continue
			}
			mdl.rows = append(mdl.rows, row{
				name:  "cross_edge",
				coefs: map[int]float64{iCol: 1, jCol: -1},
				kind:  rowUp,
				ub:    0,
			})
		}
	}

	// Constraints 5 & 6: per-root memory and CPU capacity, including async
	// concurrency penalties via the z variables.
	for _, r := range roots {
		memCoefs := make(map[int]float64)
		cpuCoefs := make(map[int]float64)
		for _, i := range sortedKeys(p.FullReachableFrom[r]) {
			node, ok := g.GetNode(i)
			if !ok {
				continue
			}
			col := mdl.yIndex[yKey{Node: i, Root: r}]
			memCoefs[col] += float64(node.M)
			cpuCoefs[col] += float64(node.C)
		}
		for k, col := range mdl.zIndex {
			if k.Root != r {
				continue
			}
			e, ok := g.GetEdge(k.U, k.V)
			if !ok {
				continue
			}
			callee, ok := g.GetNode(k.V)
			if !ok {
				continue
			}
			memPenalty, cpuPenalty := rdag.AsyncPenalty(e, callee, n)
			memCoefs[col] += float64(memPenalty)
			cpuCoefs[col] += float64(cpuPenalty)
		}
		mdl.rows = append(mdl.rows, row{name: "memory_capacity", coefs: memCoefs, kind: rowUp, ub: float64(mCap)})
		mdl.rows = append(mdl.rows, row{name: "cpu_capacity", coefs: cpuCoefs, kind: rowUp, ub: float64(cCap)})
	}

	// Constraint 7: z-linearization, z == y(u,r) AND y(v,r).
	for k, zCol := range mdl.zIndex {
		uCol := mdl.yIndex[yKey{Node: k.U, Root: k.Root}]
		vCol := mdl.yIndex[yKey{Node: k.V, Root: k.Root}]

		mdl.rows = append(mdl.rows, row{
			name:  "z_le_u",
			coefs: map[int]float64{zCol: 1, uCol: -1},
			kind:  rowUp,
			ub:    0,
		})
		mdl.rows = append(mdl.rows, row{
			name:  "z_le_v",
			coefs: map[int]float64{zCol: 1, vCol: -1},
			kind:  rowUp,
			ub:    0,
		})
		mdl.rows = append(mdl.rows, row{
			name:  "z_ge_u_plus_v_minus_1",
			coefs: map[int]float64{zCol: 1, uCol: -1, vCol: -1},
			kind:  rowLo,
			lb:    -1,
		})
	}

	// Objective: minimize totalPotentialCost - sum(weight(i,j)*y(i,j)) over
	// edges (i,j) where j is itself a root in R.
	rootSet := roots2Set(roots)
	for _, e := range g.AllEdges() {
		if !rootSet[e.To] {
			continue
		}
		mdl.totalPotentialCost += float64(e.Weight)
		if col, ok := mdl.yIndex[yKey{Node: e.From, Root: e.To}]; ok {
			mdl.objCoef[col] -= float64(e.Weight)
		}
	}

	return mdl, false
}

func sortedKeys(m map[int64]bool) []int64 {
	keys := make([]int64, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

func roots2Set(roots []int64) map[int64]bool {
	s := make(map[int64]bool, len(roots))
	for _, r := range roots {
		s[r] = true
	}
	return s
}
