package ilp

import (
	"sort"

	"github.com/lukpank/go-glpk/glpk"

	"mergesolver/internal/rdag"
)

// Solve builds and runs the subgraph-construction ILP for the fixed root set
// R against the GLPK MIP branch-and-bound solver. mCap/cCap are the
// per-subgraph memory/CPU capacities and n is the per-container invocation
// capacity used to derive the async concurrency penalty.
//
// A structurally infeasible R (empty, containing a node outside the graph,
// or unable to cover every node) short-circuits to StatusInfeasible without
// ever invoking GLPK, per the solver's contract.
func Solve(p *rdag.Preprocessed, R map[int64]bool, mCap, cCap, n int64, opts Options) (Result, error) {
	mdl, triviallyInfeasible := buildModel(p, R, mCap, cCap, n)
	if triviallyInfeasible {
		return Result{Status: StatusInfeasible}, nil
	}
	if mdl.numCols == 0 {
		return Result{Status: StatusInfeasible}, nil
	}

	lp := glpk.New()
	defer lp.Delete()

	lp.SetProbName("subgraph-construction")
	lp.SetObjDir(glpk.MIN)

	lp.AddCols(mdl.numCols)
	for col := 1; col <= mdl.numCols; col++ {
		lp.SetColKind(col, glpk.BV)
		lp.SetObjCoef(col, mdl.objCoef[col])
	}

	lp.AddRows(len(mdl.rows))
	for i, r := range mdl.rows {
		rowNum := i + 1
		lp.SetRowName(rowNum, r.name)

		switch r.kind {
		case rowFixed:
			lp.SetRowBnds(rowNum, glpk.FX, r.lb, r.lb)
		case rowLo:
			lp.SetRowBnds(rowNum, glpk.LO, r.lb, 0)
		default: // rowUp
			lp.SetRowBnds(rowNum, glpk.UP, 0, r.ub)
		}

		cols := make([]int, 0, len(r.coefs))
		for col := range r.coefs {
			cols = append(cols, col)
		}
		sort.Ints(cols)

		ind := make([]int32, len(cols)+1)
		val := make([]float64, len(cols)+1)
		for k, col := range cols {
			ind[k+1] = int32(col)
			val[k+1] = r.coefs[col]
		}
		lp.SetMatRow(rowNum, ind, val)
	}

	iocp := glpk.NewIocp()
	iocp.SetPresolve(true)
	iocp.SetMsgLev(glpk.MSG_OFF)
	if opts.TimeLimit > 0 {
		iocp.SetTmLim(int(opts.TimeLimit.Milliseconds()))
	}
	if opts.MIPGap > 0 {
		iocp.SetMIPGap(opts.MIPGap)
	}

	timedOut := false
	if err := lp.Intopt(iocp); err != nil {
		// GLPK returns a non-nil error both for genuine infeasibility and
		// for a time/iteration limit reached before any incumbent exists;
		// the MIP status below is the authoritative signal either way.
		timedOut = true
	}

	status := mipStatus(lp, timedOut)
	if !status.Feasible() {
		return Result{Status: status}, nil
	}

	cost := mdl.totalPotentialCost + lp.MipObjVal()

	var assignment []Assignment
	for k, col := range mdl.yIndex {
		if lp.MipColVal(col) > 0.5 {
			assignment = append(assignment, Assignment{Node: k.Node, Root: k.Root})
		}
	}
	sort.Slice(assignment, func(i, j int) bool {
		if assignment[i].Root != assignment[j].Root {
			return assignment[i].Root < assignment[j].Root
		}
		return assignment[i].Node < assignment[j].Node
	})

	return Result{Status: status, Cost: cost, Assignment: assignment}, nil
}

// mipStatus normalizes GLPK's MIP status into the four-way contract every
// caller of this package treats uniformly.
func mipStatus(lp *glpk.Prob, timedOut bool) Status {
	switch lp.MipStatus() {
	case glpk.OPT:
		if timedOut {
			return StatusTimeLimit
		}
		return StatusOptimal
	case glpk.FEAS:
		if timedOut {
			return StatusTimeLimit
		}
		return StatusSuboptimal
	default:
		return StatusInfeasible
	}
}
