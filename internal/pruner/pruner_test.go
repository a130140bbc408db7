package pruner

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"mergesolver/internal/rdag"
)

func TestCheckFlagsOversizedComponent(t *testing.T) {
	g := rdag.NewGraph()
	g.AddNode(&rdag.Node{ID: 1, M: 1, C: 1})
	g.AddNode(&rdag.Node{ID: 2, M: 60, C: 10})
	g.AddNode(&rdag.Node{ID: 3, M: 60, C: 10})
	g.AddEdge(&rdag.Edge{From: 1, To: 2, Weight: 1, Type: rdag.EdgeSync})
	g.AddEdge(&rdag.Edge{From: 2, To: 3, Weight: 1, Type: rdag.EdgeSync})

	R := map[int64]bool{1: true}
	// Node 2+3 form one non-root component totaling 120 memory > 100 cap.
	assert.True(t, Check(g, R, 100, 100, 10))
}

func TestCheckPassesWhenComponentsFitIndividually(t *testing.T) {
	g := rdag.NewGraph()
	g.AddNode(&rdag.Node{ID: 1, M: 1, C: 1})
	g.AddNode(&rdag.Node{ID: 2, M: 10, C: 10})
	g.AddNode(&rdag.Node{ID: 3, M: 10, C: 10})
	g.AddEdge(&rdag.Edge{From: 1, To: 2, Weight: 1, Type: rdag.EdgeSync})
	g.AddEdge(&rdag.Edge{From: 1, To: 3, Weight: 1, Type: rdag.EdgeSync})

	// 2 and 3 are each their own component (no edge between them), so even
	// though the ILP could still fail for other reasons, this fast heuristic
	// finds no violation.
	R := map[int64]bool{1: true}
	assert.False(t, Check(g, R, 15, 15, 10))
}

func TestCheckAccountsForAsyncPenaltyWithinComponent(t *testing.T) {
	g := rdag.NewGraph()
	g.AddNode(&rdag.Node{ID: 1, M: 1, C: 1})
	g.AddNode(&rdag.Node{ID: 2, M: 10, C: 10})
	g.AddNode(&rdag.Node{ID: 3, M: 10, C: 10})
	g.AddEdge(&rdag.Edge{From: 1, To: 2, Weight: 1, Type: rdag.EdgeSync})
	g.AddEdge(&rdag.Edge{From: 2, To: 3, Weight: 30, Type: rdag.EdgeAsync})

	R := map[int64]bool{1: true}
	// base = 20 (fits in 25), but async alpha=ceil(30/10)=3 adds (3-1)*10=20
	// memory, pushing the component to 40 > 25.
	assert.True(t, Check(g, R, 25, 25, 10))
}

func TestCheckEmptyNonRootSet(t *testing.T) {
	g := rdag.NewGraph()
	g.AddNode(&rdag.Node{ID: 1, M: 1, C: 1})

	R := map[int64]bool{1: true}
	assert.False(t, Check(g, R, 10, 10, 10))
}
