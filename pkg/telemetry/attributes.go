package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
)

// Стандартные ключи атрибутов
const (
	// Граф
	AttrGraphNodes = "graph.nodes"
	AttrGraphEdges = "graph.edges"
	AttrGraphRoot  = "graph.root_id"

	// Оркестратор выбора корней
	AttrStrategy      = "orchestrator.strategy"
	AttrMode          = "orchestrator.mode"
	AttrRootSetSize   = "orchestrator.root_set_size"
	AttrLimitHit      = "orchestrator.limit_hit"
	AttrPrunedCount   = "orchestrator.pruned_count"

	// ILP solve
	AttrSolveStatus = "ilp.status"
	AttrSolveCost   = "ilp.cost"
)

// GraphAttributes возвращает атрибуты графа
func GraphAttributes(nodes, edges int, rootID int64) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Int(AttrGraphNodes, nodes),
		attribute.Int(AttrGraphEdges, edges),
		attribute.Int64(AttrGraphRoot, rootID),
	}
}

// OrchestratorAttributes возвращает атрибуты запуска выбора корней
func OrchestratorAttributes(strategy, mode string, rootSetSize int, limitHit bool) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrStrategy, strategy),
		attribute.String(AttrMode, mode),
		attribute.Int(AttrRootSetSize, rootSetSize),
		attribute.Bool(AttrLimitHit, limitHit),
	}
}

// SolveAttributes возвращает атрибуты результата ILP solve
func SolveAttributes(status string, cost float64) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrSolveStatus, status),
		attribute.Float64(AttrSolveCost, cost),
	}
}
