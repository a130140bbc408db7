package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"

	"mergesolver/internal/rdag"
)

// GraphHash вычисляет хеш rDAG для использования как ключ кэша
func GraphHash(graph *rdag.Graph) string {
	if graph == nil {
		return ""
	}

	data := graphToCanonical(graph)
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:16])
}

// graphToCanonical создаёт детерминированное представление графа
func graphToCanonical(graph *rdag.Graph) []byte {
	nodeIDs := graph.NodeIDs()
	sort.Slice(nodeIDs, func(i, j int) bool { return nodeIDs[i] < nodeIDs[j] })

	type edgeData struct {
		from, to int64
		weight   int64
		typ      rdag.EdgeType
	}
	allEdges := graph.AllEdges()
	edges := make([]edgeData, 0, len(allEdges))
	for _, e := range allEdges {
		edges = append(edges, edgeData{e.From, e.To, e.Weight, e.Type})
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].from != edges[j].from {
			return edges[i].from < edges[j].from
		}
		return edges[i].to < edges[j].to
	})

	var result []byte

	for _, id := range nodeIDs {
		node, _ := graph.GetNode(id)
		result = append(result, []byte(fmt.Sprintf("n:%d:m%d:c%d;", id, node.M, node.C))...)
	}

	for _, e := range edges {
		result = append(result, []byte(fmt.Sprintf("e:%d:%d:w%d:t%d;",
			e.from, e.to, e.weight, int(e.typ)))...)
	}

	return result
}

// RootSetHash вычисляет детерминированный хеш набора корней R, независимо
// от порядка итерации по map.
func RootSetHash(r map[int64]bool) string {
	roots := make([]int64, 0, len(r))
	for id := range r {
		roots = append(roots, id)
	}
	sort.Slice(roots, func(i, j int) bool { return roots[i] < roots[j] })

	var buf []byte
	for _, id := range roots {
		buf = append(buf, []byte(fmt.Sprintf("r%d;", id))...)
	}
	hash := sha256.Sum256(buf)
	return hex.EncodeToString(hash[:16])
}

// BuildSolveKey строит ключ кэша для результата решения ILP над
// фиксированным набором корней.
func BuildSolveKey(graphHash, rootSetHash string) string {
	return fmt.Sprintf("solve:%s:%s", graphHash, rootSetHash)
}

// BuildSolveKeyWithOptions строит ключ с учётом опций (capacity/time limit).
func BuildSolveKeyWithOptions(graphHash, rootSetHash, optionsHash string) string {
	if optionsHash == "" {
		return BuildSolveKey(graphHash, rootSetHash)
	}
	return fmt.Sprintf("solve:%s:%s:%s", graphHash, rootSetHash, optionsHash)
}

// QuickHash быстрый хеш для произвольных данных
func QuickHash(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// ShortHash короткий хеш (16 символов)
func ShortHash(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:8])
}
