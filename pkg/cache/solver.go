package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"mergesolver/internal/ilp"
	"mergesolver/internal/rdag"
)

// SolverCache специализированный кэш для результатов ILP solve, keyed by the
// (graph, root set) pair — the same R evaluated twice (e.g. once during a
// candidate-pool pre-check, once during combinatorial search) hits cache
// instead of re-running GLPK.
type SolverCache struct {
	cache      Cache
	defaultTTL time.Duration
}

// CachedSolveResult кэшированный результат ILP solve.
type CachedSolveResult struct {
	Status      string               `json:"status"`
	Cost        float64              `json:"cost"`
	Assignments []CachedAssignment   `json:"assignments,omitempty"`
	ComputedAt  time.Time            `json:"computed_at"`
}

// CachedAssignment кэшированное назначение узла подграфу.
type CachedAssignment struct {
	Node int64 `json:"node"`
	Root int64 `json:"root"`
}

// NewSolverCache создаёт кэш для результатов ILP solve.
func NewSolverCache(cache Cache, defaultTTL time.Duration) *SolverCache {
	if defaultTTL <= 0 {
		defaultTTL = 10 * time.Minute
	}
	return &SolverCache{
		cache:      cache,
		defaultTTL: defaultTTL,
	}
}

// Get получает кэшированный результат solve для графа и набора корней R.
func (sc *SolverCache) Get(ctx context.Context, graph *rdag.Graph, r map[int64]bool) (*CachedSolveResult, bool, error) {
	key := BuildSolveKey(GraphHash(graph), RootSetHash(r))

	data, err := sc.cache.Get(ctx, key)
	if err != nil {
		if err == ErrKeyNotFound {
			return nil, false, nil
		}
		return nil, false, err
	}

	var result CachedSolveResult
	if err := json.Unmarshal(data, &result); err != nil {
		// Повреждённый кэш — удаляем, ошибку удаления игнорируем намеренно
		_ = sc.cache.Delete(ctx, key) //nolint:errcheck // best effort cleanup
		return nil, false, nil
	}

	return &result, true, nil
}

// Set сохраняет результат solve в кэш.
func (sc *SolverCache) Set(ctx context.Context, graph *rdag.Graph, r map[int64]bool, result ilp.Result, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = sc.defaultTTL
	}

	key := BuildSolveKey(GraphHash(graph), RootSetHash(r))

	cached := &CachedSolveResult{
		Status:     result.Status.String(),
		Cost:       result.Cost,
		ComputedAt: time.Now(),
	}
	for _, a := range result.Assignment {
		cached.Assignments = append(cached.Assignments, CachedAssignment{Node: a.Node, Root: a.Root})
	}

	data, err := json.Marshal(cached)
	if err != nil {
		return err
	}

	return sc.cache.Set(ctx, key, data, ttl)
}

// Invalidate удаляет весь кэшированный solve для графа, по всем наборам
// корней.
func (sc *SolverCache) Invalidate(ctx context.Context, graph *rdag.Graph) error {
	pattern := fmt.Sprintf("solve:%s:*", GraphHash(graph))
	_, err := sc.cache.DeleteByPattern(ctx, pattern)
	return err
}

// InvalidateAll удаляет весь кэш solver результатов.
func (sc *SolverCache) InvalidateAll(ctx context.Context) (int64, error) {
	return sc.cache.DeleteByPattern(ctx, "solve:*")
}

// ToResult конвертирует кэшированный результат обратно в ilp.Result.
func (r *CachedSolveResult) ToResult() ilp.Result {
	result := ilp.Result{Cost: r.Cost}
	switch r.Status {
	case ilp.StatusOptimal.String():
		result.Status = ilp.StatusOptimal
	case ilp.StatusSuboptimal.String():
		result.Status = ilp.StatusSuboptimal
	case ilp.StatusTimeLimit.String():
		result.Status = ilp.StatusTimeLimit
	default:
		result.Status = ilp.StatusInfeasible
	}
	for _, a := range r.Assignments {
		result.Assignment = append(result.Assignment, ilp.Assignment{Node: a.Node, Root: a.Root})
	}
	return result
}
