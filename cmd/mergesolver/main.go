// Command mergesolver loads a workflow rDAG from JSON, runs the root-selection
// orchestrator over it, and prints the resulting function-merging plan.
//
// Configuration follows the usual layering: defaults, an optional
// config.yaml, then MERGESOLVER_* environment variables. The graph itself is
// read from -graph (or stdin when omitted) in the form:
//
//	{
//	  "nodes": [{"id": 1, "m": 128, "c": 100}, ...],
//	  "edges": [{"from": 1, "to": 2, "weight": 3, "type": "sync"}, ...]
//	}
//
// With -serve, the process instead stays up as a long-lived daemon exposing
// /metrics, /healthz and /readyz, without solving anything.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"math/rand"
	"os"
	"time"

	"github.com/google/uuid"

	"mergesolver/internal/heuristics"
	"mergesolver/internal/ilp"
	"mergesolver/internal/orchestrator"
	"mergesolver/internal/rdag"
	"mergesolver/pkg/cache"
	"mergesolver/pkg/config"
	"mergesolver/pkg/logger"
	"mergesolver/pkg/metrics"
	"mergesolver/pkg/server"
	"mergesolver/pkg/telemetry"
)

// graphFile is the wire format for a workflow rDAG read from disk or stdin.
type graphFile struct {
	Nodes []nodeFile `json:"nodes"`
	Edges []edgeFile `json:"edges"`
}

type nodeFile struct {
	ID int64 `json:"id"`
	M  int64 `json:"m"`
	C  int64 `json:"c"`
}

type edgeFile struct {
	From   int64  `json:"from"`
	To     int64  `json:"to"`
	Weight int64  `json:"weight"`
	Type   string `json:"type"` // "sync" (default) or "async"
}

func main() {
	graphPath := flag.String("graph", "", "path to a workflow graph JSON file (default: stdin)")
	strategyFlag := flag.String("strategy", "", "override orchestrator.strategy from config (optimal, downstream_impact, weighted_in_degree)")
	serve := flag.Bool("serve", false, "start the metrics/health HTTP server instead of solving a graph")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.InitWithConfig(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})

	metrics.InitMetrics(cfg.Metrics.Namespace, cfg.Metrics.Subsystem)

	if *strategyFlag != "" {
		cfg.Orchestrator.Strategy = *strategyFlag
	}

	if *serve {
		runServer(cfg)
		return
	}

	if err := runSolve(cfg, *graphPath); err != nil {
		logger.Log.Error("solve failed", "error", err)
		os.Exit(1)
	}
}

// runServer starts the long-lived metrics/health daemon and blocks until a
// shutdown signal arrives.
func runServer(cfg *config.Config) {
	srv := server.New(cfg)
	logger.Log.Info("starting mergesolver server", "port", cfg.HTTP.Port, "environment", cfg.App.Environment)
	if err := srv.Run(); err != nil {
		logger.Log.Error("server failed", "error", err)
		os.Exit(1)
	}
}

// runSolve reads a graph, preprocesses it, runs the orchestrator, and prints
// the resulting merging plan as JSON on stdout.
func runSolve(cfg *config.Config, graphPath string) error {
	ctx := context.Background()

	runID := uuid.NewString()
	log := logger.WithRequestID(runID)

	var tp *telemetry.Provider
	if cfg.Tracing.Enabled {
		var err error
		tp, err = telemetry.Init(ctx, telemetry.Config{
			Enabled:     cfg.Tracing.Enabled,
			Endpoint:    cfg.Tracing.Endpoint,
			ServiceName: cfg.Tracing.ServiceName,
			Version:     cfg.App.Version,
			Environment: cfg.App.Environment,
			SampleRate:  cfg.Tracing.SampleRate,
		})
		if err != nil {
			log.Warn("failed to init telemetry, continuing without it", "error", err)
		} else {
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := tp.Shutdown(shutdownCtx); err != nil {
					log.Warn("failed to shutdown telemetry", "error", err)
				}
			}()
		}
	}

	g, err := readGraph(graphPath)
	if err != nil {
		return fmt.Errorf("reading graph: %w", err)
	}

	p, err := rdag.Preprocess(g)
	if err != nil {
		return fmt.Errorf("preprocessing graph: %w", err)
	}

	if m := metrics.Get(); m != nil {
		m.RecordGraphSize("preprocess", g.NodeCount(), g.EdgeCount())
	}

	var baseCache cache.Cache
	if cfg.Cache.Enabled {
		cacheOpts := cache.FromConfig(&cfg.Cache)
		var err error
		baseCache, err = cache.New(cacheOpts)
		if err != nil {
			log.Warn("failed to create cache, continuing without it", "error", err)
			baseCache = nil
		}
	}

	opts, err := buildOrchestratorOptions(ctx, p, cfg, baseCache)
	if err != nil {
		return fmt.Errorf("building orchestrator options: %w", err)
	}

	log.Info("solving",
		"strategy", opts.StrategyName,
		"mode", opts.Mode.String(),
		"nodes", len(p.AllNodes),
		"root", p.Root,
	)

	start := time.Now()
	result, err := orchestrator.Run(ctx, p, cfg.Capacity.MemoryMB, cfg.Capacity.CPUMillis, cfg.Capacity.Concurrency, opts)
	duration := time.Since(start)

	if m := metrics.Get(); m != nil {
		m.RecordRun(opts.StrategyName, err == nil, duration)
	}

	if err != nil {
		return err
	}

	if m := metrics.Get(); m != nil && result.LimitHit {
		m.RecordLimitHit(opts.StrategyName)
	}

	log.Info("solve complete",
		"cost", result.Cost,
		"roots", len(result.R),
		"limit_hit", result.LimitHit,
		"pruned", result.PrunedCount,
		"duration", duration,
	)

	return printResult(runID, result)
}

// readGraph loads and parses a graphFile from path, or from stdin when path
// is empty.
func readGraph(path string) (*rdag.Graph, error) {
	var data []byte
	var err error
	if path == "" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, err
	}

	var gf graphFile
	if err := json.Unmarshal(data, &gf); err != nil {
		return nil, fmt.Errorf("invalid graph JSON: %w", err)
	}

	g := rdag.NewGraph()
	for _, n := range gf.Nodes {
		g.AddNode(&rdag.Node{ID: n.ID, M: n.M, C: n.C})
	}
	for _, e := range gf.Edges {
		edgeType := rdag.EdgeSync
		if e.Type == "async" {
			edgeType = rdag.EdgeAsync
		}
		g.AddEdge(&rdag.Edge{From: e.From, To: e.To, Weight: e.Weight, Type: edgeType})
	}
	return g, nil
}

// buildOrchestratorOptions translates the loaded config into
// orchestrator.Options, wiring in the requested strategy's candidate
// selector and, when enabled, the solver cache.
func buildOrchestratorOptions(ctx context.Context, p *rdag.Preprocessed, cfg *config.Config, baseCache cache.Cache) (orchestrator.Options, error) {
	rng := rand.New(rand.NewSource(cfg.GRASP.Seed))

	opts := orchestrator.Options{
		MaxK:                     cfg.Orchestrator.MaxK,
		InitialNumCandidates:     cfg.GRASP.NumCandidates,
		MaxCombinationsThreshold: int(cfg.Orchestrator.MaxCombinationsThreshold),
		NumWorkers:               cfg.Orchestrator.NumWorkers,
		Solver: ilp.Options{
			TimeLimit:  cfg.ILP.TimeLimit,
			MIPGap:     cfg.ILP.MIPGap,
			MIPFocus:   cfg.ILP.MIPFocus,
			NumThreads: cfg.ILP.NumThreads,
		},
	}

	switch cfg.Orchestrator.Mode {
	case "greedy_refine":
		opts.Mode = orchestrator.ModeGreedyRefine
	default:
		opts.Mode = orchestrator.ModeCombinatorial
	}

	switch cfg.Orchestrator.Strategy {
	case "downstream_impact":
		opts.StrategyName = string(orchestrator.StrategyDownstreamImpact)
		opts.Selector = &orchestrator.CandidateSelector{
			Name: string(orchestrator.StrategyDownstreamImpact),
			Select: func(numCandidates int) (map[int64]bool, []heuristics.Scored) {
				return heuristics.SelectDownstreamCandidates(p, heuristics.DIHOptions{
					NumCandidates: numCandidates,
					M:             cfg.Capacity.MemoryMB,
					C:             cfg.Capacity.CPUMillis,
					N:             cfg.Capacity.Concurrency,
					Weights:       heuristics.DIHWeights{Beta: 1, Gamma: 1, Delta: 1},
					RCLSize:       cfg.GRASP.RCLSize,
					Rand:          rng,
				})
			},
		}
	case "weighted_in_degree":
		opts.StrategyName = string(orchestrator.StrategyWeightedInDegree)
		opts.Selector = &orchestrator.CandidateSelector{
			Name: string(orchestrator.StrategyWeightedInDegree),
			Select: func(numCandidates int) (map[int64]bool, []heuristics.Scored) {
				return heuristics.SelectWeightedDegreeCandidates(p, heuristics.WIDOptions{
					NumCandidates: numCandidates,
					RCLSize:       cfg.GRASP.RCLSize,
					Rand:          rng,
				})
			},
		}
	default:
		opts.StrategyName = string(orchestrator.StrategyOptimal)
		opts.Selector = nil
	}

	if baseCache != nil {
		graphHash := cache.GraphHash(p.Graph)
		opts.HashKey = func(r map[int64]bool) string {
			return cache.BuildSolveKey(graphHash, cache.RootSetHash(r))
		}
		opts.Cache = &resultCacheAdapter{ctx: ctx, cache: baseCache, ttl: cfg.Cache.DefaultTTL}
	}

	return opts, nil
}

// resultCacheAdapter adapts the byte-oriented cache.Cache to the
// orchestrator's ResultCache interface, serializing ilp.Result the same way
// cache.SolverCache does internally. It is keyed directly by the string
// opts.HashKey already produced, so it never needs to recompute a key from
// the graph or root set itself.
type resultCacheAdapter struct {
	ctx   context.Context
	cache cache.Cache
	ttl   time.Duration
}

func (a *resultCacheAdapter) Get(key string) (ilp.Result, bool) {
	data, err := a.cache.Get(a.ctx, key)
	if err != nil {
		return ilp.Result{}, false
	}
	var cached cache.CachedSolveResult
	if err := json.Unmarshal(data, &cached); err != nil {
		return ilp.Result{}, false
	}
	return cached.ToResult(), true
}

func (a *resultCacheAdapter) Set(key string, result ilp.Result) {
	cached := cache.CachedSolveResult{Status: result.Status.String(), Cost: result.Cost, ComputedAt: time.Now()}
	for _, asg := range result.Assignment {
		cached.Assignments = append(cached.Assignments, cache.CachedAssignment{Node: asg.Node, Root: asg.Root})
	}
	data, err := json.Marshal(cached)
	if err != nil {
		return
	}
	_ = a.cache.Set(a.ctx, key, data, a.ttl) //nolint:errcheck // best effort cache write
}

func printResult(runID string, result *orchestrator.Result) error {
	type assignmentOut struct {
		Node int64 `json:"node"`
		Root int64 `json:"root"`
	}
	type resultOut struct {
		RunID       string          `json:"run_id"`
		Cost        float64         `json:"cost"`
		Roots       []int64         `json:"roots"`
		Assignments []assignmentOut `json:"assignments"`
		LimitHit    bool            `json:"limit_hit"`
		PrunedCount int             `json:"pruned_count"`
	}

	out := resultOut{
		RunID:       runID,
		Cost:        result.Cost,
		LimitHit:    result.LimitHit,
		PrunedCount: result.PrunedCount,
	}
	for root := range result.R {
		out.Roots = append(out.Roots, root)
	}
	for _, a := range result.Assignment {
		out.Assignments = append(out.Assignments, assignmentOut{Node: a.Node, Root: a.Root})
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
