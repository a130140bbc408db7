package orchestrator

import "sync/atomic"

// stats holds atomic counters for a long-lived orchestrator instance serving
// repeated Run calls, so a caller can expose them via metrics without
// synchronizing on a mutex.
type stats struct {
	runsTotal     atomic.Int64
	runsActive    atomic.Int64
	runsSucceeded atomic.Int64
	runsFailed    atomic.Int64
	prunedConfigs atomic.Int64
	limitHitTotal atomic.Int64
}

// Stats is an immutable snapshot of orchestrator counters at a point in time.
type Stats struct {
	RunsTotal     int64
	RunsActive    int64
	RunsSucceeded int64
	RunsFailed    int64
	PrunedConfigs int64
	LimitHitTotal int64
}

// Recorder accumulates counters across multiple Run invocations sharing the
// same orchestrator instance. The zero value is ready to use.
type Recorder struct {
	s stats
}

// Snapshot returns the current counter values.
func (r *Recorder) Snapshot() Stats {
	return Stats{
		RunsTotal:     r.s.runsTotal.Load(),
		RunsActive:    r.s.runsActive.Load(),
		RunsSucceeded: r.s.runsSucceeded.Load(),
		RunsFailed:    r.s.runsFailed.Load(),
		PrunedConfigs: r.s.prunedConfigs.Load(),
		LimitHitTotal: r.s.limitHitTotal.Load(),
	}
}

// RunWithStats is a thin wrapper around Run that records the outcome into r.
func RunWithStats(r *Recorder, run func() (*Result, error)) (*Result, error) {
	r.s.runsTotal.Add(1)
	r.s.runsActive.Add(1)
	defer r.s.runsActive.Add(-1)

	result, err := run()
	if err != nil {
		r.s.runsFailed.Add(1)
		return nil, err
	}

	r.s.runsSucceeded.Add(1)
	r.s.prunedConfigs.Add(int64(result.PrunedCount))
	if result.LimitHit {
		r.s.limitHitTotal.Add(1)
	}
	return result, nil
}
