package bench

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/marmos91/nfsbench/internal/logger"
	"github.com/marmos91/nfsbench/internal/metrics"
	"github.com/marmos91/nfsbench/internal/pacer"
)

// RunConfig parameterizes one end-to-end benchmark run: how many jobs to
// ignite, how long each runs, and how the sampler should report.
type RunConfig struct {
	Jobs     int
	Duration time.Duration
	Sampler  SamplerConfig
}

// Result is what a completed Run reports back to the CLI layer.
type Result struct {
	Samples []Sample
	Summary Summary
}

// Run ignites cfg.Jobs copies of workload against m, starts the receiver
// pool and the sampler under a shared errgroup, and blocks until the
// receivers and the sampler have returned (the sampler stops once
// ActiveJobs reaches zero). This is the idiomatic-Go rendering of the original's
// "mount/stats_loop/unmount" three-call external interface collapsed into
// one call plus a defer.
func Run(ctx context.Context, m *Mount, workload Workload, clock pacer.Clock, cfg RunConfig) (*Result, error) {
	if cfg.Jobs <= 0 {
		cfg.Jobs = 1
	}
	m.ActiveJobs.Store(int64(cfg.Jobs))
	metrics.Get().SetActiveJobs(int64(cfg.Jobs))

	deadline := clock.Now().Add(cfg.Duration)
	sampler := cfg.Sampler
	sampler.Duration = cfg.Duration

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return m.runReceivers(gctx, clock)
	})

	for job := 0; job < cfg.Jobs; job++ {
		job := job
		if err := workload.Start(gctx, m, job, deadline, clock); err != nil {
			return nil, fmt.Errorf("ignite job %d: %w", job, err)
		}
	}

	var ring []Sample
	g.Go(func() error {
		ring = RunSampler(m, clock, sampler)
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	logger.Info("run complete", "session", m.SessionID, "samples", len(ring))

	summary := Summarize(ring, sampler.SamplesPerSecond())
	return &Result{Samples: ring, Summary: summary}, nil
}
