package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/marmos91/nfsbench/internal/bench"
	"github.com/marmos91/nfsbench/internal/httpdebug"
	"github.com/marmos91/nfsbench/internal/logger"
	"github.com/marmos91/nfsbench/internal/metrics"
	"github.com/marmos91/nfsbench/internal/pacer"
)

// runWorkload is the shared body of every workload subcommand: resolve the
// target, dial the mount, run the benchmark for the configured duration,
// and report the result, optionally serving the debug/metrics HTTP server
// for the run's lifetime.
func runWorkload(target string, build func(m *bench.Mount) (bench.Workload, error)) error {
	cfg := activeConfig

	host, path, err := parseTarget(target)
	if err != nil {
		return err
	}
	if err := resolvableHost(host); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Warn("signal received, winding down run")
		cancel()
	}()

	m, err := bench.Dial(ctx, bench.Config{
		Host:         host,
		Path:         path,
		Port:         cfg.Mount.Port,
		MaxJobs:      cfg.Run.MaxJobs,
		MaxReceivers: cfg.Run.MaxReceivers,
		ReqMax:       cfg.Mount.ReqMax,
		BufferSize:   int(cfg.Mount.BufferSize.Uint64()),
		DialTimeout:  cfg.Mount.DialTimeout,
	})
	if err != nil {
		return fmt.Errorf("dial %s: %w", target, err)
	}

	var debugSrv *httpdebug.Server
	if cfg.Metrics.Enabled {
		metrics.Init()
		debugSrv = httpdebug.NewServer(cfg.Metrics.Addr, m)
		go func() {
			if err := debugSrv.Start(ctx); err != nil {
				logger.Warn("debug HTTP server exited", "error", err)
			}
		}()
		defer func() { _ = debugSrv.Stop(context.Background()) }()
	}

	workload, err := build(m)
	if err != nil {
		return fmt.Errorf("build workload: %w", err)
	}

	result, err := bench.Run(ctx, m, workload, pacer.Real, bench.RunConfig{
		Jobs:     cfg.Run.MaxJobs,
		Duration: cfg.Run.Duration,
		Sampler: bench.SamplerConfig{
			SamplePeriod: cfg.Sampler.Period,
			MarkSeconds:  cfg.Sampler.MarkSeconds,
			Out:          os.Stderr,
		},
	})
	if err != nil {
		return fmt.Errorf("run: %w", err)
	}

	bench.PrintSummaryTable(os.Stdout, result.Samples, result.Summary)

	if cfg.Output.Dir != "" {
		if err := os.MkdirAll(cfg.Output.Dir, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
		if err := bench.WriteRawLog(cfg.Output.Dir, result.Samples, cfg.Sampler.Period); err != nil {
			return fmt.Errorf("write raw log: %w", err)
		}
		if err := bench.WriteGnuplotScripts(cfg.Output.Dir, cfg.Output.GnuplotTerm); err != nil {
			return fmt.Errorf("write gnuplot scripts: %w", err)
		}
		bench.RunGnuplot(cfg.Output.Dir)
	}

	return nil
}
