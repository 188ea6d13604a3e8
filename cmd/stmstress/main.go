// Command stmstress drives a configurable concurrent workload against a
// freshly created region and reports commit/abort/retry counters. It is a
// benchmark/stress harness external to the engine, not part of its public
// API — the engine itself never retries a transaction; only this driver
// decides to.
//
// Usage:
//
//	stmstress --config workload.yaml
//	stmstress --workers 64 --iterations 2000 --region-size 4096 --align 8
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/kolkov/stm/internal/stress"
)

func main() {
	var (
		configPath = pflag.String("config", "", "path to a YAML workload config; flags below override it")
		workers    = pflag.Int("workers", 0, "number of concurrent worker goroutines (0 = use config default)")
		iterations = pflag.Int("iterations", 0, "transactions per worker (0 = use config default)")
		regionSize = pflag.Uint64("region-size", 0, "byte size of the region's initial segment (0 = use config default)")
		align      = pflag.Uint64("align", 0, "word alignment in bytes (0 = use config default)")
		verbose    = pflag.BoolP("verbose", "v", false, "enable debug-level logging")
	)
	pflag.Parse()

	log, err := newLogger(*verbose)
	if err != nil {
		fmt.Fprintf(os.Stderr, "stmstress: logger setup failed: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync() //nolint:errcheck // best effort flush on exit

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Error("failed to load config", zap.Error(err))
		os.Exit(1)
	}
	applyOverrides(cfg, *workers, *iterations, *regionSize, *align)

	if err := cfg.Validate(); err != nil {
		log.Error("invalid config", zap.Error(err))
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	runner := stress.New(cfg, stress.WithLogger(log))
	stats, err := runner.Run(ctx)
	if err != nil {
		log.Error("stress run failed", zap.Error(err))
		os.Exit(1)
	}

	fmt.Printf("committed=%d aborted=%d gave_up=%d allocated=%d freed=%d\n",
		stats.Committed, stats.Aborted, stats.GaveUp, stats.Allocated, stats.Freed)
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func loadConfig(path string) (*stress.Config, error) {
	if path == "" {
		return stress.DefaultConfig(), nil
	}
	return stress.LoadConfig(path)
}

func applyOverrides(cfg *stress.Config, workers, iterations int, regionSize, align uint64) {
	if workers > 0 {
		cfg.Workers = workers
	}
	if iterations > 0 {
		cfg.IterationsPerWorker = iterations
	}
	if regionSize > 0 {
		cfg.RegionSize = regionSize
	}
	if align > 0 {
		cfg.Align = align
	}
}
