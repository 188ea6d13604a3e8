// Package stress implements a configurable concurrent workload driver used
// to exercise a Region under contention: the same role a benchmark harness
// plays against the engine's external interface, built the way the rest of
// the retrieved pack builds its service configuration (YAML file, sane
// defaults, flag overrides layered on top).
package stress

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the full description of one stress run: the region to create
// and the workload to run against it.
type Config struct {
	// RegionSize is the byte size of the region's initial segment.
	RegionSize uint64 `yaml:"region_size"`
	// Align is the word alignment shared by every access in the region.
	Align uint64 `yaml:"align"`
	// Workers is the number of concurrent goroutines issuing transactions.
	Workers int `yaml:"workers"`
	// IterationsPerWorker is the number of transactions each worker runs.
	IterationsPerWorker int `yaml:"iterations_per_worker"`
	// MaxRetries bounds how many times a worker retries a transaction that
	// aborted due to contention before giving up on that iteration.
	MaxRetries int `yaml:"max_retries"`

	// Workload describes the operation mix and hot-word access pattern.
	Workload Workload `yaml:"workload"`
}

// DefaultConfig returns a small, contention-heavy default run: enough
// workers and a narrow enough hot range to reliably exercise the access
// controller's ReadShared/Owned transitions and the batcher's epoch
// batching without requiring a config file.
func DefaultConfig() *Config {
	return &Config{
		RegionSize:          4096,
		Align:               8,
		Workers:             32,
		IterationsPerWorker: 1000,
		MaxRetries:          64,
		Workload:            DefaultWorkload(),
	}
}

// LoadConfig reads a YAML file at path and overlays it onto DefaultConfig,
// so a config file only needs to specify the fields it wants to override.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("stress: read config %s: %w", path, err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("stress: parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("stress: invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks that the config describes a runnable workload.
func (c *Config) Validate() error {
	if c.Align == 0 || c.Align&(c.Align-1) != 0 {
		return fmt.Errorf("%w: align=%d", ErrInvalidConfig, c.Align)
	}
	if c.RegionSize == 0 || c.RegionSize%c.Align != 0 {
		return fmt.Errorf("%w: region_size=%d align=%d", ErrInvalidConfig, c.RegionSize, c.Align)
	}
	if c.Workers <= 0 {
		return fmt.Errorf("%w: workers=%d", ErrInvalidConfig, c.Workers)
	}
	if c.IterationsPerWorker <= 0 {
		return fmt.Errorf("%w: iterations_per_worker=%d", ErrInvalidConfig, c.IterationsPerWorker)
	}
	return c.Workload.Validate()
}
