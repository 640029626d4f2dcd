package worker

import (
	"fmt"
	"runtime"
)

// Config bounds the two levels of concurrency: jobs per pool and embedder
// calls per job.
type Config struct {
	// Concurrency is the number of jobs processed in parallel.
	Concurrency int

	// BatchSize is the maximum number of texts per embedder call.
	BatchSize int

	// ParallelBatches is the maximum number of concurrent embedder calls per job.
	ParallelBatches int

	// CacheOnly fails a job on any cache miss instead of calling the embedder.
	CacheOnly bool
}

// DefaultConfig returns the default worker settings.
// Concurrency defaults to runtime.NumCPU() / 2, with a minimum of 1.
func DefaultConfig() Config {
	return Config{
		Concurrency:     max(runtime.NumCPU()/2, 1),
		BatchSize:       64,
		ParallelBatches: 2,
	}
}

// Validate checks the settings.
func (c Config) Validate() error {
	if c.Concurrency < 1 {
		return fmt.Errorf("%w: concurrency must be at least 1", ErrInvalidConfig)
	}
	if c.BatchSize < 1 {
		return fmt.Errorf("%w: batch size must be at least 1", ErrInvalidConfig)
	}
	if c.ParallelBatches < 1 {
		return fmt.Errorf("%w: parallel batches must be at least 1", ErrInvalidConfig)
	}
	return nil
}
