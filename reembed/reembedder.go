// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package reembed

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/poiesic/ragvec/queue"
	"github.com/poiesic/ragvec/storage"
)

// Config holds configuration for the re-embed operation.
type Config struct {
	// BatchSize is the number of documents submitted per batch
	BatchSize int

	// ReportInterval is how often to report progress (number of documents)
	ReportInterval int

	// MaxRetries is the maximum number of enqueue attempts per document
	MaxRetries int

	// RetryDelay is the base delay for exponential backoff
	RetryDelay time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		BatchSize:      100,
		ReportInterval: 100,
		MaxRetries:     3,
		RetryDelay:     1 * time.Second,
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.MaxRetries <= 0 {
		return fmt.Errorf("%w: got %d", queue.ErrInvalidMaxAttempts, c.MaxRetries)
	}
	if c.RetryDelay < 0 {
		return fmt.Errorf("%w: retry delay must not be negative", ErrInvalidConfig)
	}
	return nil
}

// Reembedder re-submits stored documents to the embedding queue, typically
// after the embedding model changes. The workers do the embedding.
type Reembedder struct {
	config    *Config
	progress  io.Writer
	submitter *Submitter
	iterator  *DocumentIterator
}

// NewReembedder creates a new reembedder.
// progress: where to write progress output (typically os.Stderr)
func NewReembedder(chunks storage.ChunkRepository, q queue.Queue, config *Config, progress io.Writer) (*Reembedder, error) {
	if chunks == nil {
		return nil, ErrChunkRepositoryRequired
	}
	if q == nil {
		return nil, ErrQueueRequired
	}
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if progress == nil {
		progress = io.Discard
	}

	return &Reembedder{
		config:    config,
		progress:  progress,
		submitter: NewSubmitter(chunks, q, config.MaxRetries, config.RetryDelay),
		iterator:  NewDocumentIterator(chunks, config.BatchSize),
	}, nil
}

// Run enqueues a job for every stored document, or only for the listed ones.
// Progress is reported to the configured writer.
func (r *Reembedder) Run(ctx context.Context, only ...string) (*Progress, []*queue.JobHandle, error) {
	documents, err := r.iterator.Documents(ctx, only...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list documents: %w", err)
	}

	if len(documents) == 0 {
		fmt.Fprintf(r.progress, "No documents found in database (0 documents)\n")
		return &Progress{}, nil, nil
	}

	fmt.Fprintf(r.progress, "Starting re-embed of %d documents (batch size: %d)\n",
		len(documents), r.iterator.batchSize)

	tracker := NewProgressTracker(r.progress, len(documents), r.config.ReportInterval)
	tracker.Start()

	var handles []*queue.JobHandle
	err = r.iterator.ForEach(ctx, documents, func(batch []string) error {
		submitted, err := r.submitter.Submit(ctx, batch)
		handles = append(handles, submitted...)
		tracker.Enqueued(len(submitted))
		if err != nil {
			return fmt.Errorf("failed to submit batch: %w", err)
		}
		tracker.Skipped(len(batch) - len(submitted))
		return nil
	})
	if err != nil {
		snap := tracker.Snapshot()
		return &snap, handles, err
	}

	tracker.Finish()
	snap := tracker.Snapshot()
	fmt.Fprintf(r.progress, "Re-embed submitted. %d jobs enqueued, %d documents skipped in %v\n",
		snap.Enqueued, snap.Skipped, snap.Elapsed.Round(time.Millisecond))

	return &snap, handles, nil
}
