package worker

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/poiesic/ragvec/ai"
	"github.com/poiesic/ragvec/cache"
	"github.com/poiesic/ragvec/core"
	"github.com/poiesic/ragvec/status"
	"github.com/poiesic/ragvec/storage"
	"golang.org/x/sync/errgroup"
)

const (
	// batchProgressCeiling is the progress reached when every batch is embedded;
	// the rest is reserved for the upsert.
	batchProgressCeiling = 90

	// failedProgress marks a failed document as not still working.
	failedProgress = 95
)

// Processor runs the embedding algorithm for one job at a time. It is safe
// for concurrent use by multiple goroutines.
type Processor struct {
	embedder ai.Embedder
	cache    *cache.Layer
	vectors  storage.VectorRepository
	tracker  *status.Tracker
	cfg      Config
	logger   *slog.Logger
}

// ProcessorOption configures a Processor.
type ProcessorOption func(*Processor) error

// WithCache sets the cache layer. Without one every chunk is a miss.
func WithCache(layer *cache.Layer) ProcessorOption {
	return func(p *Processor) error {
		p.cache = layer
		return nil
	}
}

// WithProcessorLogger sets a custom logger.
// Default is slog.Default().
func WithProcessorLogger(logger *slog.Logger) ProcessorOption {
	return func(p *Processor) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewProcessor creates a job processor.
func NewProcessor(embedder ai.Embedder, vectors storage.VectorRepository, tracker *status.Tracker, cfg Config, opts ...ProcessorOption) (*Processor, error) {
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if vectors == nil {
		return nil, ErrVectorRepositoryRequired
	}
	if tracker == nil {
		return nil, ErrTrackerRequired
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	p := &Processor{
		embedder: embedder,
		vectors:  vectors,
		tracker:  tracker,
		cfg:      cfg,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}
	p.logger = p.logger.With("component", "processor")
	return p, nil
}

// pending is one distinct content awaiting an embedder call. Every chunk in
// the job with the same content hash shares it.
type pending struct {
	hash       string
	content    string
	tokenCount int
	vector     []float32
}

// jobRun carries the state of one Process call.
type jobRun struct {
	job          *core.EmbeddingJob
	model        string
	base         int
	lastProgress int

	// vectors holds resolved embeddings by content hash.
	vectors map[string][]float32
	// hashes maps each chunk to its content hash.
	hashes map[core.ID]string
	misses []*pending
}

// Process embeds every chunk of job, upserts the vectors and reports progress.
// On failure the document is marked embedding_failed and the error is returned
// for the queue's retry policy.
func (p *Processor) Process(ctx context.Context, job *core.EmbeddingJob) error {
	logger := p.logger.With("jobID", job.Id, "documentID", job.DocumentID, "attempt", job.Attempts)

	if err := p.process(ctx, job, logger); err != nil {
		logger.Error("embedding job failed", "err", err)
		p.MarkFailed(ctx, job, err)
		return err
	}
	return nil
}

// MarkFailed records err as the document's embedding_failed status. It is
// used for failures outside Process too, such as a job that never started.
func (p *Processor) MarkFailed(ctx context.Context, job *core.EmbeddingJob, err error) {
	// Record the failure even when ctx was cancelled.
	failCtx := context.WithoutCancel(ctx)
	if _, statusErr := p.tracker.Fail(failCtx, job.DocumentID, failedProgress, err.Error()); statusErr != nil {
		p.logger.Error("failed to record document failure", "jobID", job.Id, "documentID", job.DocumentID, "err", statusErr)
	}
}

func (p *Processor) process(ctx context.Context, job *core.EmbeddingJob, logger *slog.Logger) error {
	run := &jobRun{
		job:     job,
		model:   p.embedder.Model(),
		base:    core.ClampProgress(job.ProgressBase),
		vectors: make(map[string][]float32),
		hashes:  make(map[core.ID]string, len(job.Chunks)),
	}
	run.lastProgress = run.base

	if _, err := p.tracker.Update(ctx, job.DocumentID, core.DocumentStateProcessing, run.base); err != nil {
		return err
	}

	hits := p.partition(ctx, run)
	logger.Debug("partitioned chunks", "chunks", len(job.Chunks), "cacheHits", hits, "toEmbed", len(run.misses))

	if p.cfg.CacheOnly && len(run.misses) > 0 {
		return fmt.Errorf("%w: %d of %d chunks", ErrCacheMiss, len(run.misses), len(job.Chunks))
	}

	if err := p.embedMisses(ctx, run); err != nil {
		return err
	}

	embeddings := make([]*core.Embedding, 0, len(job.Chunks))
	for _, ref := range job.Chunks {
		embeddings = append(embeddings, &core.Embedding{
			ChunkID:    ref.ChunkID,
			DocumentID: job.DocumentID,
			Vector:     run.vectors[run.hashes[ref.ChunkID]],
		})
	}
	if err := p.vectors.UpsertEmbeddings(ctx, embeddings...); err != nil {
		return fmt.Errorf("upsert embeddings: %w", err)
	}

	if _, err := p.tracker.Update(ctx, job.DocumentID, core.DocumentStateProcessed, 100); err != nil {
		return err
	}
	logger.Info("embedding job processed", "chunks", len(embeddings), "embedded", len(run.misses))
	return nil
}

// partition resolves chunks from the cache and collects the distinct
// contents that still need embedding. Returns the number of cache hits.
func (p *Processor) partition(ctx context.Context, run *jobRun) int {
	hits := 0
	queued := make(map[string]bool)
	for _, ref := range run.job.Chunks {
		hash := cache.Hash(ref.Content)
		run.hashes[ref.ChunkID] = hash

		if _, ok := run.vectors[hash]; ok {
			hits++
			continue
		}
		if queued[hash] {
			continue
		}
		if p.cache != nil {
			if entry, ok := p.cache.Get(ctx, run.model, hash); ok {
				run.vectors[hash] = entry.Vector
				hits++
				continue
			}
		}
		queued[hash] = true
		run.misses = append(run.misses, &pending{
			hash:       hash,
			content:    ref.Content,
			tokenCount: ref.TokenCount,
		})
	}
	return hits
}

// embedMisses calls the embedder in rounds of up to ParallelBatches
// concurrent batches and advances progress after each round.
func (p *Processor) embedMisses(ctx context.Context, run *jobRun) error {
	batches := splitBatches(run.misses, p.cfg.BatchSize)
	total := len(batches)

	for start := 0; start < total; start += p.cfg.ParallelBatches {
		end := min(start+p.cfg.ParallelBatches, total)

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(p.cfg.ParallelBatches)
		for _, batch := range batches[start:end] {
			g.Go(func() error {
				return p.embedBatch(gctx, run.model, batch)
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		p.advance(ctx, run, end, total)
	}

	for _, m := range run.misses {
		run.vectors[m.hash] = m.vector
	}
	return nil
}

// embedBatch makes one embedder call. Each pending belongs to exactly one
// batch, so writing its vector needs no lock.
func (p *Processor) embedBatch(ctx context.Context, model string, batch []*pending) error {
	texts := make([]string, len(batch))
	for i, m := range batch {
		texts[i] = m.content
	}

	result, err := p.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed batch: %w", err)
	}
	if result == nil || len(result.Embeddings) != len(texts) {
		got := 0
		if result != nil {
			got = len(result.Embeddings)
		}
		return fmt.Errorf("%w: sent %d texts, got %d embeddings", ErrEmbeddingCountMismatch, len(texts), got)
	}

	dim := p.vectors.Dimension()
	for i, vector := range result.Embeddings {
		if err := core.ValidateVector(vector, dim); err != nil {
			return fmt.Errorf("%w: %w", core.ErrInvalidEmbedding, err)
		}
		batch[i].vector = vector
	}

	if p.cache != nil {
		for _, m := range batch {
			p.cache.Put(ctx, m.hash, m.vector, model, m.tokenCount)
		}
	}
	return nil
}

// advance reports base + (ceiling - base) * done / total, never moving backwards.
func (p *Processor) advance(ctx context.Context, run *jobRun, done, total int) {
	ceiling := max(run.base, batchProgressCeiling)
	progress := run.base + (ceiling-run.base)*done/total
	if progress <= run.lastProgress {
		return
	}
	if _, err := p.tracker.SetProgress(ctx, run.job.DocumentID, progress); err != nil {
		p.logger.Warn("failed to report progress", "documentID", run.job.DocumentID, "err", err)
		return
	}
	run.lastProgress = progress
}

func splitBatches(items []*pending, size int) [][]*pending {
	var batches [][]*pending
	for start := 0; start < len(items); start += size {
		batches = append(batches, items[start:min(start+size, len(items))])
	}
	return batches
}
