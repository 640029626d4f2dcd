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

package ragvec

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/poiesic/ragvec/ai"
	"github.com/poiesic/ragvec/ai/openai"
	"github.com/poiesic/ragvec/cache"
	"github.com/poiesic/ragvec/config"
	"github.com/poiesic/ragvec/core"
	"github.com/poiesic/ragvec/queue"
	"github.com/poiesic/ragvec/reembed"
	"github.com/poiesic/ragvec/search"
	"github.com/poiesic/ragvec/status"
	"github.com/poiesic/ragvec/status/redisbus"
	"github.com/poiesic/ragvec/storage"
	"github.com/poiesic/ragvec/storage/badger"
	"github.com/poiesic/ragvec/worker"
)

// ErrDocumentMismatch is returned when a submitted chunk belongs to another document.
var ErrDocumentMismatch = errors.New("chunk belongs to another document")

type Database struct {
	repos     *badger.Repositories
	embedder  ai.Embedder
	cache     *cache.Layer
	tracker   *status.Tracker
	queue     queue.Queue
	processor *worker.Processor
	bus       *redisbus.Bus
	config    *config.Config
	logger    *slog.Logger
}

// DatabaseOption configures a Database.
type DatabaseOption func(*databaseOptions)

type databaseOptions struct {
	config    *config.Config
	embedder  ai.Embedder
	notifiers []status.Notifier
	logger    *slog.Logger
}

// WithConfig sets the configuration. Default is config.Default().
func WithConfig(cfg *config.Config) DatabaseOption {
	return func(o *databaseOptions) {
		o.config = cfg
	}
}

// WithEmbedder replaces the OpenAI-compatible embedder built from the config.
func WithEmbedder(embedder ai.Embedder) DatabaseOption {
	return func(o *databaseOptions) {
		o.embedder = embedder
	}
}

// WithNotifier adds a job event notifier.
func WithNotifier(n status.Notifier) DatabaseOption {
	return func(o *databaseOptions) {
		o.notifiers = append(o.notifiers, n)
	}
}

// WithLogger sets the logger. Default is slog.Default().
func WithLogger(logger *slog.Logger) DatabaseOption {
	return func(o *databaseOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// NewDatabase opens the store at filePath and wires the pipeline around it.
// An empty filePath keeps everything in memory.
func NewDatabase(ctx context.Context, filePath string, opts ...DatabaseOption) (*Database, error) {
	options := &databaseOptions{
		config: config.Default(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(options)
	}
	cfg := options.config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger := options.logger

	backend, err := badger.OpenBackend(filePath, filePath == "")
	if err != nil {
		return nil, err
	}
	repos, err := badger.OpenRepositories(backend, cfg.Embedding.Dimension)
	if err != nil {
		backend.Close()
		return nil, err
	}

	db := &Database{
		repos:    repos,
		embedder: options.embedder,
		config:   cfg,
		logger:   logger,
	}
	if err := db.wire(ctx, options); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func (db *Database) wire(ctx context.Context, options *databaseOptions) error {
	cfg := db.config
	logger := db.logger

	if db.embedder == nil {
		embedder, err := openai.NewEmbedderWithLogger(cfg.AIConfig(), logger)
		if err != nil {
			return fmt.Errorf("creating embedder: %w", err)
		}
		db.embedder = embedder
	}

	layer, err := cache.New(db.repos.Cache, cache.WithHotEntries(cfg.Cache.HotEntries), cache.WithLogger(logger))
	if err != nil {
		return err
	}
	db.cache = layer

	trackerOpts := []status.Option{
		status.WithLogger(logger),
		status.WithNotifier(status.NewLogNotifier(logger)),
	}
	for _, n := range options.notifiers {
		trackerOpts = append(trackerOpts, status.WithNotifier(n))
	}
	if cfg.Notify.RedisAddr != "" {
		bus, err := redisbus.Dial(ctx, cfg.Notify.RedisAddr, cfg.Notify.RedisChannel, logger)
		if err != nil {
			return fmt.Errorf("connecting job event bus: %w", err)
		}
		db.bus = bus
		trackerOpts = append(trackerOpts, status.WithNotifier(bus))
	}
	db.tracker = status.NewTracker(db.repos.Status, db.repos.Jobs, trackerOpts...)

	q, err := queue.New(ctx, cfg.QueueConfig(), db.repos.Jobs, queue.WithLogger(logger), queue.WithNotifier(db.tracker))
	if err != nil {
		return err
	}
	db.queue = q

	processor, err := worker.NewProcessor(db.embedder, db.repos.Vectors, db.tracker, cfg.WorkerConfig(),
		worker.WithCache(db.cache), worker.WithProcessorLogger(logger))
	if err != nil {
		return err
	}
	db.processor = processor
	return nil
}

func (db *Database) Close() error {
	var errs []error
	if db.queue != nil {
		if err := db.queue.Close(); err != nil {
			db.logger.Error("error closing queue", "err", err)
			errs = append(errs, err)
		}
	}
	if db.bus != nil {
		if err := db.bus.Close(); err != nil {
			db.logger.Error("error closing job event bus", "err", err)
			errs = append(errs, err)
		}
	}
	if err := db.repos.Close(); err != nil {
		db.logger.Error("error closing backend storage", "err", err)
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Submit registers a document's chunks and enqueues an embedding job carrying
// all of them, in index order as given.
//
// While the document has an active job, that job's handle is returned and
// nothing is written. Otherwise chunks at an already registered index keep
// their ID and take the new content, so a corrected document is re-embedded
// in place. Indexes absent from chunks are left as they are.
func (db *Database) Submit(ctx context.Context, documentID string, chunks []*core.Chunk, progressBase int, opts ...queue.EnqueueOption) (*queue.JobHandle, error) {
	if err := core.ValidateDocumentID(documentID); err != nil {
		return nil, err
	}

	var fresh []*core.Chunk
	for _, chunk := range chunks {
		if chunk.DocumentID == "" {
			chunk.DocumentID = documentID
		}
		if chunk.DocumentID != documentID {
			return nil, fmt.Errorf("%w: chunk %d of %s", ErrDocumentMismatch, chunk.Index, chunk.DocumentID)
		}
		if chunk.Id == 0 {
			fresh = append(fresh, chunk)
		}
	}

	if db.queue.Ready() {
		active, err := db.repos.Jobs.FindActiveJob(ctx, documentID)
		if err != nil {
			return nil, err
		}
		if active != nil {
			db.logger.Info("document already has an active job", "documentID", documentID, "jobID", active.Id)
			return queue.NewHandle(active, true), nil
		}
	}

	if len(fresh) > 0 {
		if _, err := db.repos.Chunks.UpsertChunks(ctx, fresh...); err != nil {
			return nil, fmt.Errorf("registering chunks: %w", err)
		}
	}

	payload := &core.JobPayload{
		DocumentID:   documentID,
		Chunks:       make([]core.ChunkRef, len(chunks)),
		ProgressBase: progressBase,
	}
	for i, chunk := range chunks {
		payload.Chunks[i] = chunk.Ref()
	}
	return db.queue.Enqueue(ctx, payload, opts...)
}

// SubmitPayload enqueues a job for chunks that are already registered.
func (db *Database) SubmitPayload(ctx context.Context, payload *core.JobPayload, opts ...queue.EnqueueOption) (*queue.JobHandle, error) {
	return db.queue.Enqueue(ctx, payload, opts...)
}

// NewPool creates a worker pool sized by the worker config.
// The caller must Release it.
func (db *Database) NewPool(opts ...worker.PoolOption) (*worker.Pool, error) {
	opts = append([]worker.PoolOption{worker.WithPoolLogger(db.logger)}, opts...)
	return worker.NewPool(db.queue, db.processor, db.config.Worker.Concurrency, opts...)
}

// RunWorkers processes jobs until ctx is done or the queue is closed.
func (db *Database) RunWorkers(ctx context.Context) error {
	pool, err := db.NewPool()
	if err != nil {
		return err
	}
	defer pool.Release()
	return pool.Run(ctx)
}

func (db *Database) NewSearcher(opts ...search.Option) (*search.Searcher, error) {
	opts = append([]search.Option{search.WithLogger(db.logger), search.WithChunks(db.repos.Chunks)}, opts...)
	return search.NewSearcher(db.repos.Vectors, db.embedder, opts...)
}

func (db *Database) NewReembedder(cfg *reembed.Config, progress io.Writer) (*reembed.Reembedder, error) {
	return reembed.NewReembedder(db.repos.Chunks, db.queue, cfg, progress)
}

// Status returns the latest processing status of a document.
func (db *Database) Status(ctx context.Context, documentID string) (*core.ProcessingStatus, error) {
	return db.tracker.Status(ctx, documentID)
}

// Job returns a job record by ID.
func (db *Database) Job(ctx context.Context, jobID string) (*core.EmbeddingJob, error) {
	return db.tracker.Job(ctx, jobID)
}

// Coverage compares a document's chunk count with its embedding count.
func (db *Database) Coverage(ctx context.Context, documentID string) (*core.Coverage, error) {
	return db.repos.Vectors.CoverageCheck(ctx, documentID)
}

// DeleteDocument removes a document's chunks, embeddings and status.
func (db *Database) DeleteDocument(ctx context.Context, documentID string) error {
	return db.repos.Chunks.DeleteDocument(ctx, documentID)
}

func (db *Database) Queue() queue.Queue {
	return db.queue
}

func (db *Database) ChunkRepository() storage.ChunkRepository {
	return db.repos.Chunks
}

func (db *Database) VectorRepository() storage.VectorRepository {
	return db.repos.Vectors
}

func (db *Database) Embedder() ai.Embedder {
	return db.embedder
}
