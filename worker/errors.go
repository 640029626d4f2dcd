package worker

import "errors"

var (
	// ErrEmbedderRequired is returned when no embedder is supplied.
	ErrEmbedderRequired = errors.New("embedder is required")

	// ErrVectorRepositoryRequired is returned when no vector store is supplied.
	ErrVectorRepositoryRequired = errors.New("vector repository is required")

	// ErrTrackerRequired is returned when no status tracker is supplied.
	ErrTrackerRequired = errors.New("status tracker is required")

	// ErrQueueRequired is returned when a pool has no queue to consume.
	ErrQueueRequired = errors.New("queue is required")

	// ErrProcessorRequired is returned when a pool has no processor.
	ErrProcessorRequired = errors.New("processor is required")

	// ErrInvalidConfig is returned by Config.Validate.
	ErrInvalidConfig = errors.New("invalid worker config")

	// ErrCacheMiss is returned in cache-only mode when a chunk has no cached embedding.
	ErrCacheMiss = errors.New("cache-only mode: embedding not cached")

	// ErrEmbeddingCountMismatch is returned when the embedder returns a
	// different number of vectors than it was given texts.
	ErrEmbeddingCountMismatch = errors.New("embedding count mismatch")
)
