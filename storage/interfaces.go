package storage

import (
	"context"

	"github.com/poiesic/ragvec/core"
)

// ChunkRepository stores the chunks produced by the external chunking stage.
// Implementations must be thread-safe and support concurrent access.
type ChunkRepository interface {
	// AddChunks registers chunks and assigns each a store-generated ID.
	// Returns ErrDuplicateKey if a (document, index) pair already exists.
	// Returns the chunks with IDs and timestamps populated.
	AddChunks(ctx context.Context, chunks ...*core.Chunk) ([]*core.Chunk, error)

	// UpsertChunks registers chunks whose (document, index) pair is new and
	// replaces the content of existing ones, keeping their IDs.
	UpsertChunks(ctx context.Context, chunks ...*core.Chunk) ([]*core.Chunk, error)

	// GetChunk retrieves a single chunk by ID.
	// Returns ErrNotFound if the chunk doesn't exist.
	GetChunk(ctx context.Context, id core.ID) (*core.Chunk, error)

	// GetDocumentChunks retrieves all chunks of a document ordered by index.
	GetDocumentChunks(ctx context.Context, documentID string) ([]*core.Chunk, error)

	// CountChunks returns the number of chunks registered for a document.
	CountChunks(ctx context.Context, documentID string) (int, error)

	// ListDocuments returns the IDs of every document with registered chunks.
	ListDocuments(ctx context.Context) ([]string, error)

	// DeleteDocument removes a document's chunks, embeddings and status.
	DeleteDocument(ctx context.Context, documentID string) error

	// Close releases resources held by the repository.
	Close() error
}

// VectorRepository persists one embedding per chunk and answers
// nearest-neighbor queries. Writes are idempotent upserts keyed by chunk ID.
type VectorRepository interface {
	// UpsertEmbedding inserts or replaces the embedding of one registered chunk.
	UpsertEmbedding(ctx context.Context, chunkID core.ID, documentID string, vector []float32) error

	// UpsertEmbeddings inserts or replaces many embeddings in one operation.
	// Every embedding is validated before anything is written. Embeddings of
	// chunks that are not registered are skipped.
	UpsertEmbeddings(ctx context.Context, embeddings ...*core.Embedding) error

	// GetEmbeddings retrieves embeddings by chunk ID.
	// Returns only the embeddings that exist (no error for missing ones).
	GetEmbeddings(ctx context.Context, chunkIDs ...core.ID) ([]*core.Embedding, error)

	// NearestNeighbors returns up to limit chunks closest to the query under
	// cosine distance, ascending by distance. When documentIDs is non-empty the
	// search is restricted to those documents; malformed IDs are ignored.
	NearestNeighbors(ctx context.Context, query []float32, limit int, documentIDs ...string) ([]*core.SearchResult, error)

	// CoverageCheck reports chunk count against embedding count for a document.
	CoverageCheck(ctx context.Context, documentID string) (*core.Coverage, error)

	// Dimension returns the fixed vector dimension, or 0 if not yet pinned.
	Dimension() int
}

// CacheRepository persists content-addressed embeddings.
type CacheRepository interface {
	// GetCacheEntry returns the entry for (model, hash).
	// Returns nil, nil on a miss.
	GetCacheEntry(ctx context.Context, model, hash string) (*core.CacheEntry, error)

	// PutCacheEntry stores an entry keyed by its model and hash.
	PutCacheEntry(ctx context.Context, entry *core.CacheEntry) error
}

// JobRepository persists embedding jobs and their state.
type JobRepository interface {
	// SaveJob inserts or replaces a job record.
	SaveJob(ctx context.Context, job *core.EmbeddingJob) error

	// GetJob retrieves a job by ID.
	// Returns ErrNotFound if the job doesn't exist.
	GetJob(ctx context.Context, id string) (*core.EmbeddingJob, error)

	// ListJobs returns jobs in any of the given states, oldest enqueue first.
	// With no states, returns every job.
	ListJobs(ctx context.Context, states ...core.JobState) ([]*core.EmbeddingJob, error)

	// NextQueuedJob returns the queued job that is due first, without
	// reading jobs in any other state. Returns nil, nil when none is queued.
	NextQueuedJob(ctx context.Context) (*core.EmbeddingJob, error)

	// FindActiveJob returns the non-terminal job for a document, if any.
	// Returns nil, nil when none exists.
	FindActiveJob(ctx context.Context, documentID string) (*core.EmbeddingJob, error)
}

// StatusRepository persists the latest processing status per document.
type StatusRepository interface {
	// GetStatus retrieves the status of a document.
	// Returns ErrNotFound if no status was ever reported.
	GetStatus(ctx context.Context, documentID string) (*core.ProcessingStatus, error)

	// UpdateStatus applies a partial update, creating the status if absent,
	// and stamps UpdatedAt. Returns the resulting status.
	UpdateStatus(ctx context.Context, documentID string, update *core.StatusUpdate) (*core.ProcessingStatus, error)
}
