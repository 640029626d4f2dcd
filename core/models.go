package core

//go:generate go run ../cmd/musgen

import (
	"time"
)

// ID is a store-generated identifier for chunks.
// IDs are handed out by a database sequence and are always greater than zero.
type ID uint64

// Chunk is a slice of a parent document's extracted text.
// Chunks are immutable once registered.
type Chunk struct {
	Id         ID
	DocumentID string
	Index      int    // Zero-based sequence index within the document
	Content    string
	TokenCount int
	PageStart  int    // Optional, 0 when unknown
	PageEnd    int    // Optional, 0 when unknown
	Section    string // Optional section heading
	InsertedAt time.Time
}

// Ref returns the job payload view of the chunk.
func (c *Chunk) Ref() ChunkRef {
	return ChunkRef{
		ChunkID:    c.Id,
		Index:      c.Index,
		Content:    c.Content,
		TokenCount: c.TokenCount,
	}
}

// ChunkRef is the part of a chunk an embedding job carries.
type ChunkRef struct {
	ChunkID    ID     `json:"chunkId"`
	Index      int    `json:"chunkIndex"`
	Content    string `json:"content"`
	TokenCount int    `json:"tokenCount"`
}

// Embedding is the vector stored for exactly one chunk.
type Embedding struct {
	ChunkID    ID
	DocumentID string // Denormalized for scoped search
	Vector     []float32
	UpdatedAt  time.Time
}

// CacheEntry memoizes a previously computed embedding by content hash.
type CacheEntry struct {
	Hash       string
	Model      string
	Vector     []float32
	TokenCount int
	InsertedAt time.Time
}

// JobState is the lifecycle state of an embedding job.
type JobState string

const (
	JobStateQueued     JobState = "queued"
	JobStateProcessing JobState = "processing"
	JobStateCompleted  JobState = "completed"
	JobStateFailed     JobState = "failed"
)

// Terminal reports whether no further transitions happen from this state.
func (s JobState) Terminal() bool {
	return s == JobStateCompleted || s == JobStateFailed
}

// EmbeddingJob is one unit of work submitted to the queue.
type EmbeddingJob struct {
	Id            string
	DocumentID    string
	Chunks        []ChunkRef
	ProgressBase  int // Progress already accounted for upstream, 0-100
	Attempts      int // Number of deliveries so far
	MaxAttempts   int
	BackoffBase   time.Duration
	State         JobState
	LastError     string
	EnqueuedAt    time.Time
	UpdatedAt     time.Time
	NextAttemptAt time.Time // Earliest time the job may be delivered
}

// JobPayload is the wire form of a job submission.
type JobPayload struct {
	DocumentID   string     `json:"documentId"`
	JobID        string     `json:"jobId,omitempty"`
	Chunks       []ChunkRef `json:"chunks"`
	ProgressBase int        `json:"progressBase"`
}

// JobEvent is emitted when a job reaches a terminal state or is scheduled for retry.
type JobEvent struct {
	JobID      string    `json:"jobId"`
	DocumentID string    `json:"documentId"`
	State      JobState  `json:"state"`
	Attempts   int       `json:"attempts"`
	Error      string    `json:"error,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// DocumentState is the coarse embedding state of a parent document.
type DocumentState string

const (
	DocumentStateProcessing DocumentState = "embedding_processing"
	DocumentStateProcessed  DocumentState = "processed"
	DocumentStateFailed     DocumentState = "embedding_failed"
)

// ProcessingStatus is the externally visible embedding progress of a document.
type ProcessingStatus struct {
	DocumentID string
	State      DocumentState
	Progress   int // 0-100
	Error      string
	UpdatedAt  time.Time
}

// SearchResult is a single nearest-neighbor match.
// Distance is the cosine distance and the authoritative order key.
type SearchResult struct {
	ChunkID    ID
	DocumentID string
	Distance   float32
	Similarity float32 // 1 / (1 + Distance), for display
}

// Coverage compares registered chunks with stored embeddings for one document.
type Coverage struct {
	DocumentID string
	Chunks     int
	Embeddings int
}

// Complete reports whether every chunk has an embedding.
func (c *Coverage) Complete() bool {
	return c.Chunks > 0 && c.Embeddings >= c.Chunks
}

// Missing returns the number of chunks without an embedding.
func (c *Coverage) Missing() int {
	if c.Embeddings >= c.Chunks {
		return 0
	}
	return c.Chunks - c.Embeddings
}
