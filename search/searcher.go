package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/poiesic/ragvec/ai"
	"github.com/poiesic/ragvec/core"
	"github.com/poiesic/ragvec/storage"
)

// Searcher answers nearest-neighbor queries for the retrieval layer.
type Searcher struct {
	vectors  storage.VectorRepository
	chunks   storage.ChunkRepository
	embedder ai.Embedder
	logger   *slog.Logger
}

// Hit is a search result joined with its chunk.
// Chunk is nil when the chunk was deleted after the search ran.
type Hit struct {
	*core.SearchResult
	Chunk *core.Chunk
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// WithChunks enables chunk hydration in FindSimilarHits.
func WithChunks(chunks storage.ChunkRepository) Option {
	return func(s *Searcher) error {
		s.chunks = chunks
		return nil
	}
}

// NewSearcher creates a new searcher.
func NewSearcher(vectors storage.VectorRepository, embedder ai.Embedder, opts ...Option) (*Searcher, error) {
	if vectors == nil {
		return nil, ErrVectorRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	s := &Searcher{
		vectors:  vectors,
		embedder: embedder,
		logger:   slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	s.logger = s.logger.With("component", "searcher")
	return s, nil
}

// FindSimilar embeds the query text and returns up to limit chunks closest to
// it, ascending by distance. A non-empty documentIDs restricts the search.
func (s *Searcher) FindSimilar(ctx context.Context, query string, limit int, documentIDs ...string) ([]*core.SearchResult, error) {
	if query == "" {
		return nil, ErrEmptyQuery
	}
	vector, err := ai.EmbedText(ctx, s.embedder, query)
	if err != nil {
		s.logger.Error("error generating embedding for query", "err", err)
		return nil, fmt.Errorf("embedding query: %w", err)
	}
	return s.FindSimilarVector(ctx, vector, limit, documentIDs...)
}

// FindSimilarVector is FindSimilar for a precomputed query embedding.
func (s *Searcher) FindSimilarVector(ctx context.Context, vector []float32, limit int, documentIDs ...string) ([]*core.SearchResult, error) {
	results, err := s.vectors.NearestNeighbors(ctx, vector, limit, documentIDs...)
	if err != nil {
		s.logger.Error("error querying for similar chunks", "limit", limit, "documents", len(documentIDs), "err", err)
		return nil, err
	}
	s.logger.Debug("search complete", "limit", limit, "documents", len(documentIDs), "hits", len(results))
	return results, nil
}

// FindSimilarHits runs FindSimilar and attaches chunk content to each result.
// Requires WithChunks.
func (s *Searcher) FindSimilarHits(ctx context.Context, query string, limit int, documentIDs ...string) ([]*Hit, error) {
	if s.chunks == nil {
		return nil, ErrChunkRepositoryRequired
	}
	results, err := s.FindSimilar(ctx, query, limit, documentIDs...)
	if err != nil {
		return nil, err
	}

	hits := make([]*Hit, 0, len(results))
	for _, result := range results {
		hit := &Hit{SearchResult: result}
		chunk, err := s.chunks.GetChunk(ctx, result.ChunkID)
		switch {
		case err == nil:
			hit.Chunk = chunk
		case errors.Is(err, storage.ErrNotFound):
			s.logger.Warn("search hit references missing chunk", "chunkID", result.ChunkID)
		default:
			return nil, err
		}
		hits = append(hits, hit)
	}
	return hits, nil
}
