package badger

import (
	"cmp"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/ragvec/core"
	"github.com/poiesic/ragvec/storage"
)

// VectorRepository implements storage.VectorRepository for BadgerDB.
// Search is an exact scan; the store is sized for per-tenant corpora, not
// billion-vector indexes.
type VectorRepository struct {
	backend *Backend
	logger  *slog.Logger

	mu  sync.RWMutex
	dim int
}

var _ storage.VectorRepository = (*VectorRepository)(nil)

// NewVectorRepository creates a new VectorRepository. A positive dimension
// pins the vector length up front; 0 pins it on the first write. A dimension
// already persisted in the store wins and must agree with a positive argument.
func NewVectorRepository(backend *Backend, dimension int) (*VectorRepository, error) {
	if dimension < 0 {
		return nil, fmt.Errorf("%w: negative dimension %d", storage.ErrInvalidQuery, dimension)
	}

	r := &VectorRepository{
		backend: backend,
		logger:  backend.logger.With("repository", "vectors"),
	}

	stored := 0
	err := backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get([]byte(dimensionKey))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			if len(val) != 8 {
				return fmt.Errorf("%w: dimension record", storage.ErrSerializationFailed)
			}
			stored = int(binary.BigEndian.Uint64(val))
			return nil
		})
	}, false)
	if err != nil {
		return nil, err
	}

	switch {
	case stored > 0 && dimension > 0 && stored != dimension:
		return nil, fmt.Errorf("%w: store holds %d, configured %d", core.ErrDimensionMismatch, stored, dimension)
	case stored > 0:
		r.dim = stored
	case dimension > 0:
		if err := r.pinDimension(dimension); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Dimension returns the pinned vector dimension, or 0 before the first write.
func (r *VectorRepository) Dimension() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.dim
}

func (r *VectorRepository) pinDimension(dim int) error {
	err := r.backend.Update(func(tx *badger.Txn) error {
		return tx.Set([]byte(dimensionKey), binary.BigEndian.AppendUint64(nil, uint64(dim)))
	})
	if err != nil {
		return err
	}
	r.dim = dim
	r.logger.Info("vector dimension pinned", "dimension", dim)
	return nil
}

// UpsertEmbedding inserts or replaces the embedding of one chunk.
func (r *VectorRepository) UpsertEmbedding(ctx context.Context, chunkID core.ID, documentID string, vector []float32) error {
	return r.UpsertEmbeddings(ctx, &core.Embedding{
		ChunkID:    chunkID,
		DocumentID: documentID,
		Vector:     vector,
	})
}

// UpsertEmbeddings validates every embedding and then writes them all.
// A rejected embedding means nothing from the batch is written. Embeddings
// of chunks that are no longer registered are skipped.
func (r *VectorRepository) UpsertEmbeddings(ctx context.Context, embeddings ...*core.Embedding) error {
	if len(embeddings) == 0 {
		return nil
	}

	dim, err := r.ensureDimension(embeddings)
	if err != nil {
		return err
	}
	for _, e := range embeddings {
		if err := core.ValidateEmbedding(e, dim); err != nil {
			return err
		}
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	now := time.Now().UTC()
	for group := range slices.Chunk(embeddings, upsertBatchSize) {
		if err := r.backend.Update(func(tx *badger.Txn) error {
			return r.upsertGroup(tx, group, now)
		}); err != nil {
			return err
		}
	}
	return nil
}

// upsertGroup writes embeddings whose chunk is still registered. Reading the
// chunk key makes the write conflict with a concurrent DeleteDocument.
func (r *VectorRepository) upsertGroup(tx *badger.Txn, group []*core.Embedding, now time.Time) error {
	for _, e := range group {
		if _, err := tx.Get(makeChunkKey(e.ChunkID)); errors.Is(err, badger.ErrKeyNotFound) {
			r.logger.Debug("skipping embedding of deleted chunk", "chunkID", e.ChunkID, "documentID", e.DocumentID)
			continue
		} else if err != nil {
			return err
		}

		e.UpdatedAt = now
		if err := tx.Set(makeEmbeddingKey(e.ChunkID), storage.MarshalEmbedding(e)); err != nil {
			return err
		}
		if err := tx.Set(makeEmbeddingDocKey(e.DocumentID, e.ChunkID), nil); err != nil {
			return err
		}
	}
	return nil
}

// ensureDimension returns the pinned dimension, pinning it from the batch
// when the store is still empty.
func (r *VectorRepository) ensureDimension(embeddings []*core.Embedding) (int, error) {
	if dim := r.Dimension(); dim > 0 {
		return dim, nil
	}

	var candidate int
	for _, e := range embeddings {
		if e != nil && len(e.Vector) > 0 {
			candidate = len(e.Vector)
			break
		}
	}
	if candidate == 0 {
		return 0, fmt.Errorf("%w: %w", core.ErrInvalidEmbedding, core.ErrEmptyVector)
	}
	// Validate before pinning so a bad first batch doesn't fix the dimension.
	for _, e := range embeddings {
		if err := core.ValidateEmbedding(e, candidate); err != nil {
			return 0, err
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.dim > 0 {
		return r.dim, nil
	}
	if err := r.pinDimension(candidate); err != nil {
		return 0, err
	}
	return r.dim, nil
}

// GetEmbeddings retrieves embeddings by chunk ID, skipping missing ones.
func (r *VectorRepository) GetEmbeddings(ctx context.Context, chunkIDs ...core.ID) ([]*core.Embedding, error) {
	var results []*core.Embedding
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range chunkIDs {
			if id == 0 {
				continue
			}
			e, err := readRecord(tx, makeEmbeddingKey(id), storage.UnmarshalEmbedding)
			if err != nil {
				return err
			}
			if e != nil {
				results = append(results, e)
			}
		}
		return nil
	}, false)
	return results, err
}

// NearestNeighbors scans stored embeddings and returns the closest ones under
// cosine distance. Ties are broken by chunk ID so results are deterministic.
func (r *VectorRepository) NearestNeighbors(ctx context.Context, query []float32, limit int, documentIDs ...string) ([]*core.SearchResult, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("%w: limit must be positive, got %d", storage.ErrInvalidQuery, limit)
	}

	dim := r.Dimension()
	if err := core.ValidateVector(query, dim); err != nil {
		return nil, fmt.Errorf("%w: %w", storage.ErrInvalidQuery, err)
	}
	if dim == 0 {
		return []*core.SearchResult{}, nil
	}

	scoped := len(documentIDs) > 0
	if scoped {
		valid, dropped := core.FilterDocumentIDs(documentIDs)
		if dropped > 0 {
			r.logger.Warn("ignoring malformed document ids", "dropped", dropped)
		}
		if len(valid) == 0 {
			return []*core.SearchResult{}, nil
		}
		documentIDs = valid
	}

	queryNorm := norm(query)
	var results []*core.SearchResult
	score := func(e *core.Embedding) {
		d := cosineDistance(query, queryNorm, e.Vector)
		results = append(results, &core.SearchResult{
			ChunkID:    e.ChunkID,
			DocumentID: e.DocumentID,
			Distance:   float32(d),
			Similarity: float32(1 / (1 + d)),
		})
	}

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		if !scoped {
			opts := badger.DefaultIteratorOptions
			opts.Prefix = []byte(embeddingPrefix)
			iter := tx.NewIterator(opts)
			defer iter.Close()

			for iter.Rewind(); iter.Valid(); iter.Next() {
				if err := ctx.Err(); err != nil {
					return err
				}
				if err := iter.Item().Value(func(val []byte) error {
					e, err := storage.UnmarshalEmbedding(val)
					if err != nil {
						return err
					}
					if len(e.Vector) == dim {
						score(e)
					}
					return nil
				}); err != nil {
					return err
				}
			}
			return nil
		}

		for _, documentID := range documentIDs {
			for _, key := range keysWithPrefix(tx, makeEmbeddingDocPrefix(documentID)) {
				if err := ctx.Err(); err != nil {
					return err
				}
				e, err := readRecord(tx, makeEmbeddingKey(chunkIDFromSuffix(key)), storage.UnmarshalEmbedding)
				if err != nil {
					return err
				}
				// Index entries can outlive a chunk that was re-upserted under another document.
				if e == nil || e.DocumentID != documentID || len(e.Vector) != dim {
					continue
				}
				score(e)
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	slices.SortFunc(results, func(a, b *core.SearchResult) int {
		if c := cmp.Compare(a.Distance, b.Distance); c != 0 {
			return c
		}
		return cmp.Compare(a.ChunkID, b.ChunkID)
	})
	if len(results) > limit {
		results = results[:limit]
	}
	if results == nil {
		results = []*core.SearchResult{}
	}
	return results, nil
}

// CoverageCheck compares a document's chunk count to its embedding count.
// A malformed document ID yields an empty report.
func (r *VectorRepository) CoverageCheck(ctx context.Context, documentID string) (*core.Coverage, error) {
	coverage := &core.Coverage{DocumentID: documentID}
	if core.ValidateDocumentID(documentID) != nil {
		r.logger.Warn("coverage check for malformed document id", "documentID", documentID)
		return coverage, nil
	}

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		coverage.Chunks = countPrefix(tx, makeChunkDocPrefix(documentID))
		coverage.Embeddings = countPrefix(tx, makeEmbeddingDocPrefix(documentID))
		return nil
	}, false)
	return coverage, err
}

func norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

// cosineDistance returns 1 - cos(a, b) clamped to [0, 2]. A zero vector is
// treated as orthogonal to everything.
func cosineDistance(a []float32, aNorm float64, b []float32) float64 {
	bNorm := norm(b)
	if aNorm == 0 || bNorm == 0 {
		return 1
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	d := 1 - dot/(aNorm*bNorm)
	return min(max(d, 0), 2)
}
