package badger

import (
	"context"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/ragvec/core"
	"github.com/poiesic/ragvec/storage"
)

// ChunkRepository implements storage.ChunkRepository for BadgerDB.
type ChunkRepository struct {
	backend *Backend
	idSeq   *badger.Sequence
}

var _ storage.ChunkRepository = (*ChunkRepository)(nil)

// NewChunkRepository creates a new ChunkRepository.
func NewChunkRepository(backend *Backend) (*ChunkRepository, error) {
	idSeq, err := backend.GetSequence(chunkIDSeq)
	if err != nil {
		return nil, err
	}

	return &ChunkRepository{
		backend: backend,
		idSeq:   idSeq,
	}, nil
}

// Close releases the ID sequence.
func (r *ChunkRepository) Close() error {
	return r.idSeq.Release()
}

func (r *ChunkRepository) nextID() (core.ID, error) {
	nextID, err := r.idSeq.Next()
	if err != nil {
		return 0, err
	}
	// BadgerDB sequences can return 0 on first call, so we skip it
	if nextID == 0 {
		nextID, err = r.idSeq.Next()
		if err != nil {
			return 0, err
		}
	}
	return core.ID(nextID), nil
}

// AddChunks registers chunks and assigns IDs from the sequence.
func (r *ChunkRepository) AddChunks(ctx context.Context, chunks ...*core.Chunk) ([]*core.Chunk, error) {
	return r.putChunks(chunks, false)
}

// UpsertChunks registers new positions and rewrites the content of existing
// ones, which keep their ID and insertion time.
func (r *ChunkRepository) UpsertChunks(ctx context.Context, chunks ...*core.Chunk) ([]*core.Chunk, error) {
	return r.putChunks(chunks, true)
}

func (r *ChunkRepository) putChunks(chunks []*core.Chunk, replace bool) ([]*core.Chunk, error) {
	for _, chunk := range chunks {
		if err := core.ValidateChunk(chunk); err != nil {
			return nil, err
		}
	}

	err := r.backend.Update(func(tx *badger.Txn) error {
		seen := make(map[string]struct{}, len(chunks))
		for _, chunk := range chunks {
			docKey := makeChunkDocKey(chunk.DocumentID, chunk.Index)
			if _, dup := seen[string(docKey)]; dup {
				return fmt.Errorf("%w: chunk %d of document %s", storage.ErrDuplicateKey, chunk.Index, chunk.DocumentID)
			}
			seen[string(docKey)] = struct{}{}

			existing, err := r.chunkAt(tx, docKey)
			if err != nil {
				return err
			}
			switch {
			case existing != nil && !replace:
				return fmt.Errorf("%w: chunk %d of document %s", storage.ErrDuplicateKey, chunk.Index, chunk.DocumentID)
			case existing != nil:
				chunk.Id = existing.Id
				chunk.InsertedAt = existing.InsertedAt
			default:
				id, err := r.nextID()
				if err != nil {
					return err
				}
				chunk.Id = id
				chunk.InsertedAt = time.Now().UTC()
			}

			if err := tx.Set(makeChunkKey(chunk.Id), storage.MarshalChunk(chunk)); err != nil {
				return err
			}
			if err := tx.Set(docKey, storage.MarshalID(chunk.Id)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return chunks, nil
}

// chunkAt reads the chunk registered under a (document, index) key.
func (r *ChunkRepository) chunkAt(tx *badger.Txn, docKey []byte) (*core.Chunk, error) {
	item, err := tx.Get(docKey)
	if err == badger.ErrKeyNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var chunkID core.ID
	if err := item.Value(func(val []byte) error {
		var err error
		chunkID, err = storage.UnmarshalID(val)
		return err
	}); err != nil {
		return nil, err
	}
	chunk, err := readRecord(tx, makeChunkKey(chunkID), storage.UnmarshalChunk)
	if err != nil || chunk != nil {
		return chunk, err
	}
	return &core.Chunk{Id: chunkID, InsertedAt: time.Now().UTC()}, nil
}

// GetChunk retrieves a single chunk by ID.
func (r *ChunkRepository) GetChunk(ctx context.Context, id core.ID) (*core.Chunk, error) {
	var result *core.Chunk
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readRecord(tx, makeChunkKey(id), storage.UnmarshalChunk)
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// GetDocumentChunks retrieves a document's chunks in index order.
func (r *ChunkRepository) GetDocumentChunks(ctx context.Context, documentID string) ([]*core.Chunk, error) {
	if core.ValidateDocumentID(documentID) != nil {
		return nil, nil
	}

	var results []*core.Chunk
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeChunkDocPrefix(documentID)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var chunkID core.ID
			if err := iter.Item().Value(func(val []byte) error {
				var err error
				chunkID, err = storage.UnmarshalID(val)
				return err
			}); err != nil {
				return err
			}

			chunk, err := readRecord(tx, makeChunkKey(chunkID), storage.UnmarshalChunk)
			if err != nil {
				return err
			}
			if chunk != nil {
				results = append(results, chunk)
			}
		}
		return nil
	}, false)
	return results, err
}

// CountChunks returns the number of chunks registered for a document.
func (r *ChunkRepository) CountChunks(ctx context.Context, documentID string) (int, error) {
	if core.ValidateDocumentID(documentID) != nil {
		return 0, nil
	}
	count := 0
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		count = countPrefix(tx, makeChunkDocPrefix(documentID))
		return nil
	}, false)
	return count, err
}

// ListDocuments returns every document with registered chunks, in key order.
func (r *ChunkRepository) ListDocuments(ctx context.Context) ([]string, error) {
	var results []string
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, key := range keysWithPrefix(tx, []byte(chunkDocPrefix)) {
			documentID := documentFromChunkDocKey(key)
			if documentID == "" {
				continue
			}
			if n := len(results); n > 0 && results[n-1] == documentID {
				continue
			}
			results = append(results, documentID)
		}
		return nil
	}, false)
	return results, err
}

// DeleteDocument removes a document's chunks, embeddings and status.
//
// Chunk records go first, in transactions. An embedding upsert racing the
// delete either commits before them, and is swept with the other
// embeddings, or finds its chunk gone and writes nothing.
func (r *ChunkRepository) DeleteDocument(ctx context.Context, documentID string) error {
	if err := core.ValidateDocumentID(documentID); err != nil {
		return err
	}

	for {
		deleted, err := r.deleteChunkBatch(documentID)
		if err != nil {
			return err
		}
		if deleted == 0 {
			break
		}
	}

	var doomed [][]byte
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, key := range keysWithPrefix(tx, makeEmbeddingDocPrefix(documentID)) {
			doomed = append(doomed, makeEmbeddingKey(chunkIDFromSuffix(key)), key)
		}
		return nil
	}, false)
	if err != nil {
		return err
	}
	doomed = append(doomed, makeStatusKey(documentID))

	return r.backend.WriteBatch(func(wb *badger.WriteBatch) error {
		for _, key := range doomed {
			if err := wb.Delete(key); err != nil {
				return err
			}
		}
		return nil
	})
}

// deleteChunkBatch deletes up to deleteBatchSize of a document's chunks in
// one transaction and reports how many it removed.
func (r *ChunkRepository) deleteChunkBatch(documentID string) (int, error) {
	deleted := 0
	err := r.backend.Update(func(tx *badger.Txn) error {
		deleted = 0
		keys := keysWithPrefix(tx, makeChunkDocPrefix(documentID))
		if len(keys) > deleteBatchSize {
			keys = keys[:deleteBatchSize]
		}
		for _, key := range keys {
			item, err := tx.Get(key)
			if err != nil {
				return err
			}
			var chunkID core.ID
			if err := item.Value(func(val []byte) error {
				var err error
				chunkID, err = storage.UnmarshalID(val)
				return err
			}); err != nil {
				return err
			}
			if err := tx.Delete(makeChunkKey(chunkID)); err != nil {
				return err
			}
			if err := tx.Delete(key); err != nil {
				return err
			}
			deleted++
		}
		return nil
	})
	return deleted, err
}
