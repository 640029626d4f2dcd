package badger

import (
	"context"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/ragvec/core"
	"github.com/poiesic/ragvec/storage"
)

// CacheRepository implements storage.CacheRepository for BadgerDB.
type CacheRepository struct {
	backend *Backend
}

var _ storage.CacheRepository = (*CacheRepository)(nil)

// NewCacheRepository creates a new CacheRepository.
func NewCacheRepository(backend *Backend) *CacheRepository {
	return &CacheRepository{backend: backend}
}

// GetCacheEntry returns the entry for (model, hash), or nil on a miss.
func (r *CacheRepository) GetCacheEntry(ctx context.Context, model, hash string) (*core.CacheEntry, error) {
	var result *core.CacheEntry
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readRecord(tx, makeCacheKey(model, hash), storage.UnmarshalCacheEntry)
		return err
	}, false)
	return result, err
}

// PutCacheEntry stores an entry, replacing any previous one for the same key.
func (r *CacheRepository) PutCacheEntry(ctx context.Context, entry *core.CacheEntry) error {
	if entry == nil || entry.Hash == "" || entry.Model == "" {
		return fmt.Errorf("%w: cache entry requires hash and model", storage.ErrInvalidQuery)
	}
	if err := core.ValidateVector(entry.Vector, 0); err != nil {
		return err
	}
	if entry.InsertedAt.IsZero() {
		entry.InsertedAt = time.Now().UTC()
	}
	return r.backend.Update(func(tx *badger.Txn) error {
		return tx.Set(makeCacheKey(entry.Model, entry.Hash), storage.MarshalCacheEntry(entry))
	})
}
