package badger

import (
	"context"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/ragvec/core"
	"github.com/poiesic/ragvec/storage"
)

// StatusRepository implements storage.StatusRepository for BadgerDB.
type StatusRepository struct {
	backend *Backend
}

var _ storage.StatusRepository = (*StatusRepository)(nil)

// NewStatusRepository creates a new StatusRepository.
func NewStatusRepository(backend *Backend) *StatusRepository {
	return &StatusRepository{backend: backend}
}

// GetStatus retrieves the status of a document.
func (r *StatusRepository) GetStatus(ctx context.Context, documentID string) (*core.ProcessingStatus, error) {
	if core.ValidateDocumentID(documentID) != nil {
		return nil, storage.ErrNotFound
	}

	var result *core.ProcessingStatus
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readRecord(tx, makeStatusKey(documentID), storage.UnmarshalStatus)
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

// UpdateStatus reads, patches and writes the status in one transaction.
func (r *StatusRepository) UpdateStatus(ctx context.Context, documentID string, update *core.StatusUpdate) (*core.ProcessingStatus, error) {
	if err := core.ValidateDocumentID(documentID); err != nil {
		return nil, err
	}

	var result *core.ProcessingStatus
	err := r.backend.Update(func(tx *badger.Txn) error {
		key := makeStatusKey(documentID)
		status, err := readRecord(tx, key, storage.UnmarshalStatus)
		if err != nil {
			return err
		}
		if status == nil {
			status = &core.ProcessingStatus{DocumentID: documentID}
		}
		update.Apply(status)
		status.UpdatedAt = time.Now().UTC()
		result = status
		return tx.Set(key, storage.MarshalStatus(status))
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
