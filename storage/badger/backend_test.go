package badger

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/ragvec/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenBackend_InMemory(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	require.NotNil(t, backend)
	defer backend.Close()

	assert.False(t, backend.IsClosed())
}

func TestOpenBackend_FileSystem(t *testing.T) {
	tmpDir := filepath.Join(t.TempDir(), "db")
	backend, err := OpenBackend(tmpDir, false)
	require.NoError(t, err)
	require.NotNil(t, backend)
	defer backend.Close()

	info, err := os.Stat(tmpDir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestOpenBackend_NotADirectory(t *testing.T) {
	tmpFile := filepath.Join(t.TempDir(), "file.txt")
	require.NoError(t, os.WriteFile(tmpFile, []byte("x"), 0644))

	_, err := OpenBackend(tmpFile, false)
	assert.Error(t, err)
}

func TestBackendClose(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)

	assert.False(t, backend.IsClosed())
	require.NoError(t, backend.Close())
	assert.True(t, backend.IsClosed())

	err = backend.WithTx(func(tx *badger.Txn) error { return nil }, false)
	assert.ErrorIs(t, err, storage.ErrStorageClosed)
	err = backend.Update(func(tx *badger.Txn) error { return tx.Set([]byte("k"), []byte("v")) })
	assert.ErrorIs(t, err, storage.ErrStorageClosed)
	err = backend.WriteBatch(func(wb *badger.WriteBatch) error { return nil })
	assert.ErrorIs(t, err, storage.ErrStorageClosed)
	_, err = backend.GetSequence("seq:test")
	assert.ErrorIs(t, err, storage.ErrStorageClosed)
}

func TestBackendUpdate_PropagatesError(t *testing.T) {
	backend, err := NewMemoryBackend()
	require.NoError(t, err)
	defer backend.Close()

	boom := errors.New("boom")
	err = backend.Update(func(tx *badger.Txn) error {
		if err := tx.Set([]byte("k"), []byte("v")); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	// Nothing was committed
	err = backend.WithTx(func(tx *badger.Txn) error {
		_, err := tx.Get([]byte("k"))
		return err
	}, false)
	assert.ErrorIs(t, err, badger.ErrKeyNotFound)
}

func TestBackendWriteBatch(t *testing.T) {
	backend, err := NewMemoryBackend()
	require.NoError(t, err)
	defer backend.Close()

	err = backend.WriteBatch(func(wb *badger.WriteBatch) error {
		for i := range 500 {
			if err := wb.Set(appendUint64([]byte("wb:"), uint64(i)), []byte("v")); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)

	var count int
	err = backend.WithTx(func(tx *badger.Txn) error {
		count = countPrefix(tx, []byte("wb:"))
		return nil
	}, false)
	require.NoError(t, err)
	assert.Equal(t, 500, count)
}

func TestKeys(t *testing.T) {
	doc := "3f1c2e1a-7d4b-4b8e-9a65-0c9f5d7e2b11"

	key := makeChunkDocKey(doc, 7)
	assert.Equal(t, doc, documentFromChunkDocKey(key))

	embKey := makeEmbeddingDocKey(doc, 42)
	assert.EqualValues(t, 42, chunkIDFromSuffix(embKey))

	// Index order follows numeric order
	assert.Less(t, string(makeChunkDocKey(doc, 2)), string(makeChunkDocKey(doc, 10)))
}
