package reembed

import (
	"context"
	"fmt"
	"testing"

	"github.com/poiesic/ragvec/core"
	"github.com/poiesic/ragvec/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Sorted so store order matches slice order.
var testDocs = []string{
	"10000000-0000-4000-8000-000000000001",
	"20000000-0000-4000-8000-000000000002",
	"30000000-0000-4000-8000-000000000003",
	"40000000-0000-4000-8000-000000000004",
	"50000000-0000-4000-8000-000000000005",
}

func setupTestRepos(t *testing.T) *badger.Repositories {
	t.Helper()
	repos, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() { repos.Close() })
	return repos
}

// seed registers n chunks for each document.
func seed(t *testing.T, repos *badger.Repositories, n int, documents ...string) {
	t.Helper()
	for _, doc := range documents {
		chunks := make([]*core.Chunk, n)
		for i := range chunks {
			chunks[i] = &core.Chunk{DocumentID: doc, Index: i, Content: fmt.Sprintf("%s chunk %d", doc[:1], i)}
		}
		_, err := repos.Chunks.AddChunks(context.Background(), chunks...)
		require.NoError(t, err)
	}
}

func TestDocumentIterator_Basic(t *testing.T) {
	repos := setupTestRepos(t)
	ctx := context.Background()
	seed(t, repos, 2, testDocs[:3]...)

	it := NewDocumentIterator(repos.Chunks, 2)
	documents, err := it.Documents(ctx)
	require.NoError(t, err)
	assert.Equal(t, testDocs[:3], documents)

	var batches [][]string
	err = it.ForEach(ctx, documents, func(batch []string) error {
		batches = append(batches, batch)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, [][]string{testDocs[:2], testDocs[2:3]}, batches)
}

func TestDocumentIterator_Only(t *testing.T) {
	repos := setupTestRepos(t)
	seed(t, repos, 1, testDocs...)

	it := NewDocumentIterator(repos.Chunks, 10)
	documents, err := it.Documents(context.Background(), testDocs[3], testDocs[1], "unknown")
	require.NoError(t, err)
	assert.Equal(t, []string{testDocs[1], testDocs[3]}, documents)
}

func TestDocumentIterator_EmptyStore(t *testing.T) {
	repos := setupTestRepos(t)
	ctx := context.Background()

	it := NewDocumentIterator(repos.Chunks, 10)
	documents, err := it.Documents(ctx)
	require.NoError(t, err)
	assert.Empty(t, documents)

	called := 0
	err = it.ForEach(ctx, documents, func([]string) error {
		called++
		return nil
	})
	require.NoError(t, err)
	assert.Zero(t, called)
}

func TestDocumentIterator_ErrorHandling(t *testing.T) {
	repos := setupTestRepos(t)
	it := NewDocumentIterator(repos.Chunks, 1)

	called := 0
	err := it.ForEach(context.Background(), testDocs[:2], func([]string) error {
		called++
		return assert.AnError
	})
	assert.Equal(t, assert.AnError, err, "should return callback error")
	assert.Equal(t, 1, called, "should stop on first error")
}

func TestDocumentIterator_ContextCancellation(t *testing.T) {
	repos := setupTestRepos(t)
	ctx, cancel := context.WithCancel(context.Background())

	it := NewDocumentIterator(repos.Chunks, 1)
	called := 0
	err := it.ForEach(ctx, testDocs, func([]string) error {
		called++
		if called == 2 {
			cancel()
		}
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 2, called, "should process until context canceled")
}

func TestDocumentIterator_InvalidBatchSize(t *testing.T) {
	repos := setupTestRepos(t)
	assert.Equal(t, DefaultBatchSize, NewDocumentIterator(repos.Chunks, 0).batchSize)
	assert.Equal(t, DefaultBatchSize, NewDocumentIterator(repos.Chunks, -5).batchSize)
}
