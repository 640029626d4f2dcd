package search

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/poiesic/ragvec/ai"
	"github.com/poiesic/ragvec/ai/mock"
	"github.com/poiesic/ragvec/core"
	"github.com/poiesic/ragvec/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testDocs = []string{
	"0a6a3c62-4d8e-4f43-9d7e-53a8c7f1b201",
	"1b7b4d73-5e9f-4054-8e8f-64b9d802c312",
	"2c8c5e84-6fa0-4165-9f90-75cae913d423",
}

const otherDoc = "3d9d6f95-70b1-4276-8a01-86dbfa24e534"

func newRepos(t *testing.T) *badger.Repositories {
	t.Helper()
	repos, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() { repos.Close() })
	return repos
}

// store registers one chunk per content string under documentID and embeds
// it with the mock vector function.
func store(t *testing.T, repos *badger.Repositories, documentID string, contents ...string) []*core.Chunk {
	t.Helper()
	ctx := context.Background()
	chunks := make([]*core.Chunk, len(contents))
	for i, content := range contents {
		chunks[i] = &core.Chunk{DocumentID: documentID, Index: i, Content: content}
	}
	added, err := repos.Chunks.AddChunks(ctx, chunks...)
	require.NoError(t, err)
	for _, chunk := range added {
		require.NoError(t, repos.Vectors.UpsertEmbedding(ctx, chunk.Id, documentID, mock.Vector(chunk.Content, 8)))
	}
	return added
}

func TestNewSearcher(t *testing.T) {
	repos := newRepos(t)
	embedder := mock.NewMockEmbedder()

	t.Run("valid configuration", func(t *testing.T) {
		searcher, err := NewSearcher(repos.Vectors, embedder)
		require.NoError(t, err)
		assert.NotNil(t, searcher)
	})

	t.Run("with nil logger falls back to default", func(t *testing.T) {
		searcher, err := NewSearcher(repos.Vectors, embedder, WithLogger(nil))
		require.NoError(t, err)
		assert.NotNil(t, searcher)
	})

	t.Run("with custom logger", func(t *testing.T) {
		searcher, err := NewSearcher(repos.Vectors, embedder, WithLogger(slog.Default()))
		require.NoError(t, err)
		assert.NotNil(t, searcher)
	})

	t.Run("nil vector repository", func(t *testing.T) {
		_, err := NewSearcher(nil, embedder)
		assert.Equal(t, ErrVectorRepositoryRequired, err)
	})

	t.Run("nil embedder", func(t *testing.T) {
		_, err := NewSearcher(repos.Vectors, nil)
		assert.Equal(t, ErrEmbedderRequired, err)
	})
}

func TestFindSimilar_EmptyStore(t *testing.T) {
	repos := newRepos(t)
	searcher, err := NewSearcher(repos.Vectors, mock.NewMockEmbedder())
	require.NoError(t, err)

	results, err := searcher.FindSimilar(context.Background(), "anything", 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestFindSimilar_EmptyQuery(t *testing.T) {
	repos := newRepos(t)
	embedder := mock.NewMockEmbedder()
	searcher, err := NewSearcher(repos.Vectors, embedder)
	require.NoError(t, err)

	_, err = searcher.FindSimilar(context.Background(), "", 10)
	assert.ErrorIs(t, err, ErrEmptyQuery)
	assert.Zero(t, embedder.CallCount())
}

func TestFindSimilar_ExactMatchFirst(t *testing.T) {
	repos := newRepos(t)
	ctx := context.Background()
	chunks := store(t, repos, testDocs[0], "alpha beta", "gamma delta", "epsilon zeta")

	searcher, err := NewSearcher(repos.Vectors, mock.NewMockEmbedder())
	require.NoError(t, err)

	results, err := searcher.FindSimilar(ctx, "gamma delta", 3)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, chunks[1].Id, results[0].ChunkID)
	assert.InDelta(t, 0, results[0].Distance, 1e-5)
	assert.InDelta(t, 1, results[0].Similarity, 1e-5)
	for i := 1; i < len(results); i++ {
		assert.LessOrEqual(t, results[i-1].Distance, results[i].Distance)
	}
}

func TestFindSimilar_ScopedLimitAboveMatches(t *testing.T) {
	repos := newRepos(t)
	ctx := context.Background()
	for i, doc := range testDocs {
		store(t, repos, doc, []string{"red apples", "green pears", "yellow bananas"}[i])
	}
	store(t, repos, otherDoc, "red apples", "blue berries")

	searcher, err := NewSearcher(repos.Vectors, mock.NewMockEmbedder())
	require.NoError(t, err)

	results, err := searcher.FindSimilar(ctx, "red apples", 5, testDocs...)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(results), 3)
	require.NotEmpty(t, results)

	allowed := map[string]bool{}
	for _, doc := range testDocs {
		allowed[doc] = true
	}
	for i, r := range results {
		assert.True(t, allowed[r.DocumentID], "result outside filter: %s", r.DocumentID)
		if i > 0 {
			assert.LessOrEqual(t, results[i-1].Distance, r.Distance)
		}
	}
	assert.Equal(t, testDocs[0], results[0].DocumentID)
}

func TestFindSimilar_MalformedFilterOnly(t *testing.T) {
	repos := newRepos(t)
	store(t, repos, testDocs[0], "some text")

	searcher, err := NewSearcher(repos.Vectors, mock.NewMockEmbedder())
	require.NoError(t, err)

	results, err := searcher.FindSimilar(context.Background(), "some text", 5, "not-a-uuid")
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestFindSimilar_InvalidLimit(t *testing.T) {
	repos := newRepos(t)
	store(t, repos, testDocs[0], "some text")

	searcher, err := NewSearcher(repos.Vectors, mock.NewMockEmbedder())
	require.NoError(t, err)

	_, err = searcher.FindSimilar(context.Background(), "some text", 0)
	assert.Error(t, err)
}

func TestFindSimilar_EmbedderError(t *testing.T) {
	repos := newRepos(t)
	boom := errors.New("model offline")
	embedder := mock.NewMockEmbedder().WithEmbedBatchFunc(func(ctx context.Context, texts []string) (*ai.BatchResult, error) {
		return nil, boom
	})

	searcher, err := NewSearcher(repos.Vectors, embedder)
	require.NoError(t, err)

	_, err = searcher.FindSimilar(context.Background(), "query", 5)
	assert.ErrorIs(t, err, boom)
}

func TestFindSimilarVector(t *testing.T) {
	repos := newRepos(t)
	chunks := store(t, repos, testDocs[1], "one", "two")

	searcher, err := NewSearcher(repos.Vectors, mock.NewMockEmbedder())
	require.NoError(t, err)

	results, err := searcher.FindSimilarVector(context.Background(), mock.Vector("two", 8), 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, chunks[1].Id, results[0].ChunkID)
}

func TestFindSimilarHits(t *testing.T) {
	repos := newRepos(t)
	ctx := context.Background()
	store(t, repos, testDocs[2], "first chunk", "second chunk")

	t.Run("requires chunk repository", func(t *testing.T) {
		searcher, err := NewSearcher(repos.Vectors, mock.NewMockEmbedder())
		require.NoError(t, err)
		_, err = searcher.FindSimilarHits(ctx, "first chunk", 2)
		assert.ErrorIs(t, err, ErrChunkRepositoryRequired)
	})

	t.Run("attaches chunk content", func(t *testing.T) {
		searcher, err := NewSearcher(repos.Vectors, mock.NewMockEmbedder(), WithChunks(repos.Chunks))
		require.NoError(t, err)
		hits, err := searcher.FindSimilarHits(ctx, "second chunk", 2)
		require.NoError(t, err)
		require.Len(t, hits, 2)
		require.NotNil(t, hits[0].Chunk)
		assert.Equal(t, "second chunk", hits[0].Chunk.Content)
		assert.Equal(t, testDocs[2], hits[0].DocumentID)
	})
}
