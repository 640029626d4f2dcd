package badger

import (
	"context"
	"errors"
	"testing"

	"github.com/poiesic/ragvec/core"
	"github.com/poiesic/ragvec/storage"
)

const (
	docA = "3f1c2e1a-7d4b-4b8e-9a65-0c9f5d7e2b11"
	docB = "9b2d4f6a-1c3e-4a5b-8d7f-2e4c6a8b0d13"
	docC = "c0ffee00-1234-4abc-9def-001122334455"
)

func newTestRepos(t *testing.T) *Repositories {
	t.Helper()
	repos, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	t.Cleanup(func() { repos.Close() })
	return repos
}

func TestChunkBasics(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()

	added, err := repos.Chunks.AddChunks(ctx,
		&core.Chunk{DocumentID: docA, Index: 1, Content: "second"},
		&core.Chunk{DocumentID: docA, Index: 0, Content: "first"},
	)
	if err != nil {
		t.Fatalf("Failed to add chunks: %v", err)
	}
	if len(added) != 2 {
		t.Fatalf("Expected 2 chunks, got %d", len(added))
	}
	for _, c := range added {
		if c.Id == 0 {
			t.Fatal("Expected non-zero ID")
		}
		if c.InsertedAt.IsZero() {
			t.Fatal("Expected InsertedAt to be set")
		}
	}
	if added[0].Id == added[1].Id {
		t.Fatal("Expected distinct IDs")
	}

	got, err := repos.Chunks.GetChunk(ctx, added[1].Id)
	if err != nil {
		t.Fatalf("Failed to get chunk: %v", err)
	}
	if got.Content != "first" {
		t.Fatalf("Expected 'first', got '%s'", got.Content)
	}

	chunks, err := repos.Chunks.GetDocumentChunks(ctx, docA)
	if err != nil {
		t.Fatalf("Failed to get document chunks: %v", err)
	}
	if len(chunks) != 2 || chunks[0].Index != 0 || chunks[1].Index != 1 {
		t.Fatalf("Expected chunks ordered by index, got %+v", chunks)
	}

	count, err := repos.Chunks.CountChunks(ctx, docA)
	if err != nil {
		t.Fatalf("Failed to count chunks: %v", err)
	}
	if count != 2 {
		t.Fatalf("Expected 2 chunks, got %d", count)
	}
}

func TestChunkNotFound(t *testing.T) {
	repos := newTestRepos(t)

	_, err := repos.Chunks.GetChunk(context.Background(), 999)
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
}

func TestChunkDuplicateIndex(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()

	if _, err := repos.Chunks.AddChunks(ctx, &core.Chunk{DocumentID: docA, Index: 0, Content: "a"}); err != nil {
		t.Fatalf("Failed to add chunk: %v", err)
	}

	_, err := repos.Chunks.AddChunks(ctx, &core.Chunk{DocumentID: docA, Index: 0, Content: "again"})
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Fatalf("Expected ErrDuplicateKey, got %v", err)
	}

	_, err = repos.Chunks.AddChunks(ctx,
		&core.Chunk{DocumentID: docB, Index: 3, Content: "x"},
		&core.Chunk{DocumentID: docB, Index: 3, Content: "y"},
	)
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Fatalf("Expected ErrDuplicateKey within batch, got %v", err)
	}

	// The failed batch left nothing behind
	count, _ := repos.Chunks.CountChunks(ctx, docB)
	if count != 0 {
		t.Fatalf("Expected 0 chunks for docB, got %d", count)
	}
}

func TestChunkValidation(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		chunk *core.Chunk
	}{
		{"bad document id", &core.Chunk{DocumentID: "not-a-uuid", Content: "x"}},
		{"negative index", &core.Chunk{DocumentID: docA, Index: -1, Content: "x"}},
		{"empty content", &core.Chunk{DocumentID: docA}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := repos.Chunks.AddChunks(ctx, tt.chunk)
			if !errors.Is(err, core.ErrInvalidChunk) {
				t.Fatalf("Expected ErrInvalidChunk, got %v", err)
			}
		})
	}
}

func TestListDocuments(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()

	_, err := repos.Chunks.AddChunks(ctx,
		&core.Chunk{DocumentID: docB, Index: 0, Content: "b0"},
		&core.Chunk{DocumentID: docA, Index: 0, Content: "a0"},
		&core.Chunk{DocumentID: docA, Index: 1, Content: "a1"},
	)
	if err != nil {
		t.Fatalf("Failed to add chunks: %v", err)
	}

	docs, err := repos.Chunks.ListDocuments(ctx)
	if err != nil {
		t.Fatalf("Failed to list documents: %v", err)
	}
	if len(docs) != 2 || docs[0] != docA || docs[1] != docB {
		t.Fatalf("Expected [%s %s], got %v", docA, docB, docs)
	}
}

func TestDeleteDocument(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()

	added, err := repos.Chunks.AddChunks(ctx,
		&core.Chunk{DocumentID: docA, Index: 0, Content: "a0"},
		&core.Chunk{DocumentID: docB, Index: 0, Content: "b0"},
	)
	if err != nil {
		t.Fatalf("Failed to add chunks: %v", err)
	}
	for _, c := range added {
		if err := repos.Vectors.UpsertEmbedding(ctx, c.Id, c.DocumentID, []float32{1, 0}); err != nil {
			t.Fatalf("Failed to upsert: %v", err)
		}
	}
	if _, err := repos.Status.UpdateStatus(ctx, docA, core.NewStatusUpdate().WithState(core.DocumentStateProcessed)); err != nil {
		t.Fatalf("Failed to update status: %v", err)
	}

	if err := repos.Chunks.DeleteDocument(ctx, docA); err != nil {
		t.Fatalf("Failed to delete document: %v", err)
	}

	if _, err := repos.Chunks.GetChunk(ctx, added[0].Id); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected chunk to be gone, got %v", err)
	}
	embs, _ := repos.Vectors.GetEmbeddings(ctx, added[0].Id, added[1].Id)
	if len(embs) != 1 || embs[0].DocumentID != docB {
		t.Fatalf("Expected only docB embedding to remain, got %d", len(embs))
	}
	if _, err := repos.Status.GetStatus(ctx, docA); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected status to be gone, got %v", err)
	}
}
