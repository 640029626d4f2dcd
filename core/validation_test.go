package core

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validDoc = "3f1c2e1a-7d4b-4b8e-9a65-0c9f5d7e2b11"

func TestValidateEmbedding(t *testing.T) {
	tests := []struct {
		name    string
		emb     *Embedding
		dim     int
		wantErr error
	}{
		{
			name:    "valid embedding",
			emb:     &Embedding{ChunkID: 1, DocumentID: validDoc, Vector: []float32{0.1, 0.2, 0.3}},
			dim:     3,
			wantErr: nil,
		},
		{
			name:    "dimension not pinned",
			emb:     &Embedding{ChunkID: 1, DocumentID: validDoc, Vector: []float32{0.1}},
			dim:     0,
			wantErr: nil,
		},
		{
			name:    "nil embedding",
			emb:     nil,
			wantErr: ErrInvalidEmbedding,
		},
		{
			name:    "zero chunk id",
			emb:     &Embedding{ChunkID: 0, DocumentID: validDoc, Vector: []float32{0.1}},
			wantErr: ErrInvalidChunkID,
		},
		{
			name:    "malformed document id",
			emb:     &Embedding{ChunkID: 1, DocumentID: "not-a-uuid", Vector: []float32{0.1}},
			wantErr: ErrInvalidDocumentID,
		},
		{
			name:    "empty vector",
			emb:     &Embedding{ChunkID: 1, DocumentID: validDoc},
			wantErr: ErrEmptyVector,
		},
		{
			name:    "wrong dimension",
			emb:     &Embedding{ChunkID: 1, DocumentID: validDoc, Vector: []float32{0.1, 0.2}},
			dim:     3,
			wantErr: ErrDimensionMismatch,
		},
		{
			name:    "NaN component",
			emb:     &Embedding{ChunkID: 1, DocumentID: validDoc, Vector: []float32{0.1, float32(math.NaN())}},
			wantErr: ErrNonFiniteComponent,
		},
		{
			name:    "infinite component",
			emb:     &Embedding{ChunkID: 1, DocumentID: validDoc, Vector: []float32{float32(math.Inf(-1))}},
			wantErr: ErrNonFiniteComponent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEmbedding(tt.emb, tt.dim)

			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateEmbedding() error = %v, want nil", err)
				}
				return
			}

			if err == nil {
				t.Errorf("ValidateEmbedding() error = nil, want %v", tt.wantErr)
				return
			}

			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateEmbedding() error = %v, want %v", err, tt.wantErr)
			}
			if !errors.Is(err, ErrInvalidEmbedding) {
				t.Errorf("ValidateEmbedding() error = %v, want wrapped ErrInvalidEmbedding", err)
			}
		})
	}
}

func TestValidateChunk(t *testing.T) {
	require.NoError(t, ValidateChunk(&Chunk{DocumentID: validDoc, Index: 0, Content: "hello"}))
	assert.ErrorIs(t, ValidateChunk(nil), ErrInvalidChunk)
	assert.ErrorIs(t, ValidateChunk(&Chunk{DocumentID: "x", Content: "hello"}), ErrInvalidDocumentID)
	assert.ErrorIs(t, ValidateChunk(&Chunk{DocumentID: validDoc, Index: -1, Content: "hello"}), ErrInvalidChunk)
	assert.ErrorIs(t, ValidateChunk(&Chunk{DocumentID: validDoc}), ErrEmptyContent)
}

func TestValidateJobPayload(t *testing.T) {
	valid := &JobPayload{
		DocumentID:   validDoc,
		ProgressBase: 30,
		Chunks: []ChunkRef{
			{ChunkID: 1, Index: 0, Content: "a"},
			{ChunkID: 2, Index: 1, Content: "b"},
		},
	}
	require.NoError(t, ValidateJobPayload(valid))

	assert.ErrorIs(t, ValidateJobPayload(nil), ErrInvalidJobPayload)
	assert.ErrorIs(t, ValidateJobPayload(&JobPayload{DocumentID: "bad"}), ErrInvalidDocumentID)
	assert.ErrorIs(t, ValidateJobPayload(&JobPayload{DocumentID: validDoc, ProgressBase: 101}), ErrInvalidProgress)

	dup := &JobPayload{DocumentID: validDoc, Chunks: []ChunkRef{
		{ChunkID: 1, Content: "a"},
		{ChunkID: 1, Index: 1, Content: "b"},
	}}
	assert.ErrorIs(t, ValidateJobPayload(dup), ErrInvalidJobPayload)

	unassigned := &JobPayload{DocumentID: validDoc, Chunks: []ChunkRef{{Content: "a"}}}
	assert.ErrorIs(t, ValidateJobPayload(unassigned), ErrInvalidChunkID)

	empty := &JobPayload{DocumentID: validDoc, Chunks: []ChunkRef{{ChunkID: 1}}}
	assert.ErrorIs(t, ValidateJobPayload(empty), ErrEmptyContent)
}

func TestFilterDocumentIDs(t *testing.T) {
	other := "9b2f7c44-1e0d-4f3a-8c7b-5a6e4d3c2b1a"
	valid, dropped := FilterDocumentIDs([]string{validDoc, "bogus", other, validDoc, ""})

	assert.Equal(t, []string{validDoc, other}, valid)
	assert.Equal(t, 2, dropped)
}

func TestRecordCodecs(t *testing.T) {
	job := EmbeddingJob{
		Id:         "job-1",
		DocumentID: validDoc,
		Chunks: []ChunkRef{
			{ChunkID: 7, Index: 0, Content: "alpha", TokenCount: 2},
			{ChunkID: 9, Index: 1, Content: "beta", TokenCount: 3},
		},
		ProgressBase: 25,
		Attempts:     1,
		MaxAttempts:  3,
		State:        JobStateQueued,
	}
	buf := make([]byte, EmbeddingJobMUS.Size(job))
	EmbeddingJobMUS.Marshal(job, buf)
	decoded, n, err := EmbeddingJobMUS.Unmarshal(buf)
	require.NoError(t, err)
	assert.Equal(t, len(buf), n)
	assert.Equal(t, job, decoded)

	emb := Embedding{ChunkID: 3, DocumentID: validDoc, Vector: []float32{0.5, -1.25, 3}}
	buf = make([]byte, EmbeddingMUS.Size(emb))
	EmbeddingMUS.Marshal(emb, buf)
	decodedEmb, _, err := EmbeddingMUS.Unmarshal(buf)
	require.NoError(t, err)
	assert.Equal(t, emb, decodedEmb)

	_, _, err = EmbeddingMUS.Unmarshal(buf[:len(buf)-2])
	assert.Error(t, err, "truncated data must not decode")
}

func TestRecordCodecs_TimesDecodeAsUTC(t *testing.T) {
	enqueued := time.Date(2025, 3, 14, 9, 26, 53, 589793000, time.UTC)
	job := EmbeddingJob{
		Id:            "job-2",
		DocumentID:    validDoc,
		Chunks:        []ChunkRef{{ChunkID: 1, Content: "alpha"}},
		MaxAttempts:   3,
		BackoffBase:   1500 * time.Millisecond,
		State:         JobStateFailed,
		LastError:     "boom",
		EnqueuedAt:    enqueued,
		NextAttemptAt: enqueued.Add(time.Minute),
	}
	buf := make([]byte, EmbeddingJobMUS.Size(job))
	EmbeddingJobMUS.Marshal(job, buf)

	decoded, _, err := EmbeddingJobMUS.Unmarshal(buf)
	require.NoError(t, err)
	assert.Equal(t, job, decoded)
	assert.Equal(t, time.UTC, decoded.EnqueuedAt.Location())
	assert.True(t, decoded.UpdatedAt.IsZero())

	// Skip walks exactly one record, so records can be laid end to end.
	n, err := EmbeddingJobMUS.Skip(buf)
	require.NoError(t, err)
	assert.Equal(t, len(buf), n)
}

func TestRecordCodecs_RejectOversizedLists(t *testing.T) {
	// An embedding header claiming more components than any stored vector
	// may hold must fail before the vector is allocated.
	buf := make([]byte, 64)
	n := IDMUS.Marshal(5, buf)
	n += ord.String.Marshal(validDoc, buf[n:])
	n += varint.PositiveInt.Marshal(MaxVectorLength+1, buf[n:])

	_, _, err := EmbeddingMUS.Unmarshal(buf[:n])
	assert.ErrorIs(t, err, ErrTooLong)

	buf = make([]byte, 64)
	n = ord.String.Marshal("job-3", buf)
	n += ord.String.Marshal(validDoc, buf[n:])
	n += varint.PositiveInt.Marshal(MaxJobChunks+1, buf[n:])

	_, _, err = EmbeddingJobMUS.Unmarshal(buf[:n])
	assert.ErrorIs(t, err, ErrTooLong)

	assert.ErrorIs(t, ValidateVector(make([]float32, MaxVectorLength+1), 0), ErrTooLong)
}
