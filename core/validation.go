// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package core

import (
	"fmt"
	"math"

	"github.com/google/uuid"
)

// ValidateDocumentID checks that a document identifier is a well-formed UUID.
func ValidateDocumentID(documentID string) error {
	if _, err := uuid.Parse(documentID); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidDocumentID, documentID)
	}
	return nil
}

// ValidateChunkID checks that a chunk identifier was assigned by a store.
func ValidateChunkID(id ID) error {
	if id == 0 {
		return ErrInvalidChunkID
	}
	return nil
}

// FilterDocumentIDs drops malformed document identifiers and duplicates.
// Read paths use it so one bad identifier does not fail a whole lookup.
// Returns the well-formed identifiers in input order and the number dropped.
func FilterDocumentIDs(ids []string) ([]string, int) {
	valid := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	dropped := 0
	for _, id := range ids {
		if ValidateDocumentID(id) != nil {
			dropped++
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		valid = append(valid, id)
	}
	return valid, dropped
}

// Bounds on list lengths in stored records. Decoding rejects longer lists
// before allocating.
const (
	MaxVectorLength = 1 << 16
	MaxJobChunks    = 1 << 18
)

// ValidateVectorLength rejects vector lengths above MaxVectorLength.
func ValidateVectorLength(n int) error {
	if n > MaxVectorLength {
		return fmt.Errorf("%w: %d components", ErrTooLong, n)
	}
	return nil
}

// ValidateJobChunksLength rejects chunk lists above MaxJobChunks.
func ValidateJobChunksLength(n int) error {
	if n > MaxJobChunks {
		return fmt.Errorf("%w: %d chunks", ErrTooLong, n)
	}
	return nil
}

// ValidateVector checks that a vector is non-empty, finite, and, when dim is
// positive, exactly dim components long.
func ValidateVector(vector []float32, dim int) error {
	if len(vector) == 0 {
		return ErrEmptyVector
	}
	if err := ValidateVectorLength(len(vector)); err != nil {
		return err
	}
	if dim > 0 && len(vector) != dim {
		return fmt.Errorf("%w: expected %d, got %d", ErrDimensionMismatch, dim, len(vector))
	}
	for i, v := range vector {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return fmt.Errorf("%w: index %d", ErrNonFiniteComponent, i)
		}
	}
	return nil
}

// ValidateEmbedding validates an Embedding before it is written.
//
// Validation rules:
//   - ChunkID must be assigned
//   - DocumentID must be a UUID
//   - Vector must pass ValidateVector for the store dimension
func ValidateEmbedding(embedding *Embedding, dim int) error {
	if embedding == nil {
		return fmt.Errorf("%w: embedding is nil", ErrInvalidEmbedding)
	}
	if err := ValidateChunkID(embedding.ChunkID); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidEmbedding, err)
	}
	if err := ValidateDocumentID(embedding.DocumentID); err != nil {
		return fmt.Errorf("%w: chunk %d: %w", ErrInvalidEmbedding, embedding.ChunkID, err)
	}
	if err := ValidateVector(embedding.Vector, dim); err != nil {
		return fmt.Errorf("%w: chunk %d: %w", ErrInvalidEmbedding, embedding.ChunkID, err)
	}
	return nil
}

// ValidateChunk validates a Chunk before it is registered.
//
// NOT validated:
//   - Id (0 is valid, the store assigns one)
//   - page range and section (optional metadata)
func ValidateChunk(chunk *Chunk) error {
	if chunk == nil {
		return fmt.Errorf("%w: chunk is nil", ErrInvalidChunk)
	}
	if err := ValidateDocumentID(chunk.DocumentID); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, err)
	}
	if chunk.Index < 0 {
		return fmt.Errorf("%w: negative index %d", ErrInvalidChunk, chunk.Index)
	}
	if chunk.Content == "" {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrEmptyContent)
	}
	return nil
}

// ValidateJobPayload validates a job submission.
// Chunk references must carry assigned IDs that are unique within the payload.
func ValidateJobPayload(payload *JobPayload) error {
	if payload == nil {
		return fmt.Errorf("%w: payload is nil", ErrInvalidJobPayload)
	}
	if err := ValidateDocumentID(payload.DocumentID); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidJobPayload, err)
	}
	if payload.ProgressBase < 0 || payload.ProgressBase > 100 {
		return fmt.Errorf("%w: %w", ErrInvalidJobPayload, ErrInvalidProgress)
	}
	if err := ValidateJobChunksLength(len(payload.Chunks)); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidJobPayload, err)
	}
	seen := make(map[ID]struct{}, len(payload.Chunks))
	for i, ref := range payload.Chunks {
		if err := ValidateChunkID(ref.ChunkID); err != nil {
			return fmt.Errorf("%w: chunk %d: %w", ErrInvalidJobPayload, i, err)
		}
		if _, dup := seen[ref.ChunkID]; dup {
			return fmt.Errorf("%w: duplicate chunk id %d", ErrInvalidJobPayload, ref.ChunkID)
		}
		seen[ref.ChunkID] = struct{}{}
		if ref.Content == "" {
			return fmt.Errorf("%w: chunk %d: %w", ErrInvalidJobPayload, ref.ChunkID, ErrEmptyContent)
		}
	}
	return nil
}
