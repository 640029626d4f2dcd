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

import "errors"

// Domain validation errors
var (
	// ErrInvalidChunk indicates a Chunk failed validation.
	ErrInvalidChunk = errors.New("invalid chunk")

	// ErrInvalidEmbedding indicates an Embedding failed validation.
	ErrInvalidEmbedding = errors.New("invalid embedding")

	// ErrInvalidJobPayload indicates a job submission failed validation.
	ErrInvalidJobPayload = errors.New("invalid job payload")

	// ErrInvalidDocumentID indicates a document identifier is not a well-formed UUID.
	ErrInvalidDocumentID = errors.New("invalid document id")

	// ErrInvalidChunkID indicates a chunk identifier is zero.
	ErrInvalidChunkID = errors.New("invalid chunk id")

	// ErrEmptyContent indicates the chunk content is empty.
	ErrEmptyContent = errors.New("content cannot be empty")

	// ErrEmptyVector indicates an embedding has no components.
	ErrEmptyVector = errors.New("vector cannot be empty")

	// ErrDimensionMismatch indicates a vector length differs from the store dimension.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	// ErrNonFiniteComponent indicates a vector holds NaN or an infinity.
	ErrNonFiniteComponent = errors.New("vector component is not finite")

	// ErrInvalidProgress indicates a progress value outside 0-100.
	ErrInvalidProgress = errors.New("progress must be between 0 and 100")

	// ErrTooLong indicates a vector or chunk list exceeds its stored bound.
	ErrTooLong = errors.New("length exceeds limit")
)
