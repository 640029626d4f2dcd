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

package reembed

import (
	"context"
	"slices"

	"github.com/poiesic/ragvec/storage"
)

const (
	// DefaultBatchSize is the default number of documents handed to fn at once
	DefaultBatchSize = 100
)

// DocumentIterator walks registered documents in batches.
type DocumentIterator struct {
	chunks    storage.ChunkRepository
	batchSize int
}

// NewDocumentIterator creates a new document iterator.
// A batchSize <= 0 uses DefaultBatchSize.
func NewDocumentIterator(chunks storage.ChunkRepository, batchSize int) *DocumentIterator {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	return &DocumentIterator{
		chunks:    chunks,
		batchSize: batchSize,
	}
}

// Documents returns the document IDs the iterator will visit.
// A non-empty only restricts the walk to those IDs, in the store's order.
func (it *DocumentIterator) Documents(ctx context.Context, only ...string) ([]string, error) {
	documents, err := it.chunks.ListDocuments(ctx)
	if err != nil {
		return nil, err
	}
	if len(only) == 0 {
		return documents, nil
	}
	return slices.DeleteFunc(documents, func(id string) bool {
		return !slices.Contains(only, id)
	}), nil
}

// ForEach calls fn for each batch of document IDs.
// Iteration stops on the first error from fn.
// Context cancellation is checked between batches.
func (it *DocumentIterator) ForEach(ctx context.Context, documents []string, fn func([]string) error) error {
	for batch := range slices.Chunk(documents, it.batchSize) {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(batch); err != nil {
			return err
		}
	}
	return ctx.Err()
}
