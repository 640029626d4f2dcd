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
	"fmt"
	"time"

	"github.com/poiesic/ragvec/core"
	"github.com/poiesic/ragvec/queue"
	"github.com/poiesic/ragvec/storage"
)

// Submitter turns stored documents into embedding jobs.
type Submitter struct {
	chunks         storage.ChunkRepository
	queue          queue.Queue
	maxRetries     int
	retryBaseDelay time.Duration
}

// NewSubmitter creates a new submitter.
// maxRetries: maximum number of enqueue attempts per document
// retryBaseDelay: base delay for exponential backoff between attempts
func NewSubmitter(chunks storage.ChunkRepository, q queue.Queue, maxRetries int, retryBaseDelay time.Duration) *Submitter {
	return &Submitter{
		chunks:         chunks,
		queue:          q,
		maxRetries:     maxRetries,
		retryBaseDelay: retryBaseDelay,
	}
}

// Submit enqueues one job per document carrying every registered chunk.
// Documents without chunks are skipped and not returned.
func (s *Submitter) Submit(ctx context.Context, documents []string) ([]*queue.JobHandle, error) {
	handles := make([]*queue.JobHandle, 0, len(documents))
	for _, documentID := range documents {
		payload, err := s.payload(ctx, documentID)
		if err != nil {
			return handles, err
		}
		if payload == nil {
			continue
		}

		var handle *queue.JobHandle
		err = queue.RetryWithBackoff(ctx, func() error {
			var err error
			handle, err = s.queue.Enqueue(ctx, payload)
			return err
		}, s.maxRetries, s.retryBaseDelay)
		if err != nil {
			return handles, fmt.Errorf("failed to enqueue document %s after %d attempts: %w", documentID, s.maxRetries, err)
		}
		handles = append(handles, handle)
	}
	return handles, nil
}

func (s *Submitter) payload(ctx context.Context, documentID string) (*core.JobPayload, error) {
	chunks, err := s.chunks.GetDocumentChunks(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load chunks for %s: %w", documentID, err)
	}
	if len(chunks) == 0 {
		return nil, nil
	}
	payload := &core.JobPayload{
		DocumentID: documentID,
		Chunks:     make([]core.ChunkRef, len(chunks)),
	}
	for i, chunk := range chunks {
		payload.Chunks[i] = chunk.Ref()
	}
	return payload, nil
}
