package reembed

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/poiesic/ragvec/core"
	"github.com/poiesic/ragvec/queue"
	"github.com/poiesic/ragvec/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flakyQueue fails the first failures Enqueue calls and records payloads.
type flakyQueue struct {
	queue.Queue
	mu       sync.Mutex
	failures int
	calls    int
	payloads []*core.JobPayload
}

func (q *flakyQueue) Enqueue(ctx context.Context, payload *core.JobPayload, opts ...queue.EnqueueOption) (*queue.JobHandle, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.calls++
	if q.calls <= q.failures {
		return nil, errors.New("queue unavailable")
	}
	q.payloads = append(q.payloads, payload)
	return &queue.JobHandle{ID: queue.NewJobID(payload.DocumentID, time.Unix(int64(q.calls), 0)), DocumentID: payload.DocumentID, State: core.JobStateQueued}, nil
}

func newBroker(t *testing.T, repos *badger.Repositories) *queue.Broker {
	t.Helper()
	cfg := queue.DefaultConfig()
	cfg.RateLimitMax = 0
	b, err := queue.NewBroker(context.Background(), cfg, repos.Jobs)
	require.NoError(t, err)
	t.Cleanup(func() { b.Close() })
	return b
}

func TestSubmitter_Submit(t *testing.T) {
	repos := setupTestRepos(t)
	ctx := context.Background()
	seed(t, repos, 3, testDocs[:2]...)
	broker := newBroker(t, repos)

	submitter := NewSubmitter(repos.Chunks, broker, 3, time.Millisecond)
	handles, err := submitter.Submit(ctx, testDocs[:2])
	require.NoError(t, err)
	require.Len(t, handles, 2)

	for i, h := range handles {
		assert.Equal(t, testDocs[i], h.DocumentID)
		assert.Equal(t, core.JobStateQueued, h.State)

		job, err := repos.Jobs.GetJob(ctx, h.ID)
		require.NoError(t, err)
		require.Len(t, job.Chunks, 3)
		for idx, ref := range job.Chunks {
			assert.Equal(t, idx, ref.Index)
			assert.NotZero(t, ref.ChunkID)
		}
	}
}

func TestSubmitter_SkipsEmptyDocuments(t *testing.T) {
	repos := setupTestRepos(t)
	seed(t, repos, 1, testDocs[0])
	q := &flakyQueue{}

	submitter := NewSubmitter(repos.Chunks, q, 1, time.Millisecond)
	handles, err := submitter.Submit(context.Background(), []string{testDocs[0], testDocs[1]})
	require.NoError(t, err)
	require.Len(t, handles, 1)
	assert.Equal(t, testDocs[0], handles[0].DocumentID)
	assert.Equal(t, 1, q.calls)
}

func TestSubmitter_Retry(t *testing.T) {
	repos := setupTestRepos(t)
	seed(t, repos, 2, testDocs[0])

	t.Run("succeeds after transient failures", func(t *testing.T) {
		q := &flakyQueue{failures: 2}
		submitter := NewSubmitter(repos.Chunks, q, 3, time.Millisecond)
		handles, err := submitter.Submit(context.Background(), testDocs[:1])
		require.NoError(t, err)
		assert.Len(t, handles, 1)
		assert.Equal(t, 3, q.calls)
	})

	t.Run("gives up after max retries", func(t *testing.T) {
		q := &flakyQueue{failures: 10}
		submitter := NewSubmitter(repos.Chunks, q, 2, time.Millisecond)
		handles, err := submitter.Submit(context.Background(), testDocs[:1])
		require.Error(t, err)
		assert.Contains(t, err.Error(), "after 2 attempts")
		assert.Empty(t, handles)
		assert.Equal(t, 2, q.calls)
	})
}

func TestSubmitter_ContextCancellation(t *testing.T) {
	repos := setupTestRepos(t)
	seed(t, repos, 1, testDocs[0])

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	q := &flakyQueue{failures: 10}
	submitter := NewSubmitter(repos.Chunks, q, 5, time.Second)
	_, err := submitter.Submit(ctx, testDocs[:1])
	assert.ErrorIs(t, err, context.Canceled)
}
