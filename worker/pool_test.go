package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/poiesic/ragvec/ai"
	"github.com/poiesic/ragvec/core"
	"github.com/poiesic/ragvec/queue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testQueueConfig() queue.Config {
	cfg := queue.DefaultConfig()
	cfg.RateLimitMax = 0
	cfg.BackoffBase = time.Millisecond
	cfg.PollInterval = 10 * time.Millisecond
	return cfg
}

// startPool runs a pool in the background and stops it at test cleanup.
func startPool(t *testing.T, q queue.Queue, p *Processor, concurrency int) *Pool {
	t.Helper()
	pool, err := NewPool(q, p, concurrency)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- pool.Run(ctx) }()

	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Error("pool did not stop")
		}
		pool.Release()
	})
	return pool
}

func payloadFor(job *core.EmbeddingJob) *core.JobPayload {
	return &core.JobPayload{DocumentID: job.DocumentID, Chunks: job.Chunks, ProgressBase: job.ProgressBase}
}

func TestPool_ProcessesJobs(t *testing.T) {
	f := newFixture(t, testConfig())
	ctx := context.Background()

	b, err := queue.NewBroker(ctx, testQueueConfig(), f.repos.Jobs)
	require.NoError(t, err)
	defer b.Close()
	startPool(t, b, f.processor, 2)

	ha, err := b.Enqueue(ctx, payloadFor(f.registerJob(t, docA, "a0", "a1", "a2")))
	require.NoError(t, err)
	hb, err := b.Enqueue(ctx, payloadFor(f.registerJob(t, docB, "b0")))
	require.NoError(t, err)

	for _, h := range []*queue.JobHandle{ha, hb} {
		require.Eventually(t, func() bool {
			job, err := f.tracker.Job(ctx, h.ID)
			return err == nil && job.State == core.JobStateCompleted
		}, 5*time.Second, 10*time.Millisecond)
	}

	s, err := f.tracker.Status(ctx, docA)
	require.NoError(t, err)
	assert.Equal(t, core.DocumentStateProcessed, s.State)

	coverage, err := f.repos.Vectors.CoverageCheck(ctx, docA)
	require.NoError(t, err)
	assert.Equal(t, 3, coverage.Embeddings)
}

func TestPool_FailingEmbedderExhaustsAttempts(t *testing.T) {
	f := newFixture(t, testConfig())
	ctx := context.Background()
	f.embedder.WithEmbedBatchFunc(func(ctx context.Context, texts []string) (*ai.BatchResult, error) {
		return nil, errors.New("embedding service unavailable")
	})

	cfg := testQueueConfig()
	cfg.RetryAttempts = 3
	b, err := queue.NewBroker(ctx, cfg, f.repos.Jobs)
	require.NoError(t, err)
	defer b.Close()
	startPool(t, b, f.processor, 1)

	h, err := b.Enqueue(ctx, payloadFor(f.registerJob(t, docA, "one")))
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		job, err := f.tracker.Job(ctx, h.ID)
		return err == nil && job.State == core.JobStateFailed
	}, 5*time.Second, 10*time.Millisecond)

	job, err := f.tracker.Job(ctx, h.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, job.Attempts)
	assert.Contains(t, job.LastError, "embedding service unavailable")
	assert.Equal(t, 3, f.embedder.CallCount())

	s, err := f.tracker.Status(ctx, docA)
	require.NoError(t, err)
	assert.Equal(t, core.DocumentStateFailed, s.State)
}

func TestPool_SubmitFailureMarksDocumentFailed(t *testing.T) {
	f := newFixture(t, testConfig())
	ctx := context.Background()

	cfg := testQueueConfig()
	cfg.RetryAttempts = 2
	b, err := queue.NewBroker(ctx, cfg, f.repos.Jobs)
	require.NoError(t, err)
	defer b.Close()

	h, err := b.Enqueue(ctx, payloadFor(f.registerJob(t, docA, "one")))
	require.NoError(t, err)

	// A released goroutine pool rejects every submission.
	pool, err := NewPool(b, f.processor, 1)
	require.NoError(t, err)
	pool.Release()

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() { done <- pool.Run(runCtx) }()

	require.Eventually(t, func() bool {
		job, err := f.tracker.Job(ctx, h.ID)
		return err == nil && job.State == core.JobStateFailed
	}, 5*time.Second, 10*time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("pool did not stop")
	}

	job, err := f.tracker.Job(ctx, h.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, job.Attempts)
	assert.Contains(t, job.LastError, "starting job")
	assert.Zero(t, f.embedder.CallCount())

	s, err := f.tracker.Status(ctx, docA)
	require.NoError(t, err)
	assert.Equal(t, core.DocumentStateFailed, s.State)
}

func TestPool_DisabledQueueDeliversNothing(t *testing.T) {
	f := newFixture(t, testConfig())
	ctx := context.Background()

	q := queue.NewDisabled()
	startPool(t, q, f.processor, 2)

	h, err := q.Enqueue(ctx, payloadFor(f.registerJob(t, docA, "one")))
	require.NoError(t, err)
	assert.True(t, h.Stub)

	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, f.embedder.CallCount())
	_, err = f.tracker.Status(ctx, docA)
	assert.Error(t, err)
}

func TestPool_StopsWhenQueueCloses(t *testing.T) {
	f := newFixture(t, testConfig())
	b, err := queue.NewBroker(context.Background(), testQueueConfig(), f.repos.Jobs)
	require.NoError(t, err)

	pool, err := NewPool(b, f.processor, 1)
	require.NoError(t, err)
	defer pool.Release()

	done := make(chan error, 1)
	go func() { done <- pool.Run(context.Background()) }()

	require.NoError(t, b.Close())
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("pool did not stop after queue closed")
	}
}

func TestNewPool_Validation(t *testing.T) {
	f := newFixture(t, testConfig())

	_, err := NewPool(nil, f.processor, 1)
	assert.ErrorIs(t, err, ErrQueueRequired)
	_, err = NewPool(queue.NewDisabled(), nil, 1)
	assert.ErrorIs(t, err, ErrProcessorRequired)
	_, err = NewPool(queue.NewDisabled(), f.processor, 0)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
