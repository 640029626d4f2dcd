package badger

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/ragvec/core"
	"github.com/poiesic/ragvec/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheRepository(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()

	hash := core.ContentHash("hello world")

	entry, err := repos.Cache.GetCacheEntry(ctx, "model-a", hash)
	require.NoError(t, err)
	assert.Nil(t, entry)

	require.NoError(t, repos.Cache.PutCacheEntry(ctx, &core.CacheEntry{
		Hash:   hash,
		Model:  "model-a",
		Vector: []float32{0.5, 0.25},
	}))

	entry, err = repos.Cache.GetCacheEntry(ctx, "model-a", hash)
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, []float32{0.5, 0.25}, entry.Vector)
	assert.False(t, entry.InsertedAt.IsZero())

	// Another model never sees the entry
	entry, err = repos.Cache.GetCacheEntry(ctx, "model-b", hash)
	require.NoError(t, err)
	assert.Nil(t, entry)

	err = repos.Cache.PutCacheEntry(ctx, &core.CacheEntry{Hash: hash, Vector: []float32{1}})
	assert.ErrorIs(t, err, storage.ErrInvalidQuery)
}

func TestJobRepository(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()
	now := time.Now().UTC()

	older := &core.EmbeddingJob{Id: "job-1", DocumentID: docA, State: core.JobStateCompleted, EnqueuedAt: now.Add(-time.Minute)}
	active := &core.EmbeddingJob{Id: "job-2", DocumentID: docA, State: core.JobStateQueued, EnqueuedAt: now}
	other := &core.EmbeddingJob{Id: "job-3", DocumentID: docB, State: core.JobStateProcessing, EnqueuedAt: now.Add(-time.Second)}
	for _, job := range []*core.EmbeddingJob{active, older, other} {
		require.NoError(t, repos.Jobs.SaveJob(ctx, job))
	}

	got, err := repos.Jobs.GetJob(ctx, "job-2")
	require.NoError(t, err)
	assert.Equal(t, core.JobStateQueued, got.State)

	_, err = repos.Jobs.GetJob(ctx, "missing")
	assert.True(t, errors.Is(err, storage.ErrNotFound))

	all, err := repos.Jobs.ListJobs(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"job-1", "job-3", "job-2"}, []string{all[0].Id, all[1].Id, all[2].Id})

	pending, err := repos.Jobs.ListJobs(ctx, core.JobStateQueued, core.JobStateProcessing)
	require.NoError(t, err)
	assert.Len(t, pending, 2)

	found, err := repos.Jobs.FindActiveJob(ctx, docA)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "job-2", found.Id)

	active.State = core.JobStateFailed
	require.NoError(t, repos.Jobs.SaveJob(ctx, active))
	found, err = repos.Jobs.FindActiveJob(ctx, docA)
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestJobRepository_NextQueuedJob(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()
	now := time.Now().UTC()

	next, err := repos.Jobs.NextQueuedJob(ctx)
	require.NoError(t, err)
	assert.Nil(t, next)

	for i := range 50 {
		require.NoError(t, repos.Jobs.SaveJob(ctx, &core.EmbeddingJob{
			Id: fmt.Sprintf("done-%02d", i), DocumentID: docA, State: core.JobStateCompleted,
			EnqueuedAt: now.Add(-time.Hour), NextAttemptAt: now.Add(-time.Hour),
		}))
	}
	later := &core.EmbeddingJob{Id: "later", DocumentID: docA, State: core.JobStateQueued, EnqueuedAt: now.Add(-time.Minute), NextAttemptAt: now.Add(time.Minute)}
	sooner := &core.EmbeddingJob{Id: "sooner", DocumentID: docB, State: core.JobStateQueued, EnqueuedAt: now, NextAttemptAt: now}
	require.NoError(t, repos.Jobs.SaveJob(ctx, later))
	require.NoError(t, repos.Jobs.SaveJob(ctx, sooner))

	next, err = repos.Jobs.NextQueuedJob(ctx)
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, "sooner", next.Id)

	// Only queued jobs are indexed
	countDue := func() int {
		count := 0
		require.NoError(t, repos.Backend.WithTx(func(tx *badger.Txn) error {
			count = countPrefix(tx, []byte(jobDuePrefix))
			return nil
		}, false))
		return count
	}
	assert.Equal(t, 2, countDue())

	// Leaving the queued state drops the entry
	sooner.State = core.JobStateProcessing
	require.NoError(t, repos.Jobs.SaveJob(ctx, sooner))
	assert.Equal(t, 1, countDue())

	next, err = repos.Jobs.NextQueuedJob(ctx)
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, "later", next.Id)

	// Rescheduling moves the entry rather than duplicating it
	later.NextAttemptAt = now.Add(time.Hour)
	require.NoError(t, repos.Jobs.SaveJob(ctx, later))
	assert.Equal(t, 1, countDue())
	sooner.State = core.JobStateQueued
	sooner.NextAttemptAt = now.Add(2 * time.Minute)
	require.NoError(t, repos.Jobs.SaveJob(ctx, sooner))

	next, err = repos.Jobs.NextQueuedJob(ctx)
	require.NoError(t, err)
	assert.Equal(t, "sooner", next.Id)
}

func TestStatusRepository(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()

	_, err := repos.Status.GetStatus(ctx, docA)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	status, err := repos.Status.UpdateStatus(ctx, docA,
		core.NewStatusUpdate().WithState(core.DocumentStateProcessing).WithProgress(10))
	require.NoError(t, err)
	assert.Equal(t, core.DocumentStateProcessing, status.State)
	assert.Equal(t, 10, status.Progress)

	// Partial update keeps the state
	status, err = repos.Status.UpdateStatus(ctx, docA, core.NewStatusUpdate().WithProgress(150))
	require.NoError(t, err)
	assert.Equal(t, core.DocumentStateProcessing, status.State)
	assert.Equal(t, 100, status.Progress)

	stored, err := repos.Status.GetStatus(ctx, docA)
	require.NoError(t, err)
	assert.Equal(t, status.Progress, stored.Progress)
	assert.False(t, stored.UpdatedAt.IsZero())

	_, err = repos.Status.UpdateStatus(ctx, "nope", core.NewStatusUpdate())
	assert.ErrorIs(t, err, core.ErrInvalidDocumentID)
}
