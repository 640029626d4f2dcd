package badger

import (
	"cmp"
	"context"
	"slices"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/ragvec/core"
	"github.com/poiesic/ragvec/storage"
)

// JobRepository implements storage.JobRepository for BadgerDB.
type JobRepository struct {
	backend *Backend
}

var _ storage.JobRepository = (*JobRepository)(nil)

// NewJobRepository creates a new JobRepository.
func NewJobRepository(backend *Backend) *JobRepository {
	return &JobRepository{backend: backend}
}

// SaveJob inserts or replaces a job and keeps the document and due-queue
// indexes current. Only queued jobs have a due-queue entry.
func (r *JobRepository) SaveJob(ctx context.Context, job *core.EmbeddingJob) error {
	if job == nil || job.Id == "" {
		return storage.ErrInvalidQuery
	}
	return r.backend.Update(func(tx *badger.Txn) error {
		prev, err := readRecord(tx, makeJobKey(job.Id), storage.UnmarshalJob)
		if err != nil {
			return err
		}
		if prev != nil && prev.State == core.JobStateQueued {
			if err := tx.Delete(makeJobDueKey(prev)); err != nil {
				return err
			}
		}

		if err := tx.Set(makeJobKey(job.Id), storage.MarshalJob(job)); err != nil {
			return err
		}
		if err := tx.Set(makeJobDocKey(job.DocumentID, job.Id), nil); err != nil {
			return err
		}
		if job.State == core.JobStateQueued {
			return tx.Set(makeJobDueKey(job), nil)
		}
		return nil
	})
}

// NextQueuedJob returns the queued job with the earliest NextAttemptAt,
// reading only the head of the due queue. Returns nil, nil when nothing is queued.
func (r *JobRepository) NextQueuedJob(ctx context.Context) (*core.EmbeddingJob, error) {
	var next *core.EmbeddingJob
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(jobDuePrefix)
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			jobID := jobIDFromDueKey(iter.Item().Key())
			job, err := readRecord(tx, makeJobKey(jobID), storage.UnmarshalJob)
			if err != nil {
				return err
			}
			if job == nil || job.State != core.JobStateQueued {
				continue
			}
			next = job
			return nil
		}
		return nil
	}, false)
	return next, err
}

// GetJob retrieves a job by ID.
func (r *JobRepository) GetJob(ctx context.Context, id string) (*core.EmbeddingJob, error) {
	var result *core.EmbeddingJob
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readRecord(tx, makeJobKey(id), storage.UnmarshalJob)
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// ListJobs returns jobs in the given states ordered by enqueue time.
func (r *JobRepository) ListJobs(ctx context.Context, states ...core.JobState) ([]*core.EmbeddingJob, error) {
	var results []*core.EmbeddingJob
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(jobPrefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if err := iter.Item().Value(func(val []byte) error {
				job, err := storage.UnmarshalJob(val)
				if err != nil {
					return err
				}
				if len(states) == 0 || slices.Contains(states, job.State) {
					results = append(results, job)
				}
				return nil
			}); err != nil {
				return err
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	slices.SortFunc(results, compareJobs)
	return results, nil
}

// FindActiveJob returns the most recently enqueued non-terminal job for a document.
func (r *JobRepository) FindActiveJob(ctx context.Context, documentID string) (*core.EmbeddingJob, error) {
	var active *core.EmbeddingJob
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		prefix := makeJobDocPrefix(documentID)
		for _, key := range keysWithPrefix(tx, prefix) {
			jobID := string(key[len(prefix):])
			job, err := readRecord(tx, makeJobKey(jobID), storage.UnmarshalJob)
			if err != nil {
				return err
			}
			if job == nil || job.State.Terminal() {
				continue
			}
			if active == nil || compareJobs(active, job) < 0 {
				active = job
			}
		}
		return nil
	}, false)
	return active, err
}

func compareJobs(a, b *core.EmbeddingJob) int {
	if c := a.EnqueuedAt.Compare(b.EnqueuedAt); c != 0 {
		return c
	}
	return cmp.Compare(a.Id, b.Id)
}
