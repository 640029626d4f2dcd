// Package queue schedules per-document embedding jobs.
//
// Two strategies implement Queue and one is chosen once at startup by New:
// Broker, a durable queue over a storage.JobRepository with admission rate
// limiting, deduplication and retries; and Disabled, a degraded mode whose
// Enqueue hands back a stub handle and whose Dequeue never delivers.
package queue

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/poiesic/ragvec/core"
	"github.com/poiesic/ragvec/status"
	"github.com/poiesic/ragvec/storage"
)

// jobNamespace scopes generated job IDs.
var jobNamespace = uuid.MustParse("6f1d8a52-3b7e-4c0a-9e4f-5a2b1c9d7e30")

// Queue accepts embedding jobs and delivers them to workers.
type Queue interface {
	// Enqueue submits a job. Resubmitting a document with an active job
	// returns the existing handle.
	Enqueue(ctx context.Context, payload *core.JobPayload, opts ...EnqueueOption) (*JobHandle, error)

	// Dequeue blocks until a job is due or ctx is done, then claims it.
	Dequeue(ctx context.Context) (*core.EmbeddingJob, error)

	// Complete marks a claimed job as completed.
	Complete(ctx context.Context, jobID string) error

	// Fail records a failed attempt. The job is retried with backoff until
	// its attempts are exhausted, then marked failed.
	Fail(ctx context.Context, jobID string, cause error) error

	// Ready reports whether jobs submitted now will be delivered.
	Ready() bool

	// Close stops delivery. Blocked Dequeue calls return ErrClosed.
	Close() error
}

// JobHandle describes a submitted job.
type JobHandle struct {
	ID            string
	DocumentID    string
	State         core.JobState
	MaxAttempts   int
	EnqueuedAt    time.Time
	NextAttemptAt time.Time

	// Stub is true when the queue is disabled and the job will never run.
	Stub bool

	// Existing is true when the handle refers to a job submitted earlier.
	Existing bool
}

// NewHandle describes a stored job. existing marks a job submitted earlier.
func NewHandle(job *core.EmbeddingJob, existing bool) *JobHandle {
	return &JobHandle{
		ID:            job.Id,
		DocumentID:    job.DocumentID,
		State:         job.State,
		MaxAttempts:   job.MaxAttempts,
		EnqueuedAt:    job.EnqueuedAt,
		NextAttemptAt: job.NextAttemptAt,
		Existing:      existing,
	}
}

// EnqueueOption overrides per-job settings.
type EnqueueOption func(*enqueueOptions)

type enqueueOptions struct {
	attempts    int
	backoffBase time.Duration
	delay       time.Duration
}

// WithAttempts overrides the retry attempt count for one job.
func WithAttempts(n int) EnqueueOption {
	return func(o *enqueueOptions) {
		o.attempts = n
	}
}

// WithBackoffBase overrides the backoff base delay for one job.
func WithBackoffBase(d time.Duration) EnqueueOption {
	return func(o *enqueueOptions) {
		o.backoffBase = d
	}
}

// WithDelay postpones the first delivery.
func WithDelay(d time.Duration) EnqueueOption {
	return func(o *enqueueOptions) {
		o.delay = d
	}
}

// Option configures a queue.
type Option func(*queueOptions)

type queueOptions struct {
	logger    *slog.Logger
	notifiers []status.Notifier
	now       func() time.Time
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *queueOptions) {
		o.logger = logger
	}
}

// WithNotifier adds a receiver for job events.
func WithNotifier(n status.Notifier) Option {
	return func(o *queueOptions) {
		o.notifiers = append(o.notifiers, n)
	}
}

// withClock replaces time.Now in tests.
func withClock(now func() time.Time) Option {
	return func(o *queueOptions) {
		o.now = now
	}
}

func buildOptions(opts []Option) queueOptions {
	o := queueOptions{
		logger: slog.Default(),
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// New selects the queue strategy. A disabled config or a missing job store
// yields the degraded Disabled queue.
func New(ctx context.Context, cfg Config, jobs storage.JobRepository, opts ...Option) (Queue, error) {
	if cfg.Disabled || jobs == nil {
		o := buildOptions(opts)
		o.logger.Warn("embedding queue disabled, jobs will not be delivered")
		return NewDisabled(opts...), nil
	}
	return NewBroker(ctx, cfg, jobs, opts...)
}

// NewJobID derives a job ID from the document and submission time, so two
// submissions of the same document are distinguishable.
func NewJobID(documentID string, submittedAt time.Time) string {
	name := documentID + "|" + strconv.FormatInt(submittedAt.UnixNano(), 10)
	return uuid.NewSHA1(jobNamespace, []byte(name)).String()
}
