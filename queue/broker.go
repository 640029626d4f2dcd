package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/poiesic/ragvec/core"
	"github.com/poiesic/ragvec/status"
	"github.com/poiesic/ragvec/storage"
	"golang.org/x/time/rate"
)

// Broker is a durable job queue over a JobRepository. It is the single
// delivery point for one store; workers in the same process share it.
type Broker struct {
	jobs      storage.JobRepository
	cfg       Config
	limiter   *rate.Limiter
	notifiers []status.Notifier
	logger    *slog.Logger
	now       func() time.Time

	// mu serializes claims and state transitions.
	mu     sync.Mutex
	wake   chan struct{}
	closed chan struct{}
	once   sync.Once
}

var _ Queue = (*Broker)(nil)

// NewBroker validates cfg, requeues jobs a previous process left in
// processing, and returns a ready broker.
func NewBroker(ctx context.Context, cfg Config, jobs storage.JobRepository, opts ...Option) (*Broker, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	o := buildOptions(opts)

	b := &Broker{
		jobs:      jobs,
		cfg:       cfg,
		notifiers: o.notifiers,
		logger:    o.logger.With("component", "queue"),
		now:       o.now,
		wake:      make(chan struct{}, 1),
		closed:    make(chan struct{}),
	}
	if cfg.RateLimitMax > 0 {
		// Burst 1 spaces admissions window/max apart, so no window of that
		// length ever holds more than max of them.
		every := cfg.RateLimitWindow / time.Duration(cfg.RateLimitMax)
		b.limiter = rate.NewLimiter(rate.Every(every), 1)
	}

	if err := b.recover(ctx); err != nil {
		return nil, err
	}
	return b, nil
}

// recover requeues jobs stranded in processing by a crashed process.
func (b *Broker) recover(ctx context.Context) error {
	stale, err := b.jobs.ListJobs(ctx, core.JobStateProcessing)
	if err != nil {
		return err
	}

	var events []*core.JobEvent
	for _, job := range stale {
		now := b.now()
		job.UpdatedAt = now
		if job.Attempts >= job.MaxAttempts {
			job.State = core.JobStateFailed
			if job.LastError == "" {
				job.LastError = "worker stopped during final attempt"
			}
			events = append(events, eventFor(job, now))
		} else {
			job.State = core.JobStateQueued
			job.NextAttemptAt = now
		}
		if err := b.jobs.SaveJob(ctx, job); err != nil {
			return err
		}
		b.logger.Warn("recovered stale job", "jobID", job.Id, "state", job.State, "attempts", job.Attempts)
	}
	b.notify(ctx, events...)
	return nil
}

// Enqueue validates and persists a job. Over the admission limit the job is
// accepted with a later NextAttemptAt.
func (b *Broker) Enqueue(ctx context.Context, payload *core.JobPayload, opts ...EnqueueOption) (*JobHandle, error) {
	if err := b.checkOpen(); err != nil {
		return nil, err
	}
	if err := core.ValidateJobPayload(payload); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidJob, err)
	}

	o := enqueueOptions{
		attempts:    b.cfg.RetryAttempts,
		backoffBase: b.cfg.BackoffBase,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.attempts < 1 {
		return nil, fmt.Errorf("%w: attempts must be at least 1", ErrInvalidJob)
	}

	b.mu.Lock()
	handle, err := b.enqueueLocked(ctx, payload, o)
	b.mu.Unlock()
	if err != nil {
		return nil, err
	}

	if !handle.Existing {
		b.signal()
	}
	return handle, nil
}

func (b *Broker) enqueueLocked(ctx context.Context, payload *core.JobPayload, o enqueueOptions) (*JobHandle, error) {
	active, err := b.jobs.FindActiveJob(ctx, payload.DocumentID)
	if err != nil {
		return nil, err
	}
	if active != nil {
		b.logger.Debug("document already has an active job", "jobID", active.Id, "documentID", active.DocumentID)
		return NewHandle(active, true), nil
	}

	now := b.now()
	jobID := payload.JobID
	if jobID == "" {
		jobID = NewJobID(payload.DocumentID, now)
	} else {
		prev, err := b.jobs.GetJob(ctx, jobID)
		switch {
		case errors.Is(err, storage.ErrNotFound):
		case err != nil:
			return nil, err
		case prev.DocumentID != payload.DocumentID:
			return nil, fmt.Errorf("%w: job %s belongs to document %s", ErrInvalidJob, jobID, prev.DocumentID)
		default:
			b.logger.Info("requeueing finished job", "jobID", jobID, "previousState", prev.State)
		}
	}

	delay := o.delay
	if b.limiter != nil {
		delay += b.limiter.ReserveN(now, 1).DelayFrom(now)
	}

	job := &core.EmbeddingJob{
		Id:            jobID,
		DocumentID:    payload.DocumentID,
		Chunks:        payload.Chunks,
		ProgressBase:  payload.ProgressBase,
		MaxAttempts:   o.attempts,
		BackoffBase:   o.backoffBase,
		State:         core.JobStateQueued,
		EnqueuedAt:    now,
		UpdatedAt:     now,
		NextAttemptAt: now.Add(delay),
	}
	if err := b.jobs.SaveJob(ctx, job); err != nil {
		return nil, err
	}
	b.logger.Debug("job enqueued", "jobID", job.Id, "documentID", job.DocumentID, "chunks", len(job.Chunks), "delay", delay)
	return NewHandle(job, false), nil
}

// Dequeue claims the earliest due job, waiting for one if none is due.
func (b *Broker) Dequeue(ctx context.Context) (*core.EmbeddingJob, error) {
	for {
		if err := b.checkOpen(); err != nil {
			return nil, err
		}

		job, nextDue, err := b.claim(ctx)
		if err != nil {
			return nil, err
		}
		if job != nil {
			return job, nil
		}

		wait := b.cfg.PollInterval
		if !nextDue.IsZero() {
			wait = min(wait, max(nextDue.Sub(b.now()), time.Millisecond))
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-b.closed:
			timer.Stop()
			return nil, ErrClosed
		case <-b.wake:
			timer.Stop()
		case <-timer.C:
		}
	}
}

// claim moves the first due queued job to processing. When the head of the
// queue is not due yet it returns its NextAttemptAt instead.
func (b *Broker) claim(ctx context.Context) (*core.EmbeddingJob, time.Time, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	job, err := b.jobs.NextQueuedJob(ctx)
	if err != nil || job == nil {
		return nil, time.Time{}, err
	}

	now := b.now()
	if job.NextAttemptAt.After(now) {
		return nil, job.NextAttemptAt, nil
	}

	job.State = core.JobStateProcessing
	job.Attempts++
	job.UpdatedAt = now
	if err := b.jobs.SaveJob(ctx, job); err != nil {
		return nil, time.Time{}, err
	}
	b.logger.Debug("job claimed", "jobID", job.Id, "attempt", job.Attempts, "maxAttempts", job.MaxAttempts)
	return job, time.Time{}, nil
}

// Complete marks a claimed job completed and emits an event.
func (b *Broker) Complete(ctx context.Context, jobID string) error {
	b.mu.Lock()
	job, err := b.transition(ctx, jobID, func(job *core.EmbeddingJob, now time.Time) {
		job.State = core.JobStateCompleted
		job.LastError = ""
	})
	b.mu.Unlock()
	if err != nil {
		return err
	}

	b.logger.Info("job completed", "jobID", job.Id, "documentID", job.DocumentID, "attempts", job.Attempts)
	b.notify(ctx, eventFor(job, job.UpdatedAt))
	return nil
}

// Fail records a failed attempt and either schedules a retry or marks the
// job failed for good.
func (b *Broker) Fail(ctx context.Context, jobID string, cause error) error {
	msg := "unknown error"
	if cause != nil {
		msg = cause.Error()
	}

	b.mu.Lock()
	job, err := b.transition(ctx, jobID, func(job *core.EmbeddingJob, now time.Time) {
		job.LastError = msg
		if job.Attempts >= job.MaxAttempts {
			job.State = core.JobStateFailed
			return
		}
		job.State = core.JobStateQueued
		job.NextAttemptAt = now.Add(Backoff(job.BackoffBase, job.Attempts))
	})
	b.mu.Unlock()
	if err != nil {
		return err
	}

	if job.State == core.JobStateFailed {
		b.logger.Warn("job failed permanently", "jobID", job.Id, "documentID", job.DocumentID, "attempts", job.Attempts, "err", msg)
	} else {
		b.logger.Info("job scheduled for retry", "jobID", job.Id, "attempt", job.Attempts, "retryAt", job.NextAttemptAt, "err", msg)
		b.signal()
	}
	b.notify(ctx, eventFor(job, job.UpdatedAt))
	return nil
}

// transition applies fn to a processing job and persists it. Caller holds mu.
func (b *Broker) transition(ctx context.Context, jobID string, fn func(*core.EmbeddingJob, time.Time)) (*core.EmbeddingJob, error) {
	job, err := b.jobs.GetJob(ctx, jobID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownJob, jobID)
	}
	if err != nil {
		return nil, err
	}
	if job.State != core.JobStateProcessing {
		return nil, fmt.Errorf("%w: %s is %s", ErrJobNotProcessing, jobID, job.State)
	}

	now := b.now()
	fn(job, now)
	job.UpdatedAt = now
	if err := b.jobs.SaveJob(ctx, job); err != nil {
		return nil, err
	}
	return job, nil
}

// Stats counts jobs per state.
func (b *Broker) Stats(ctx context.Context) (map[core.JobState]int, error) {
	jobs, err := b.jobs.ListJobs(ctx)
	if err != nil {
		return nil, err
	}
	stats := map[core.JobState]int{
		core.JobStateQueued:     0,
		core.JobStateProcessing: 0,
		core.JobStateCompleted:  0,
		core.JobStateFailed:     0,
	}
	for _, job := range jobs {
		stats[job.State]++
	}
	return stats, nil
}

// Ready reports whether the broker accepts and delivers jobs.
func (b *Broker) Ready() bool {
	return b.checkOpen() == nil
}

// Close stops delivery. Persisted jobs stay queued for the next broker.
func (b *Broker) Close() error {
	b.once.Do(func() { close(b.closed) })
	return nil
}

func (b *Broker) checkOpen() error {
	select {
	case <-b.closed:
		return ErrClosed
	default:
		return nil
	}
}

// signal wakes one waiting Dequeue without blocking.
func (b *Broker) signal() {
	select {
	case b.wake <- struct{}{}:
	default:
	}
}

func (b *Broker) notify(ctx context.Context, events ...*core.JobEvent) {
	for _, event := range events {
		for _, n := range b.notifiers {
			if err := n.Notify(ctx, event); err != nil {
				b.logger.Warn("job notification failed", "jobID", event.JobID, "err", err)
			}
		}
	}
}

func eventFor(job *core.EmbeddingJob, at time.Time) *core.JobEvent {
	return &core.JobEvent{
		JobID:      job.Id,
		DocumentID: job.DocumentID,
		State:      job.State,
		Attempts:   job.Attempts,
		Error:      job.LastError,
		Timestamp:  at,
	}
}
