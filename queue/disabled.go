package queue

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/poiesic/ragvec/core"
)

// Disabled is the degraded queue. Enqueue always succeeds with a stub handle
// and nothing is ever delivered.
type Disabled struct {
	logger *slog.Logger
	now    func() time.Time
	closed chan struct{}
	once   sync.Once
}

var _ Queue = (*Disabled)(nil)

// NewDisabled creates the degraded queue.
func NewDisabled(opts ...Option) *Disabled {
	o := buildOptions(opts)
	return &Disabled{
		logger: o.logger.With("component", "queue", "mode", "disabled"),
		now:    o.now,
		closed: make(chan struct{}),
	}
}

// Enqueue returns an in-memory handle. It never fails.
func (d *Disabled) Enqueue(ctx context.Context, payload *core.JobPayload, opts ...EnqueueOption) (*JobHandle, error) {
	now := d.now()
	handle := &JobHandle{
		State:         core.JobStateQueued,
		EnqueuedAt:    now,
		NextAttemptAt: now,
		Stub:          true,
	}
	if payload != nil {
		handle.DocumentID = payload.DocumentID
		handle.ID = payload.JobID
	}
	if handle.ID == "" {
		handle.ID = NewJobID(handle.DocumentID, now)
	}
	d.logger.Debug("dropping job submission", "jobID", handle.ID, "documentID", handle.DocumentID)
	return handle, nil
}

// Dequeue blocks until ctx is done or the queue is closed.
func (d *Disabled) Dequeue(ctx context.Context) (*core.EmbeddingJob, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-d.closed:
		return nil, ErrClosed
	}
}

// Complete always fails: no job was ever delivered.
func (d *Disabled) Complete(ctx context.Context, jobID string) error {
	return ErrUnknownJob
}

// Fail always fails: no job was ever delivered.
func (d *Disabled) Fail(ctx context.Context, jobID string, cause error) error {
	return ErrUnknownJob
}

// Ready is always false.
func (d *Disabled) Ready() bool {
	return false
}

// Close releases blocked Dequeue calls.
func (d *Disabled) Close() error {
	d.once.Do(func() { close(d.closed) })
	return nil
}
