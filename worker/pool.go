package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/ragvec/core"
	"github.com/poiesic/ragvec/queue"
)

const dequeueErrorDelay = 250 * time.Millisecond

// antsLoggerAdapter adapts slog.Logger to the ants.Logger interface.
type antsLoggerAdapter struct {
	logger *slog.Logger
}

func (a *antsLoggerAdapter) Printf(format string, args ...any) {
	a.logger.Warn(fmt.Sprintf(format, args...))
}

// Pool consumes a queue and runs up to Concurrency jobs at once.
type Pool struct {
	queue       queue.Queue
	processor   *Processor
	pool        *ants.Pool
	slots       chan struct{}
	concurrency int
	logger      *slog.Logger
	inflight    sync.WaitGroup
}

// PoolOption configures a Pool.
type PoolOption func(*Pool) error

// WithPoolLogger sets a custom logger.
// Default is slog.Default().
func WithPoolLogger(logger *slog.Logger) PoolOption {
	return func(p *Pool) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPool creates a worker pool over q.
func NewPool(q queue.Queue, processor *Processor, concurrency int, opts ...PoolOption) (*Pool, error) {
	if q == nil {
		return nil, ErrQueueRequired
	}
	if processor == nil {
		return nil, ErrProcessorRequired
	}
	if concurrency < 1 {
		return nil, fmt.Errorf("%w: concurrency must be at least 1", ErrInvalidConfig)
	}

	p := &Pool{
		queue:       q,
		processor:   processor,
		slots:       make(chan struct{}, concurrency),
		concurrency: concurrency,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}
	p.logger = p.logger.With("component", "worker-pool")

	pool, err := ants.NewPool(concurrency,
		ants.WithLogger(&antsLoggerAdapter{logger: p.logger}),
		ants.WithPanicHandler(func(r any) {
			p.logger.Error("worker panic", "panic", r)
		}),
	)
	if err != nil {
		return nil, err
	}
	p.pool = pool
	return p, nil
}

// Run dequeues and processes jobs until ctx is done or the queue is closed.
// A free slot is reserved before each Dequeue, so jobs are only claimed when
// a worker can start them. In-flight jobs run to completion before Run returns.
func (p *Pool) Run(ctx context.Context) error {
	p.logger.Info("worker pool started", "concurrency", p.concurrency)
	defer p.logger.Info("worker pool stopped")
	defer p.inflight.Wait()

	for {
		select {
		case p.slots <- struct{}{}:
		case <-ctx.Done():
			return nil
		}

		job, err := p.queue.Dequeue(ctx)
		if err != nil {
			<-p.slots
			if ctx.Err() != nil || errors.Is(err, queue.ErrClosed) {
				return nil
			}
			p.logger.Error("dequeue failed", "err", err)
			select {
			case <-time.After(dequeueErrorDelay):
			case <-ctx.Done():
				return nil
			}
			continue
		}

		// Jobs are not cancelled mid-run; shutdown waits for them.
		jobCtx := context.WithoutCancel(ctx)
		p.inflight.Add(1)
		if err := p.pool.Submit(func() {
			defer p.inflight.Done()
			defer func() { <-p.slots }()
			p.handle(jobCtx, job)
		}); err != nil {
			p.inflight.Done()
			<-p.slots
			p.logger.Error("failed to submit job", "jobID", job.Id, "err", err)
			p.fail(jobCtx, job, fmt.Errorf("starting job: %w", err))
		}
	}
}

func (p *Pool) handle(ctx context.Context, job *core.EmbeddingJob) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("job panicked", "jobID", job.Id, "panic", r)
			p.fail(ctx, job, fmt.Errorf("panic: %v", r))
		}
	}()

	if err := p.processor.Process(ctx, job); err != nil {
		if failErr := p.queue.Fail(ctx, job.Id, err); failErr != nil {
			p.logger.Error("failed to record job failure", "jobID", job.Id, "err", failErr)
		}
		return
	}
	if err := p.queue.Complete(ctx, job.Id); err != nil {
		p.logger.Error("failed to complete job", "jobID", job.Id, "err", err)
	}
}

// fail records a job that did not run to an end inside Process, on both the
// document status and the queue.
func (p *Pool) fail(ctx context.Context, job *core.EmbeddingJob, cause error) {
	p.processor.MarkFailed(ctx, job, cause)
	if err := p.queue.Fail(ctx, job.Id, cause); err != nil {
		p.logger.Error("failed to record job failure", "jobID", job.Id, "err", err)
	}
}

// Running returns the number of jobs currently executing.
func (p *Pool) Running() int {
	return p.pool.Running()
}

// Release releases the underlying goroutine pool.
// The pool should not be used after calling Release.
func (p *Pool) Release() {
	p.pool.Release()
}
