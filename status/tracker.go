// Package status exposes document and job progress to callers that should
// not inspect the queue or the store directly.
package status

import (
	"context"
	"errors"
	"log/slog"

	"github.com/poiesic/ragvec/core"
	"github.com/poiesic/ragvec/storage"
)

// Notifier receives job completion, failure and retry events.
// Implementations must be safe for concurrent use.
type Notifier interface {
	Notify(ctx context.Context, event *core.JobEvent) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, event *core.JobEvent) error

// Notify calls f.
func (f NotifierFunc) Notify(ctx context.Context, event *core.JobEvent) error {
	return f(ctx, event)
}

// Tracker persists the latest reported state per document and fans job
// events out to notifiers.
type Tracker struct {
	statuses  storage.StatusRepository
	jobs      storage.JobRepository
	notifiers []Notifier
	logger    *slog.Logger
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithNotifier adds a notifier.
func WithNotifier(n Notifier) Option {
	return func(t *Tracker) {
		t.notifiers = append(t.notifiers, n)
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Tracker) {
		t.logger = logger
	}
}

// NewTracker creates a tracker. jobs may be nil when job lookups are not needed.
func NewTracker(statuses storage.StatusRepository, jobs storage.JobRepository, opts ...Option) *Tracker {
	t := &Tracker{
		statuses: statuses,
		jobs:     jobs,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(t)
	}
	t.logger = t.logger.With("component", "status")
	return t
}

// Update records a document's state and progress. The error message is cleared.
func (t *Tracker) Update(ctx context.Context, documentID string, state core.DocumentState, progress int) (*core.ProcessingStatus, error) {
	return t.Apply(ctx, documentID, core.NewStatusUpdate().
		WithState(state).
		WithProgress(progress).
		WithError(""))
}

// SetProgress records progress only, keeping the current state.
func (t *Tracker) SetProgress(ctx context.Context, documentID string, progress int) (*core.ProcessingStatus, error) {
	return t.Apply(ctx, documentID, core.NewStatusUpdate().WithProgress(progress))
}

// Fail records a failure state with its message.
func (t *Tracker) Fail(ctx context.Context, documentID string, progress int, msg string) (*core.ProcessingStatus, error) {
	return t.Apply(ctx, documentID, core.NewStatusUpdate().
		WithState(core.DocumentStateFailed).
		WithProgress(progress).
		WithError(msg))
}

// Apply writes only the fields set on update.
func (t *Tracker) Apply(ctx context.Context, documentID string, update *core.StatusUpdate) (*core.ProcessingStatus, error) {
	status, err := t.statuses.UpdateStatus(ctx, documentID, update)
	if err != nil {
		return nil, err
	}
	t.logger.Debug("document status", "documentID", documentID, "state", status.State, "progress", status.Progress)
	return status, nil
}

// Status returns the latest status of a document.
// Returns storage.ErrNotFound if nothing was ever reported.
func (t *Tracker) Status(ctx context.Context, documentID string) (*core.ProcessingStatus, error) {
	return t.statuses.GetStatus(ctx, documentID)
}

// Job returns the persisted record of a job.
func (t *Tracker) Job(ctx context.Context, jobID string) (*core.EmbeddingJob, error) {
	if t.jobs == nil {
		return nil, storage.ErrNotFound
	}
	return t.jobs.GetJob(ctx, jobID)
}

// Notify delivers event to every notifier. A failing notifier is logged and
// does not stop the others; the joined errors are returned.
func (t *Tracker) Notify(ctx context.Context, event *core.JobEvent) error {
	var errs []error
	for _, n := range t.notifiers {
		if err := n.Notify(ctx, event); err != nil {
			t.logger.Warn("job notification failed", "jobID", event.JobID, "err", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// LogNotifier writes job events to a logger.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a LogNotifier. A nil logger uses slog.Default.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger.With("component", "job-events")}
}

// Notify logs the event; failures log at warn.
func (n *LogNotifier) Notify(ctx context.Context, event *core.JobEvent) error {
	level := slog.LevelInfo
	if event.State == core.JobStateFailed {
		level = slog.LevelWarn
	}
	n.logger.Log(ctx, level, "job event",
		"jobID", event.JobID,
		"documentID", event.DocumentID,
		"state", event.State,
		"attempts", event.Attempts,
		"error", event.Error,
	)
	return nil
}
