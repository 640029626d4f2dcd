package reembed

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// Progress is a point-in-time view of a re-embed run.
type Progress struct {
	Total    int
	Done     int
	Enqueued int
	Skipped  int
	Elapsed  time.Duration
}

// Percent returns Done as a percentage of Total.
func (p Progress) Percent() float64 {
	if p.Total == 0 {
		return 0
	}
	return float64(p.Done) / float64(p.Total) * 100.0
}

// ProgressTracker counts documents as they are handed to the queue and
// writes a progress line every reportInterval documents.
type ProgressTracker struct {
	writer         io.Writer
	total          int
	enqueued       int
	skipped        int
	reportInterval int
	lastReported   int
	startTime      time.Time
	started        bool
	mu             sync.Mutex
}

// NewProgressTracker creates a new progress tracker.
// A nil writer discards output.
func NewProgressTracker(writer io.Writer, total, reportInterval int) *ProgressTracker {
	if writer == nil {
		writer = io.Discard
	}
	if reportInterval <= 0 {
		reportInterval = 1
	}
	return &ProgressTracker{
		writer:         writer,
		total:          total,
		reportInterval: reportInterval,
	}
}

// Start begins tracking progress.
func (p *ProgressTracker) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.startTime = time.Now()
	p.started = true
	p.enqueued = 0
	p.skipped = 0
	p.lastReported = 0
}

// Enqueued records n documents handed to the queue.
func (p *ProgressTracker) Enqueued(n int) {
	p.add(n, 0)
}

// Skipped records n documents that had nothing to embed.
func (p *ProgressTracker) Skipped(n int) {
	p.add(0, n)
}

func (p *ProgressTracker) add(enqueued, skipped int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started {
		return
	}
	p.enqueued += enqueued
	p.skipped += skipped

	if done := p.done(); done-p.lastReported >= p.reportInterval {
		p.report()
		p.lastReported = done
	}
}

// Finish prints the final progress line.
func (p *ProgressTracker) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started {
		return
	}
	p.report()
	fmt.Fprintln(p.writer)
}

// Snapshot returns the current counters.
func (p *ProgressTracker) Snapshot() Progress {
	p.mu.Lock()
	defer p.mu.Unlock()

	snap := Progress{
		Total:    p.total,
		Done:     p.done(),
		Enqueued: p.enqueued,
		Skipped:  p.skipped,
	}
	if p.started {
		snap.Elapsed = time.Since(p.startTime)
	}
	return snap
}

// done must be called with lock held.
func (p *ProgressTracker) done() int {
	return min(p.enqueued+p.skipped, p.total)
}

// report must be called with lock held.
func (p *ProgressTracker) report() {
	done := p.done()
	elapsed := time.Since(p.startTime)
	rate := float64(done) / elapsed.Seconds()

	percentage := 0.0
	if p.total > 0 {
		percentage = float64(done) / float64(p.total) * 100.0
	}

	fmt.Fprintf(p.writer, "\rProgress: %d/%d (%.1f%%), %d skipped - %.1f documents/s",
		done, p.total, percentage, p.skipped, rate)
}
