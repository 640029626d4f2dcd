package queue

import "errors"

var (
	// ErrInvalidMaxAttempts is returned when maxAttempts is <= 0
	ErrInvalidMaxAttempts = errors.New("maxAttempts must be greater than 0")

	// ErrInvalidJob is returned when a payload fails validation.
	ErrInvalidJob = errors.New("invalid job")

	// ErrInvalidConfig is returned by Config.Validate.
	ErrInvalidConfig = errors.New("invalid queue config")

	// ErrClosed is returned by operations on a closed queue.
	ErrClosed = errors.New("queue is closed")

	// ErrJobNotProcessing is returned when completing or failing a job that
	// is not currently claimed.
	ErrJobNotProcessing = errors.New("job is not processing")

	// ErrUnknownJob is returned for job IDs the queue never delivered.
	ErrUnknownJob = errors.New("unknown job")
)
