package reembed

import "errors"

var (
	// ErrChunkRepositoryRequired is returned when a chunk repository is not provided.
	ErrChunkRepositoryRequired = errors.New("chunk repository required")

	// ErrQueueRequired is returned when a queue is not provided.
	ErrQueueRequired = errors.New("queue required")

	// ErrInvalidConfig is returned for an invalid re-embed configuration.
	ErrInvalidConfig = errors.New("invalid reembed configuration")
)
