package ai

import "errors"

var (
	// ErrEmptyResult indicates the embedding service returned no vectors.
	ErrEmptyResult = errors.New("embedder returned no embeddings")

	// ErrInvalidConfig indicates a missing or malformed configuration value.
	ErrInvalidConfig = errors.New("ai config")
)
