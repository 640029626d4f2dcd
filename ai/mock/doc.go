// Package mock provides a test double for ai.Embedder.
//
// The mock lets tests run without an embedding service and gives them
// controlled, deterministic behavior.
//
// # Usage in Tests
//
//	// Basic usage with default behavior
//	embedder := mock.NewMockEmbedder()
//	result, err := embedder.EmbedBatch(ctx, []string{"test"})
//
//	// Custom behavior injection
//	embedder.WithEmbedBatchFunc(func(ctx context.Context, texts []string) (*ai.BatchResult, error) {
//	    return nil, errors.New("service unavailable")
//	})
//
//	// Check what the pipeline sent
//	count := embedder.CallCount()
//	texts := embedder.Texts()
//
// # Default Behavior
//
// EmbedBatch returns a deterministic unit vector per text derived from an
// FNV hash of the text, so equal texts always get equal vectors.
package mock
