package ai

import "context"

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedBatch generates embeddings for all texts in one call to the model.
	// The returned embeddings are in the same order as the input texts.
	// Callers must check that the count matches; implementations do not pad.
	EmbedBatch(ctx context.Context, texts []string) (*BatchResult, error)

	// Model returns the identifier of the model producing the embeddings.
	// Cached embeddings are only reused for the same model.
	Model() string
}

// BatchResult is the output of one EmbedBatch call.
type BatchResult struct {
	Embeddings [][]float32

	// Model is the model that produced the embeddings, as reported by the service.
	Model string
}

// EmbedText embeds a single text through e.
func EmbedText(ctx context.Context, e Embedder, text string) ([]float32, error) {
	result, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(result.Embeddings) != 1 {
		return nil, ErrEmptyResult
	}
	return result.Embeddings[0], nil
}
