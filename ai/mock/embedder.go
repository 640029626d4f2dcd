package mock

import (
	"context"
	"hash/fnv"
	"math"
	"slices"
	"sync"

	"github.com/poiesic/ragvec/ai"
)

// DefaultDimension is the vector length produced by the default behavior.
const DefaultDimension = 8

// MockEmbedder is a test double for ai.Embedder.
// It records every batch it receives and is safe for concurrent use.
type MockEmbedder struct {
	// EmbedBatchFunc is called by EmbedBatch if set.
	// If nil, uses default deterministic behavior.
	EmbedBatchFunc func(ctx context.Context, texts []string) (*ai.BatchResult, error)

	// ModelName is returned by Model and stamped on default results.
	ModelName string

	// Dimension is the length of default vectors.
	Dimension int

	mu      sync.Mutex
	batches [][]string
}

var _ ai.Embedder = (*MockEmbedder)(nil)

// NewMockEmbedder creates a mock embedder with default deterministic behavior.
// Note: Returns concrete type to allow test assertions.
func NewMockEmbedder() *MockEmbedder {
	return &MockEmbedder{
		ModelName: "mock-embed",
		Dimension: DefaultDimension,
	}
}

// WithEmbedBatchFunc injects custom behavior.
func (m *MockEmbedder) WithEmbedBatchFunc(fn func(ctx context.Context, texts []string) (*ai.BatchResult, error)) *MockEmbedder {
	m.EmbedBatchFunc = fn
	return m
}

// Model returns ModelName.
func (m *MockEmbedder) Model() string {
	return m.ModelName
}

// EmbedBatch generates deterministic embeddings for multiple texts.
func (m *MockEmbedder) EmbedBatch(ctx context.Context, texts []string) (*ai.BatchResult, error) {
	m.mu.Lock()
	m.batches = append(m.batches, slices.Clone(texts))
	fn := m.EmbedBatchFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, texts)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	embeddings := make([][]float32, len(texts))
	for i, text := range texts {
		embeddings[i] = Vector(text, m.Dimension)
	}
	return &ai.BatchResult{Embeddings: embeddings, Model: m.ModelName}, nil
}

// CallCount returns the number of EmbedBatch calls.
func (m *MockEmbedder) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.batches)
}

// Batches returns a copy of every batch received, in call order.
func (m *MockEmbedder) Batches() [][]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]string, len(m.batches))
	for i, b := range m.batches {
		out[i] = slices.Clone(b)
	}
	return out
}

// Texts returns every text received across all batches.
func (m *MockEmbedder) Texts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, b := range m.batches {
		out = append(out, b...)
	}
	return out
}

// Reset clears recorded calls and injected behavior.
func (m *MockEmbedder) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.batches = nil
	m.EmbedBatchFunc = nil
}

// Vector creates a deterministic unit vector from text.
// It uses an FNV hash seed so the same text always produces the same vector.
func Vector(text string, dim int) []float32 {
	h := fnv.New32a()
	h.Write([]byte(text))
	seed := h.Sum32()

	vector := make([]float32, dim)
	for i := range dim {
		seed = seed*1664525 + 1013904223 // LCG constants
		vector[i] = float32(seed%1000)/1000.0 + 0.001
	}

	var sumSquares float64
	for _, v := range vector {
		sumSquares += float64(v) * float64(v)
	}
	norm := float32(math.Sqrt(sumSquares))
	for i := range vector {
		vector[i] /= norm
	}
	return vector
}
