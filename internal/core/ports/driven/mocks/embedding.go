package mocks

import (
	"context"
	"hash/fnv"
	"strings"

	"github.com/atticus-labs/atticus-core/internal/core/domain"
	"github.com/atticus-labs/atticus-core/internal/core/ports/driven"
)

var _ driven.EmbeddingService = (*MockEmbeddingService)(nil)

// MockEmbeddingService is a mock implementation of EmbeddingService for testing
type MockEmbeddingService struct {
	dimensions int
	model      string

	FailNext   bool
	EmbedCalls int
	QueryCalls int
}

// NewMockEmbeddingService creates a new MockEmbeddingService
func NewMockEmbeddingService() *MockEmbeddingService {
	return &MockEmbeddingService{
		dimensions: 384,
		model:      "mock-embedding-model",
	}
}

func (m *MockEmbeddingService) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	m.EmbedCalls++
	if m.FailNext {
		m.FailNext = false
		return nil, context.DeadlineExceeded
	}
	result := make([][]float32, len(texts))
	for i, text := range texts {
		result[i] = m.generateEmbedding(text)
	}
	return result, nil
}

func (m *MockEmbeddingService) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	m.QueryCalls++
	if m.FailNext {
		m.FailNext = false
		return nil, context.DeadlineExceeded
	}
	return m.generateEmbedding(query), nil
}

func (m *MockEmbeddingService) EmbedCase(ctx context.Context, c *domain.CaseRecord) ([]float32, error) {
	m.EmbedCalls++
	if m.FailNext {
		m.FailNext = false
		return nil, context.DeadlineExceeded
	}
	return m.generateEmbedding(strings.Join([]string{c.CaseName, c.Citation, c.Issue, c.Holding}, "\n")), nil
}

func (m *MockEmbeddingService) Dimensions() int {
	return m.dimensions
}

func (m *MockEmbeddingService) Model() string {
	return m.model
}

func (m *MockEmbeddingService) HealthCheck(ctx context.Context) error {
	return nil
}

func (m *MockEmbeddingService) Close() error {
	return nil
}

// generateEmbedding produces a deterministic pseudo-embedding from the
// text so identical inputs map to identical vectors.
func (m *MockEmbeddingService) generateEmbedding(text string) []float32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(text))
	seed := h.Sum32()

	embedding := make([]float32, m.dimensions)
	for i := range embedding {
		seed = seed*1664525 + 1013904223
		embedding[i] = float32(seed%1000)/1000.0 - 0.5
	}
	return embedding
}
