package mocks

import (
	"context"
	"fmt"

	"github.com/atticus-labs/atticus-core/internal/core/domain"
	"github.com/atticus-labs/atticus-core/internal/core/ports/driven"
)

var _ driven.LLMService = (*MockLLMService)(nil)

// MockLLMService is a mock answer synthesizer. It produces an answer
// that cites every evidence item, so citation plumbing can be asserted.
type MockLLMService struct {
	Err             error
	SynthesizeCalls int
	LastQuestion    string
}

// NewMockLLMService creates a new MockLLMService
func NewMockLLMService() *MockLLMService {
	return &MockLLMService{}
}

func (m *MockLLMService) Synthesize(ctx context.Context, question string, evidence []domain.EvidenceItem) (*domain.Answer, error) {
	m.SynthesizeCalls++
	m.LastQuestion = question
	if m.Err != nil {
		return nil, m.Err
	}

	citations := make([]string, 0, len(evidence))
	for _, e := range evidence {
		citations = append(citations, e.Citation())
	}
	return &domain.Answer{
		Text:          fmt.Sprintf("mock answer to %q grounded in %d sources", question, len(evidence)),
		CitationsUsed: citations,
		Model:         m.Model(),
	}, nil
}

func (m *MockLLMService) Model() string {
	return "mock-llm"
}

func (m *MockLLMService) Close() error {
	return nil
}
