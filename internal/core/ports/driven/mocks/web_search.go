package mocks

import (
	"context"
	"sync"

	"github.com/atticus-labs/atticus-core/internal/core/domain"
	"github.com/atticus-labs/atticus-core/internal/core/ports/driven"
)

var _ driven.WebSearcher = (*MockWebSearcher)(nil)

// MockWebSearcher is a mock web search client
type MockWebSearcher struct {
	mu sync.Mutex

	Results []domain.WebSearchResult
	Err     error

	SearchCalls int
	LastQuery   string
}

// NewMockWebSearcher creates a new MockWebSearcher
func NewMockWebSearcher() *MockWebSearcher {
	return &MockWebSearcher{}
}

func (m *MockWebSearcher) Search(ctx context.Context, query string, allowDomains []string, limit int) ([]domain.WebSearchResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SearchCalls++
	m.LastQuery = query
	if m.Err != nil {
		return nil, m.Err
	}
	results := m.Results
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// Calls returns how many searches were issued
func (m *MockWebSearcher) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.SearchCalls
}
