package mocks

import (
	"context"

	"github.com/atticus-labs/atticus-core/internal/core/domain"
	"github.com/atticus-labs/atticus-core/internal/core/ports/driven"
)

var _ driven.CaseSource = (*MockCaseSource)(nil)

// MockCaseSource is a mock upstream case-law source
type MockCaseSource struct {
	Cases []*domain.CaseRecord
	Err   error

	SearchCalls int
	LastQuery   driven.CaseSourceQuery
}

// NewMockCaseSource creates a new MockCaseSource
func NewMockCaseSource() *MockCaseSource {
	return &MockCaseSource{}
}

func (m *MockCaseSource) SearchCases(ctx context.Context, q driven.CaseSourceQuery) ([]*domain.CaseRecord, error) {
	m.SearchCalls++
	m.LastQuery = q
	if m.Err != nil {
		return nil, m.Err
	}
	out := make([]*domain.CaseRecord, 0, len(m.Cases))
	for _, c := range m.Cases {
		copied := *c
		out = append(out, &copied)
	}
	return out, nil
}
