package mocks

import (
	"context"
	"sort"
	"sync"

	"github.com/atticus-labs/atticus-core/internal/core/domain"
	"github.com/atticus-labs/atticus-core/internal/core/ports/driven"
)

var _ driven.CaseStore = (*MockCaseStore)(nil)

// MockCaseStore is an in-memory mock of the case store
type MockCaseStore struct {
	mu     sync.Mutex
	nextID int64
	cases  map[int64]*domain.CaseRecord

	GetCalls int
}

// NewMockCaseStore creates a new MockCaseStore
func NewMockCaseStore() *MockCaseStore {
	return &MockCaseStore{
		nextID: 1,
		cases:  make(map[int64]*domain.CaseRecord),
	}
}

func (m *MockCaseStore) Get(ctx context.Context, id int64) (*domain.CaseRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.GetCalls++
	c, ok := m.cases[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	copied := *c
	return &copied, nil
}

func (m *MockCaseStore) GetByCitation(ctx context.Context, citation string) (*domain.CaseRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.cases {
		if c.Citation == citation {
			copied := *c
			return &copied, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *MockCaseStore) List(ctx context.Context, filters domain.CaseFilters, limit, offset int) ([]*domain.CaseRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*domain.CaseRecord
	for _, c := range m.cases {
		if filters.Court != "" && c.Court != filters.Court {
			continue
		}
		if filters.MinYear > 0 && c.Year < filters.MinYear {
			continue
		}
		if filters.MaxYear > 0 && c.Year > filters.MaxYear {
			continue
		}
		copied := *c
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Year > out[j].Year })

	if offset > len(out) {
		offset = len(out)
	}
	out = out[offset:]
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MockCaseStore) Save(ctx context.Context, c *domain.CaseRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c.ID == 0 {
		c.ID = m.nextID
		m.nextID++
	}
	copied := *c
	m.cases[c.ID] = &copied
	return nil
}

func (m *MockCaseStore) Count(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.cases), nil
}
