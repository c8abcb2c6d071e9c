package mocks

import (
	"context"
	"sort"
	"sync"

	"github.com/atticus-labs/atticus-core/internal/core/domain"
	"github.com/atticus-labs/atticus-core/internal/core/ports/driven"
)

var _ driven.VectorIndex = (*MockVectorIndex)(nil)

// MockVectorIndex is an in-memory mock of the corpus vector index.
// Tests either preload Hits (returned for every search) or Upsert cases
// and rely on the stored order.
type MockVectorIndex struct {
	mu sync.Mutex

	Hits        []domain.CorpusHit
	SearchErr   error
	SearchCalls int
	UpsertCalls int

	stored map[int64]domain.CorpusHit
}

// NewMockVectorIndex creates a new MockVectorIndex
func NewMockVectorIndex() *MockVectorIndex {
	return &MockVectorIndex{stored: make(map[int64]domain.CorpusHit)}
}

func (m *MockVectorIndex) Upsert(ctx context.Context, c *domain.CaseRecord, embedding []float32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.UpsertCalls++
	m.stored[c.ID] = domain.CorpusHit{
		CaseID:   c.ID,
		Score:    1.0,
		CaseName: c.CaseName,
		Citation: c.Citation,
		Court:    c.Court,
		Year:     c.Year,
	}
	return nil
}

func (m *MockVectorIndex) Search(ctx context.Context, embedding []float32, k int, filters domain.CaseFilters) ([]domain.CorpusHit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SearchCalls++
	if m.SearchErr != nil {
		return nil, m.SearchErr
	}

	hits := m.Hits
	if hits == nil {
		for _, h := range m.stored {
			hits = append(hits, h)
		}
		sort.Slice(hits, func(i, j int) bool {
			if hits[i].Score != hits[j].Score {
				return hits[i].Score > hits[j].Score
			}
			return hits[i].Year > hits[j].Year
		})
	}

	out := make([]domain.CorpusHit, 0, len(hits))
	for _, h := range hits {
		if filters.Court != "" && h.Court != filters.Court {
			continue
		}
		if filters.MinYear > 0 && h.Year < filters.MinYear {
			continue
		}
		if filters.MaxYear > 0 && h.Year > filters.MaxYear {
			continue
		}
		out = append(out, h)
		if len(out) == k {
			break
		}
	}
	return out, nil
}

func (m *MockVectorIndex) Delete(ctx context.Context, caseID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.stored, caseID)
	return nil
}

func (m *MockVectorIndex) HealthCheck(ctx context.Context) error {
	return nil
}
