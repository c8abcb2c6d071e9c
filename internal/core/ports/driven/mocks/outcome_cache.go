package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/atticus-labs/atticus-core/internal/core/domain"
	"github.com/atticus-labs/atticus-core/internal/core/ports/driven"
)

var _ driven.OutcomeCache = (*MockOutcomeCache)(nil)

// MockOutcomeCache is an in-memory response cache. TTLs are recorded but
// not enforced; set Err to simulate an unreachable cache.
type MockOutcomeCache struct {
	mu sync.Mutex

	Err      error
	GetCalls int
	PutCalls int

	entries map[string]*domain.RetrievalOutcome
	ttls    map[string]time.Duration
}

// NewMockOutcomeCache creates a new MockOutcomeCache
func NewMockOutcomeCache() *MockOutcomeCache {
	return &MockOutcomeCache{
		entries: make(map[string]*domain.RetrievalOutcome),
		ttls:    make(map[string]time.Duration),
	}
}

func (m *MockOutcomeCache) Get(ctx context.Context, fingerprint string) (*domain.RetrievalOutcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.GetCalls++
	if m.Err != nil {
		return nil, m.Err
	}
	out, ok := m.entries[fingerprint]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return out, nil
}

func (m *MockOutcomeCache) Put(ctx context.Context, fingerprint string, outcome *domain.RetrievalOutcome, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PutCalls++
	if m.Err != nil {
		return m.Err
	}
	m.entries[fingerprint] = outcome
	m.ttls[fingerprint] = ttl
	return nil
}

// TTL returns the TTL recorded for a fingerprint
func (m *MockOutcomeCache) TTL(fingerprint string) time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ttls[fingerprint]
}
