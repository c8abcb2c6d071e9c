package mocks

import (
	"context"
	"fmt"
	"sync"

	"github.com/atticus-labs/atticus-core/internal/core/domain"
	"github.com/atticus-labs/atticus-core/internal/core/ports/driven"
)

var _ driven.PageFetcher = (*MockPageFetcher)(nil)

// MockPageFetcher is a mock fetcher/extractor. Documents are keyed by
// URL; URLs listed in FailURLs return a fetch error.
type MockPageFetcher struct {
	mu sync.Mutex

	Docs     map[string]*domain.WebDocument
	FailURLs map[string]bool

	FetchCalls int
}

// NewMockPageFetcher creates a new MockPageFetcher
func NewMockPageFetcher() *MockPageFetcher {
	return &MockPageFetcher{
		Docs:     make(map[string]*domain.WebDocument),
		FailURLs: make(map[string]bool),
	}
}

// AddPage registers a document with a single chunk of the given text
func (m *MockPageFetcher) AddPage(url, title, text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Docs[url] = &domain.WebDocument{
		URL:     url,
		Title:   title,
		Trusted: true,
		Text:    text,
		Chunks: []domain.WebChunk{
			{ID: url + "#0", URL: url, PageTitle: title, Position: 0, Text: text},
		},
	}
}

func (m *MockPageFetcher) FetchAndExtract(ctx context.Context, url string) (*domain.WebDocument, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FetchCalls++
	if m.FailURLs[url] {
		return nil, fmt.Errorf("%w: %s", domain.ErrFetch, url)
	}
	doc, ok := m.Docs[url]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrFetch, url)
	}
	copied := *doc
	return &copied, nil
}
