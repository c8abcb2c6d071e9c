package driven

import (
	"context"

	"github.com/atticus-labs/atticus-core/internal/core/domain"
)

// CaseStore is the persistent store of case records.
// Read-only at query time; the ingestion path is the only writer.
type CaseStore interface {
	// Get retrieves a case by identifier. Returns domain.ErrNotFound when absent.
	Get(ctx context.Context, id int64) (*domain.CaseRecord, error)

	// GetByCitation retrieves a case by its citation string
	GetByCitation(ctx context.Context, citation string) (*domain.CaseRecord, error)

	// List returns cases matching the filters, newest first
	List(ctx context.Context, filters domain.CaseFilters, limit, offset int) ([]*domain.CaseRecord, error)

	// Save creates or updates a case. On insert the assigned ID is written
	// back to the record.
	Save(ctx context.Context, c *domain.CaseRecord) error

	// Count returns the number of cases in the corpus
	Count(ctx context.Context) (int, error)
}
