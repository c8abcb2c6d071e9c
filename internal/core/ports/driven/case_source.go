package driven

import (
	"context"

	"github.com/atticus-labs/atticus-core/internal/core/domain"
)

// CaseSourceQuery describes what to pull from an upstream case-law source
type CaseSourceQuery struct {
	Search     string
	Court      string // e.g. "scotus"
	MinYear    int
	MaxResults int
}

// CaseSource is an upstream provider of case law used by the ingestion
// path (e.g. CourtListener). Returned records are parsed but unsaved:
// ID is zero and embeddings have not been generated yet.
type CaseSource interface {
	SearchCases(ctx context.Context, q CaseSourceQuery) ([]*domain.CaseRecord, error)
}
