package driven

import (
	"context"

	"github.com/atticus-labs/atticus-core/internal/core/domain"
)

// VectorIndex handles vector similarity search over the case corpus.
// Scores are cosine similarity expressed in [0,1] so they can be compared
// against a fixed confidence threshold. Results are ordered by descending
// score; among equal scores the more recent decision year ranks first.
type VectorIndex interface {
	// Upsert adds or replaces the vector for a case, with enough payload
	// (name, citation, court, year) to render hits without a store lookup
	Upsert(ctx context.Context, c *domain.CaseRecord, embedding []float32) error

	// Search returns up to k nearest cases. Fewer than k come back when
	// the corpus is smaller. Filters are evaluated inside the index.
	Search(ctx context.Context, embedding []float32, k int, filters domain.CaseFilters) ([]domain.CorpusHit, error)

	// Delete removes the vector for a case
	Delete(ctx context.Context, caseID int64) error

	// HealthCheck verifies the index is reachable
	HealthCheck(ctx context.Context) error
}
