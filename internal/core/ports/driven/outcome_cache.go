package driven

import (
	"context"
	"time"

	"github.com/atticus-labs/atticus-core/internal/core/domain"
)

// OutcomeCache caches retrieval outcomes keyed by a query fingerprint.
// The cache is an optimization, never a correctness dependency: callers
// treat every error as a miss. Writes are idempotent.
type OutcomeCache interface {
	// Get returns the cached outcome, or domain.ErrNotFound on a miss
	Get(ctx context.Context, fingerprint string) (*domain.RetrievalOutcome, error)

	// Put stores an outcome with the given TTL
	Put(ctx context.Context, fingerprint string, outcome *domain.RetrievalOutcome, ttl time.Duration) error
}
