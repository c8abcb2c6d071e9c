package driven

import (
	"context"

	"github.com/atticus-labs/atticus-core/internal/core/domain"
)

// WebSearcher finds candidate web pages for escalation queries.
// Implementations must restrict results to allowDomains: a result whose
// host is not on the list is discarded, not merely deprioritized. This is
// a trust boundary, not a ranking signal.
type WebSearcher interface {
	Search(ctx context.Context, query string, allowDomains []string, limit int) ([]domain.WebSearchResult, error)
}
