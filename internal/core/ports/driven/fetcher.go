package driven

import (
	"context"

	"github.com/atticus-labs/atticus-core/internal/core/domain"
)

// PageFetcher retrieves a web page and extracts readable, chunked text.
// Implementations enforce a byte-size cap and a per-request timeout.
// A failure is scoped to the single URL and wraps domain.ErrFetch.
type PageFetcher interface {
	FetchAndExtract(ctx context.Context, url string) (*domain.WebDocument, error)
}
