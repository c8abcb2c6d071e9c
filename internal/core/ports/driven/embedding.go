package driven

import (
	"context"

	"github.com/atticus-labs/atticus-core/internal/core/domain"
)

// EmbeddingService generates text embeddings
type EmbeddingService interface {
	// Embed generates embeddings for multiple texts
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// EmbedQuery generates an embedding for a search query.
	// May use a query-specific instruction prefix depending on the model.
	EmbedQuery(ctx context.Context, query string) ([]float32, error)

	// EmbedCase generates an embedding for a case record by composing its
	// fields into one semantically dense document string. Issue and holding
	// come first so topical signal survives any truncation limit.
	EmbedCase(ctx context.Context, c *domain.CaseRecord) ([]float32, error)

	// Dimensions returns the embedding dimension size
	Dimensions() int

	// Model returns the model name being used
	Model() string

	// HealthCheck verifies the embedding service is available
	HealthCheck(ctx context.Context) error

	// Close releases resources held by the embedding service
	Close() error
}
