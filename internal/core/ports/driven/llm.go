package driven

import (
	"context"

	"github.com/atticus-labs/atticus-core/internal/core/domain"
)

// LLMService synthesizes a grounded answer from retrieved evidence.
// It sits outside the retrieval core: the orchestrator never depends on it.
type LLMService interface {
	// Synthesize produces an answer to the question from the evidence set
	Synthesize(ctx context.Context, question string, evidence []domain.EvidenceItem) (*domain.Answer, error)

	// Model returns the model name being used
	Model() string

	// Close releases resources held by the service
	Close() error
}
