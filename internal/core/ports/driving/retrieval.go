package driving

import (
	"context"

	"github.com/atticus-labs/atticus-core/internal/core/domain"
)

// RetrievalService is the core's single inbound operation: hybrid
// retrieval over the case corpus with best-effort web escalation.
type RetrievalService interface {
	// Retrieve runs the full pipeline for one query and returns the
	// ordered evidence set. Fatal failures (embedding, corpus search)
	// surface as typed errors; escalation failures degrade the outcome
	// instead of failing it.
	Retrieve(ctx context.Context, q domain.Query) (*domain.RetrievalOutcome, error)
}

// AnswerService composes retrieval with answer synthesis
type AnswerService interface {
	// Ask retrieves evidence for the query and synthesizes a cited answer
	Ask(ctx context.Context, q domain.Query) (*domain.AnswerResult, error)
}
