package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/atticus-labs/atticus-core/internal/core/domain"
	"github.com/atticus-labs/atticus-core/internal/core/ports/driven"
	"github.com/atticus-labs/atticus-core/internal/core/ports/driving"
)

// Ensure answerService implements AnswerService
var _ driving.AnswerService = (*answerService)(nil)

// answerService composes retrieval with answer synthesis. The retrieval
// core never depends on the LLM; this service sits at the outer boundary.
type answerService struct {
	retrieval driving.RetrievalService
	llm       driven.LLMService
	logger    *slog.Logger
}

// NewAnswerService creates a new AnswerService
func NewAnswerService(retrieval driving.RetrievalService, llm driven.LLMService, logger *slog.Logger) driving.AnswerService {
	if logger == nil {
		logger = slog.Default()
	}
	return &answerService{
		retrieval: retrieval,
		llm:       llm,
		logger:    logger,
	}
}

// Ask retrieves evidence for the query and synthesizes a cited answer
func (s *answerService) Ask(ctx context.Context, q domain.Query) (*domain.AnswerResult, error) {
	outcome, err := s.retrieval.Retrieve(ctx, q)
	if err != nil {
		return nil, err
	}

	answer, err := s.llm.Synthesize(ctx, q.Text, outcome.Evidence)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSynthesis, err)
	}

	s.logger.Info("answer synthesized",
		"model", answer.Model,
		"sources", len(outcome.Evidence),
		"citations_used", len(answer.CitationsUsed),
	)

	return &domain.AnswerResult{
		Answer:  *answer,
		Outcome: outcome,
	}, nil
}
