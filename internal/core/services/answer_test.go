package services

import (
	"context"
	"errors"
	"testing"

	"github.com/atticus-labs/atticus-core/internal/core/domain"
	"github.com/atticus-labs/atticus-core/internal/core/ports/driven/mocks"
)

func TestAnswerService_Ask(t *testing.T) {
	f := newRetrievalFixture()
	f.index.Hits = corpusHits(0.9, 0.85, 0.8)
	llm := mocks.NewMockLLMService()
	svc := NewAnswerService(f.service(), llm, nil)

	result, err := svc.Ask(context.Background(), domain.Query{
		Text: "what is the exclusionary rule",
		Mode: domain.ModeHybrid,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if llm.SynthesizeCalls != 1 {
		t.Errorf("expected one synthesis call, got %d", llm.SynthesizeCalls)
	}
	if llm.LastQuestion != "what is the exclusionary rule" {
		t.Errorf("question not passed through, got %q", llm.LastQuestion)
	}
	if result.Answer.Text == "" {
		t.Error("expected non-empty answer text")
	}
	if len(result.Answer.CitationsUsed) != len(result.Outcome.Evidence) {
		t.Errorf("mock cites every item: expected %d citations, got %d",
			len(result.Outcome.Evidence), len(result.Answer.CitationsUsed))
	}
	if result.Outcome == nil || result.Outcome.Mode != domain.UsedCorpus {
		t.Error("expected the retrieval outcome attached to the result")
	}
}

func TestAnswerService_RetrievalErrorPassesThrough(t *testing.T) {
	f := newRetrievalFixture()
	f.index.SearchErr = errors.New("index offline")
	svc := NewAnswerService(f.service(), mocks.NewMockLLMService(), nil)

	_, err := svc.Ask(context.Background(), domain.Query{Text: "anything", Mode: domain.ModeHybrid})
	if !errors.Is(err, domain.ErrCorpusSearch) {
		t.Errorf("expected ErrCorpusSearch, got %v", err)
	}
}

func TestAnswerService_SynthesisFailure(t *testing.T) {
	f := newRetrievalFixture()
	f.index.Hits = corpusHits(0.9, 0.85, 0.8)
	llm := mocks.NewMockLLMService()
	llm.Err = errors.New("model overloaded")
	svc := NewAnswerService(f.service(), llm, nil)

	_, err := svc.Ask(context.Background(), domain.Query{Text: "anything", Mode: domain.ModeHybrid})
	if !errors.Is(err, domain.ErrSynthesis) {
		t.Errorf("expected ErrSynthesis, got %v", err)
	}
}
