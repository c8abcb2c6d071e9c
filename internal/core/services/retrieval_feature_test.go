package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"testing"

	"github.com/cucumber/godog"

	"github.com/atticus-labs/atticus-core/internal/core/domain"
	"github.com/atticus-labs/atticus-core/internal/core/ports/driving"
)

// retrievalScenario holds per-scenario state for the feature suite.
type retrievalScenario struct {
	fixture *retrievalFixture
	service driving.RetrievalService
	outcome *domain.RetrievalOutcome
	err     error
}

func TestRetrievalFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: initializeRetrievalScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features"},
			TestingT: t,
		},
	}
	if suite.Run() != 0 {
		t.Fatal("feature suite failed")
	}
}

func initializeRetrievalScenario(sc *godog.ScenarioContext) {
	s := &retrievalScenario{}

	sc.Before(func(ctx context.Context, _ *godog.Scenario) (context.Context, error) {
		s.fixture = newRetrievalFixture()
		s.service = nil
		s.outcome = nil
		s.err = nil
		return ctx, nil
	})

	sc.Step(`^the corpus returns hits scored ([\d., ]+)$`, s.corpusReturnsHits)
	sc.Step(`^the web search returns a page from "([^"]+)"$`, s.webReturnsPage)
	sc.Step(`^the web search is failing$`, s.webSearchFailing)
	sc.Step(`^I retrieve "([^"]+)" in "([^"]+)" mode$`, s.retrieveQuery)
	sc.Step(`^the web is never searched$`, s.webNeverSearched)
	sc.Step(`^the web is searched once$`, s.webSearchedOnce)
	sc.Step(`^the corpus is searched once$`, s.corpusSearchedOnce)
	sc.Step(`^the outcome mode is "([^"]+)"$`, s.outcomeModeIs)
	sc.Step(`^the outcome is degraded$`, s.outcomeDegraded)
	sc.Step(`^the outcome is not degraded$`, s.outcomeNotDegraded)
	sc.Step(`^the evidence contains (\d+) items$`, s.evidenceContains)
}

func (s *retrievalScenario) corpusReturnsHits(scoreList string) error {
	var scores []float64
	for _, part := range strings.Split(scoreList, ",") {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return fmt.Errorf("bad score %q: %w", part, err)
		}
		scores = append(scores, v)
	}
	s.fixture.index.Hits = corpusHits(scores...)
	return nil
}

func (s *retrievalScenario) webReturnsPage(url string) error {
	s.fixture.webSearch.Results = []domain.WebSearchResult{
		{URL: url, Title: "Case summary", Score: 0.8},
	}
	s.fixture.fetcher.AddPage(url, "Case summary", "The court held that the claim fails.")
	return nil
}

func (s *retrievalScenario) webSearchFailing() error {
	s.fixture.webSearch.Err = errors.New("provider unreachable")
	return nil
}

func (s *retrievalScenario) retrieveQuery(text, mode string) error {
	if s.service == nil {
		s.service = s.fixture.service()
	}
	s.outcome, s.err = s.service.Retrieve(context.Background(), domain.Query{
		Text: text,
		Mode: domain.Mode(mode),
	})
	if s.err != nil {
		return fmt.Errorf("retrieve failed: %w", s.err)
	}
	return nil
}

func (s *retrievalScenario) webNeverSearched() error {
	if n := s.fixture.webSearch.Calls(); n != 0 {
		return fmt.Errorf("expected no web searches, got %d", n)
	}
	return nil
}

func (s *retrievalScenario) webSearchedOnce() error {
	if n := s.fixture.webSearch.Calls(); n != 1 {
		return fmt.Errorf("expected one web search, got %d", n)
	}
	return nil
}

func (s *retrievalScenario) corpusSearchedOnce() error {
	if n := s.fixture.index.SearchCalls; n != 1 {
		return fmt.Errorf("expected one corpus search, got %d", n)
	}
	return nil
}

func (s *retrievalScenario) outcomeModeIs(mode string) error {
	if s.outcome == nil {
		return errors.New("no outcome recorded")
	}
	if string(s.outcome.Mode) != mode {
		return fmt.Errorf("expected mode %q, got %q", mode, s.outcome.Mode)
	}
	return nil
}

func (s *retrievalScenario) outcomeDegraded() error {
	if s.outcome == nil {
		return errors.New("no outcome recorded")
	}
	if !s.outcome.Degraded {
		return errors.New("expected a degraded outcome")
	}
	return nil
}

func (s *retrievalScenario) outcomeNotDegraded() error {
	if s.outcome == nil {
		return errors.New("no outcome recorded")
	}
	if s.outcome.Degraded {
		return errors.New("outcome must not be degraded")
	}
	return nil
}

func (s *retrievalScenario) evidenceContains(n int) error {
	if s.outcome == nil {
		return errors.New("no outcome recorded")
	}
	if len(s.outcome.Evidence) != n {
		return fmt.Errorf("expected %d evidence items, got %d", n, len(s.outcome.Evidence))
	}
	return nil
}
