package services

import (
	"context"
	"errors"
	"testing"

	"github.com/atticus-labs/atticus-core/internal/core/domain"
	"github.com/atticus-labs/atticus-core/internal/core/ports/driven/mocks"
	"github.com/atticus-labs/atticus-core/internal/core/ports/driving"
)

type retrievalFixture struct {
	embedder  *mocks.MockEmbeddingService
	index     *mocks.MockVectorIndex
	caseStore *mocks.MockCaseStore
	webSearch *mocks.MockWebSearcher
	fetcher   *mocks.MockPageFetcher
	cache     *mocks.MockOutcomeCache
}

func newRetrievalFixture() *retrievalFixture {
	return &retrievalFixture{
		embedder:  mocks.NewMockEmbeddingService(),
		index:     mocks.NewMockVectorIndex(),
		caseStore: mocks.NewMockCaseStore(),
		webSearch: mocks.NewMockWebSearcher(),
		fetcher:   mocks.NewMockPageFetcher(),
		cache:     mocks.NewMockOutcomeCache(),
	}
}

func (f *retrievalFixture) service() driving.RetrievalService {
	return NewRetrievalService(RetrievalServiceConfig{
		Embedder:  f.embedder,
		Index:     f.index,
		CaseStore: f.caseStore,
		WebSearch: f.webSearch,
		Fetcher:   f.fetcher,
		Cache:     f.cache,
	})
}

func retrieve(t *testing.T, svc driving.RetrievalService, q domain.Query) *domain.RetrievalOutcome {
	t.Helper()
	out, err := svc.Retrieve(context.Background(), q)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return out
}

func corpusHits(scores ...float64) []domain.CorpusHit {
	hits := make([]domain.CorpusHit, len(scores))
	for i, s := range scores {
		hits[i] = domain.CorpusHit{
			CaseID:   int64(i + 1),
			Score:    s,
			CaseName: "Case v. Case",
			Citation: "100 U.S. 1",
			Year:     1990 + i,
		}
	}
	return hits
}

func TestRetrieve_SufficientCorpusSkipsWeb(t *testing.T) {
	f := newRetrievalFixture()
	f.index.Hits = corpusHits(0.9, 0.85, 0.8)
	svc := f.service()

	out := retrieve(t, svc, domain.Query{Text: "fourth amendment searches", Mode: domain.ModeHybrid})

	if f.webSearch.Calls() != 0 {
		t.Errorf("web search must not run when corpus is sufficient, got %d calls", f.webSearch.Calls())
	}
	if out.Mode != domain.UsedCorpus {
		t.Errorf("expected used mode %q, got %q", domain.UsedCorpus, out.Mode)
	}
	if out.Degraded {
		t.Error("sufficient corpus outcome must not be degraded")
	}
	if len(out.Evidence) != 3 {
		t.Errorf("expected 3 evidence items, got %d", len(out.Evidence))
	}
	if out.Confidence < 0.849 || out.Confidence > 0.851 {
		t.Errorf("expected confidence ~0.85, got %f", out.Confidence)
	}
}

func TestRetrieve_SingleStrongHitStillEscalates(t *testing.T) {
	f := newRetrievalFixture()
	f.index.Hits = corpusHits(0.95)
	f.webSearch.Results = []domain.WebSearchResult{
		{URL: "https://www.oyez.org/cases/1", Title: "Case summary", Score: 0.8},
	}
	f.fetcher.AddPage("https://www.oyez.org/cases/1", "Case summary", "The court held that...")
	svc := f.service()

	out := retrieve(t, svc, domain.Query{Text: "qualified immunity standard", Mode: domain.ModeHybrid})

	if f.webSearch.Calls() != 1 {
		t.Fatalf("expected exactly one web search, got %d", f.webSearch.Calls())
	}
	if out.Mode != domain.UsedHybrid {
		t.Errorf("expected used mode %q, got %q", domain.UsedHybrid, out.Mode)
	}
}

func TestRetrieve_WebFailureDegradesToCorpus(t *testing.T) {
	f := newRetrievalFixture()
	f.index.Hits = corpusHits(0.5, 0.4, 0.3)
	f.webSearch.Err = errors.New("provider unreachable")
	svc := f.service()

	out := retrieve(t, svc, domain.Query{Text: "obscure doctrine", Mode: domain.ModeHybrid})

	if !out.Degraded {
		t.Error("expected degraded outcome after web failure")
	}
	if out.Mode != domain.UsedCorpus {
		t.Errorf("expected used mode %q, got %q", domain.UsedCorpus, out.Mode)
	}
	if len(out.Evidence) != 3 {
		t.Errorf("corpus evidence must survive the failed escalation, got %d items", len(out.Evidence))
	}
}

func TestRetrieve_CorpusOnlyNeverEscalates(t *testing.T) {
	f := newRetrievalFixture()
	f.index.Hits = corpusHits(0.2) // far below any sufficiency bar
	svc := f.service()

	out := retrieve(t, svc, domain.Query{Text: "anything at all", Mode: domain.ModeCorpusOnly})

	if f.webSearch.Calls() != 0 {
		t.Errorf("corpus_only must never call web search, got %d calls", f.webSearch.Calls())
	}
	if out.Mode != domain.UsedCorpus {
		t.Errorf("expected used mode %q, got %q", domain.UsedCorpus, out.Mode)
	}
	if out.Degraded {
		t.Error("corpus_only outcomes are never degraded")
	}
}

func TestRetrieve_CacheHitSkipsAllUpstreams(t *testing.T) {
	f := newRetrievalFixture()
	f.index.Hits = corpusHits(0.9, 0.85, 0.8)
	svc := f.service()

	q := domain.Query{Text: "miranda warnings", Mode: domain.ModeHybrid}
	first := retrieve(t, svc, q)

	searchesBefore := f.index.SearchCalls
	queriesBefore := f.embedder.QueryCalls

	second := retrieve(t, svc, q)

	if f.index.SearchCalls != searchesBefore {
		t.Error("cache hit must not touch the vector index")
	}
	if f.embedder.QueryCalls != queriesBefore {
		t.Error("cache hit must not embed the query")
	}
	if len(second.Evidence) != len(first.Evidence) {
		t.Errorf("cached outcome differs: %d vs %d items", len(second.Evidence), len(first.Evidence))
	}
}

func TestRetrieve_FingerprintNormalization(t *testing.T) {
	f := newRetrievalFixture()
	f.index.Hits = corpusHits(0.9, 0.85, 0.8)
	svc := f.service()

	retrieve(t, svc, domain.Query{Text: "Miranda Warnings", Mode: domain.ModeHybrid})
	queriesBefore := f.embedder.QueryCalls

	// Differs only in case and surrounding whitespace
	retrieve(t, svc, domain.Query{Text: "  miranda warnings ", Mode: domain.ModeHybrid})

	if f.embedder.QueryCalls != queriesBefore {
		t.Error("normalized-equal queries must share a cache entry")
	}
}

func TestRetrieve_CacheFailureIsAMiss(t *testing.T) {
	f := newRetrievalFixture()
	f.index.Hits = corpusHits(0.9, 0.85, 0.8)
	f.cache.Err = errors.New("redis down")
	svc := f.service()

	out := retrieve(t, svc, domain.Query{Text: "due process", Mode: domain.ModeHybrid})

	if len(out.Evidence) == 0 {
		t.Error("cache failure must not fail the query")
	}
}

func TestRetrieve_FetchFailureIsolation(t *testing.T) {
	f := newRetrievalFixture()
	f.index.Hits = corpusHits(0.3)
	f.webSearch.Results = []domain.WebSearchResult{
		{URL: "https://www.justia.com/a", Title: "A", Score: 0.9},
		{URL: "https://www.justia.com/b", Title: "B", Score: 0.8},
		{URL: "https://www.justia.com/c", Title: "C", Score: 0.7},
	}
	f.fetcher.AddPage("https://www.justia.com/a", "A", "alpha content")
	f.fetcher.AddPage("https://www.justia.com/c", "C", "charlie content")
	f.fetcher.FailURLs["https://www.justia.com/b"] = true
	svc := f.service()

	out := retrieve(t, svc, domain.Query{Text: "some doctrine", Mode: domain.ModeHybrid})

	if out.Mode != domain.UsedHybrid {
		t.Fatalf("expected hybrid outcome, got %q", out.Mode)
	}
	var webItems int
	for _, it := range out.Evidence {
		if it.Kind == domain.SourceWeb {
			webItems++
		}
	}
	if webItems != 2 {
		t.Errorf("expected chunks from the 2 fetchable pages, got %d web items", webItems)
	}
}

func TestRetrieve_AllowlistEnforcedOnResults(t *testing.T) {
	f := newRetrievalFixture()
	f.index.Hits = corpusHits(0.3)
	f.webSearch.Results = []domain.WebSearchResult{
		{URL: "https://evil.example.com/spoof", Title: "Spoof", Score: 0.99},
		{URL: "https://www.law.cornell.edu/wex/x", Title: "Wex", Score: 0.6},
	}
	f.fetcher.AddPage("https://evil.example.com/spoof", "Spoof", "untrusted")
	f.fetcher.AddPage("https://www.law.cornell.edu/wex/x", "Wex", "trusted text")
	svc := f.service()

	out := retrieve(t, svc, domain.Query{Text: "spoofed result", Mode: domain.ModeHybrid})

	for _, it := range out.Evidence {
		if it.Kind == domain.SourceWeb && it.Web.URL == "https://evil.example.com/spoof" {
			t.Fatal("off-allowlist result reached the evidence set")
		}
	}
}

func TestRetrieve_EmptyWebResultsDegrade(t *testing.T) {
	f := newRetrievalFixture()
	f.index.Hits = corpusHits(0.3)
	// No results configured: the provider returns an empty set
	svc := f.service()

	out := retrieve(t, svc, domain.Query{Text: "nothing on the web", Mode: domain.ModeHybrid})

	if !out.Degraded {
		t.Error("empty web evidence on an escalated query is a degraded outcome")
	}
	if out.Mode != domain.UsedCorpus {
		t.Errorf("expected used mode %q, got %q", domain.UsedCorpus, out.Mode)
	}
}

func TestRetrieve_InvalidInput(t *testing.T) {
	svc := newRetrievalFixture().service()

	cases := []domain.Query{
		{Text: "", Mode: domain.ModeHybrid},
		{Text: "   ", Mode: domain.ModeHybrid},
		{Text: "ok", Mode: "both"},
		{Text: "ok", Limit: -5},
	}
	for _, q := range cases {
		_, err := svc.Retrieve(context.Background(), q)
		if !errors.Is(err, domain.ErrInvalidInput) {
			t.Errorf("query %+v: expected ErrInvalidInput, got %v", q, err)
		}
	}
}

func TestRetrieve_EmbeddingFailureIsFatal(t *testing.T) {
	f := newRetrievalFixture()
	f.embedder.FailNext = true
	svc := f.service()

	_, err := svc.Retrieve(context.Background(), domain.Query{Text: "anything", Mode: domain.ModeHybrid})
	if !errors.Is(err, domain.ErrEmbedding) {
		t.Errorf("expected ErrEmbedding, got %v", err)
	}
}

func TestRetrieve_CorpusSearchFailureIsFatal(t *testing.T) {
	f := newRetrievalFixture()
	f.index.SearchErr = errors.New("index offline")
	svc := f.service()

	_, err := svc.Retrieve(context.Background(), domain.Query{Text: "anything", Mode: domain.ModeHybrid})
	if !errors.Is(err, domain.ErrCorpusSearch) {
		t.Errorf("expected ErrCorpusSearch, got %v", err)
	}
}

func TestRetrieve_LimitClamping(t *testing.T) {
	f := newRetrievalFixture()
	f.index.Hits = corpusHits(0.9, 0.85, 0.8)
	svc := f.service()

	out := retrieve(t, svc, domain.Query{Text: "broad query", Mode: domain.ModeHybrid, Limit: 10_000})

	if len(out.Evidence) > 50 {
		t.Errorf("limit must clamp to the maximum, got %d items", len(out.Evidence))
	}
}

func TestRetrieve_HydratesCaseRecords(t *testing.T) {
	f := newRetrievalFixture()
	c := &domain.CaseRecord{CaseName: "Marbury v. Madison", Citation: "5 U.S. 137", Year: 1803}
	_ = f.caseStore.Save(context.Background(), c)
	f.index.Hits = []domain.CorpusHit{
		{CaseID: c.ID, Score: 0.9},
		{CaseID: c.ID, Score: 0.85},
		{CaseID: c.ID, Score: 0.8},
	}
	svc := f.service()

	out := retrieve(t, svc, domain.Query{Text: "judicial review", Mode: domain.ModeHybrid})

	first := out.Evidence[0]
	if first.Corpus.Case == nil {
		t.Fatal("expected hydrated case record")
	}
	if first.Corpus.Citation != "5 U.S. 137" {
		t.Errorf("expected citation backfilled from the store, got %q", first.Corpus.Citation)
	}
}
