package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/atticus-labs/atticus-core/internal/core/domain"
	"github.com/atticus-labs/atticus-core/internal/core/ports/driven"
	"github.com/atticus-labs/atticus-core/internal/core/ports/driving"
)

// Ensure retrievalService implements RetrievalService
var _ driving.RetrievalService = (*retrievalService)(nil)

// RetrievalConfig holds the tunable policy for the retrieval pipeline.
// It is threaded in at construction time, never read from ambient state,
// so tests can vary thresholds per case.
type RetrievalConfig struct {
	// Gate policy
	MinCorpusHits       int
	ConfidenceThreshold float64

	// Result limits
	DefaultLimit int
	MaxLimit     int

	// Escalation
	AllowedDomains   []string // trusted hosts eligible to contribute web evidence
	AuthorityDomains []string // hosts whose chunks get the authority boost
	AuthorityBoost   float64
	WebScoreDivisor  float64 // provider score ceiling for normalization
	MaxWebResults    int
	FetchConcurrency int

	// Per-stage timeouts
	EmbedTimeout        time.Duration
	CorpusSearchTimeout time.Duration
	WebSearchTimeout    time.Duration
	FetchTimeout        time.Duration
	QueryDeadline       time.Duration

	CacheTTL time.Duration
}

// DefaultRetrievalConfig returns sensible defaults
func DefaultRetrievalConfig() RetrievalConfig {
	return RetrievalConfig{
		MinCorpusHits:       3,
		ConfidenceThreshold: 0.7,
		DefaultLimit:        10,
		MaxLimit:            50,
		AllowedDomains: []string{
			"courtlistener.com",
			"justia.com",
			"law.cornell.edu",
			"supremecourt.gov",
			"oyez.org",
		},
		AuthorityDomains: []string{
			"supremecourt.gov",
			"law.cornell.edu",
			"courtlistener.com",
		},
		AuthorityBoost:      0.1,
		WebScoreDivisor:     1.0,
		MaxWebResults:       5,
		FetchConcurrency:    4,
		EmbedTimeout:        10 * time.Second,
		CorpusSearchTimeout: 5 * time.Second,
		WebSearchTimeout:    15 * time.Second,
		FetchTimeout:        10 * time.Second,
		QueryDeadline:       45 * time.Second,
		CacheTTL:            time.Hour,
	}
}

// retrievalService implements the hybrid retrieval pipeline:
// EMBED → CORPUS_SEARCH → GATE → [WEB_SEARCH → FETCH_EXTRACT → EMBED_CHUNKS] → MERGE.
// The escalation branch is best-effort and never blocks the corpus path:
// any failure there degrades the outcome instead of failing the query.
type retrievalService struct {
	embedder  driven.EmbeddingService
	index     driven.VectorIndex
	caseStore driven.CaseStore
	webSearch driven.WebSearcher // optional
	fetcher   driven.PageFetcher // optional
	cache     driven.OutcomeCache // optional
	cfg       RetrievalConfig
	logger    *slog.Logger
}

// RetrievalServiceConfig holds dependencies for the retrieval service
type RetrievalServiceConfig struct {
	Embedder  driven.EmbeddingService
	Index     driven.VectorIndex
	CaseStore driven.CaseStore
	WebSearch driven.WebSearcher  // nil disables escalation
	Fetcher   driven.PageFetcher  // nil disables escalation
	Cache     driven.OutcomeCache // nil disables caching
	Config    RetrievalConfig
	Logger    *slog.Logger
}

// NewRetrievalService creates the hybrid retrieval orchestrator
func NewRetrievalService(cfg RetrievalServiceConfig) driving.RetrievalService {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	rc := cfg.Config
	if rc.MinCorpusHits <= 0 {
		rc.MinCorpusHits = 3
	}
	if rc.ConfidenceThreshold <= 0 {
		rc.ConfidenceThreshold = 0.7
	}
	if rc.DefaultLimit <= 0 {
		rc.DefaultLimit = 10
	}
	if rc.MaxLimit <= 0 {
		rc.MaxLimit = 50
	}
	if rc.FetchConcurrency <= 0 {
		rc.FetchConcurrency = 4
	}

	return &retrievalService{
		embedder:  cfg.Embedder,
		index:     cfg.Index,
		caseStore: cfg.CaseStore,
		webSearch: cfg.WebSearch,
		fetcher:   cfg.Fetcher,
		cache:     cfg.Cache,
		cfg:       rc,
		logger:    logger,
	}
}

// Retrieve runs the full pipeline for one query
func (s *retrievalService) Retrieve(ctx context.Context, q domain.Query) (*domain.RetrievalOutcome, error) {
	start := time.Now()

	if err := q.Validate(); err != nil {
		return nil, err
	}
	if q.Mode == "" {
		q.Mode = domain.ModeHybrid
	}
	if q.Limit <= 0 {
		q.Limit = s.cfg.DefaultLimit
	}
	if q.Limit > s.cfg.MaxLimit {
		q.Limit = s.cfg.MaxLimit
	}

	// Cache lookup. Any cache failure is a miss.
	fingerprint := q.Fingerprint()
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, fingerprint); err == nil {
			s.logger.Debug("cache hit", "fingerprint", fingerprint)
			return cached, nil
		} else if !errors.Is(err, domain.ErrNotFound) {
			s.logger.Warn("cache read failed, treating as miss", "error", err)
		}
	}

	parent := ctx
	if s.cfg.QueryDeadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.QueryDeadline)
		defer cancel()
	}

	// EMBED: fatal on failure, nothing downstream can run without a vector
	queryVec, err := s.embedQuery(ctx, q.Text)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrEmbedding, err)
	}

	// CORPUS_SEARCH: fatal on failure
	hits, err := s.searchCorpus(ctx, queryVec, q)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCorpusSearch, err)
	}
	s.hydrateHits(ctx, hits)

	confidence := topAverageScore(hits, s.cfg.MinCorpusHits)

	// GATE_DECISION: bypassed entirely in corpus_only mode, by contract
	mode := domain.UsedCorpus
	degraded := false
	var chunks []domain.WebChunk

	if q.Mode == domain.ModeHybrid &&
		DecideEscalation(hits, s.cfg.MinCorpusHits, s.cfg.ConfidenceThreshold) == DecisionEscalate {
		chunks, err = s.escalate(ctx, q, queryVec)
		switch {
		case err != nil:
			s.logger.Warn("escalation failed, degrading to corpus-only evidence",
				"query_mode", q.Mode, "error", err)
			degraded = true
		case len(chunks) == 0:
			degraded = true
		default:
			mode = domain.UsedHybrid
		}
	}

	// MERGE
	evidence := MergeEvidence(hits, chunks, MergerConfig{
		AuthorityBoost:   s.cfg.AuthorityBoost,
		AuthorityDomains: s.cfg.AuthorityDomains,
		Limit:            q.Limit,
	})

	outcome := &domain.RetrievalOutcome{
		Evidence:   evidence,
		Mode:       mode,
		Confidence: confidence,
		Degraded:   degraded,
		Took:       time.Since(start),
	}

	if s.cache != nil {
		if err := s.cache.Put(parent, fingerprint, outcome, s.cfg.CacheTTL); err != nil {
			s.logger.Warn("cache write failed", "error", err)
		}
	}

	s.logger.Info("retrieval complete",
		"mode_requested", q.Mode,
		"mode_used", mode,
		"evidence", len(evidence),
		"confidence", confidence,
		"degraded", degraded,
		"took", outcome.Took,
	)
	return outcome, nil
}

func (s *retrievalService) embedQuery(ctx context.Context, text string) ([]float32, error) {
	if s.cfg.EmbedTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.EmbedTimeout)
		defer cancel()
	}
	return s.embedder.EmbedQuery(ctx, text)
}

func (s *retrievalService) searchCorpus(ctx context.Context, vec []float32, q domain.Query) ([]domain.CorpusHit, error) {
	if s.cfg.CorpusSearchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.CorpusSearchTimeout)
		defer cancel()
	}
	return s.index.Search(ctx, vec, q.Limit, q.Filters)
}

// hydrateHits attaches full case records where the store can resolve
// them. A missed lookup leaves the hit usable: the index payload already
// carries the citation.
func (s *retrievalService) hydrateHits(ctx context.Context, hits []domain.CorpusHit) {
	if s.caseStore == nil {
		return
	}
	for i := range hits {
		if hits[i].Case != nil {
			continue
		}
		c, err := s.caseStore.Get(ctx, hits[i].CaseID)
		if err != nil {
			s.logger.Debug("case hydration miss", "case_id", hits[i].CaseID, "error", err)
			continue
		}
		hits[i].Case = c
		if hits[i].Citation == "" {
			hits[i].Citation = c.Citation
		}
		if hits[i].CaseName == "" {
			hits[i].CaseName = c.CaseName
		}
		if hits[i].Year == 0 {
			hits[i].Year = c.Year
		}
	}
}

// escalate runs the web branch: search, parallel fetch/extract, chunk
// scoring. Per-URL failures are isolated; the caller treats an error or
// an empty result as a degraded condition, never a fatal one.
func (s *retrievalService) escalate(ctx context.Context, q domain.Query, queryVec []float32) ([]domain.WebChunk, error) {
	if s.webSearch == nil || s.fetcher == nil {
		return nil, fmt.Errorf("%w: escalation not configured", domain.ErrWebSearch)
	}

	// WEB_SEARCH
	sctx := ctx
	if s.cfg.WebSearchTimeout > 0 {
		var cancel context.CancelFunc
		sctx, cancel = context.WithTimeout(ctx, s.cfg.WebSearchTimeout)
		defer cancel()
	}
	results, err := s.webSearch.Search(sctx, q.Text, s.cfg.AllowedDomains, s.cfg.MaxWebResults)
	if err != nil {
		return nil, err
	}

	// Trust boundary: the provider was asked to restrict domains, but the
	// allow-list is enforced here regardless of what came back
	filtered := results[:0]
	for _, r := range results {
		if hostOnList(r.URL, s.cfg.AllowedDomains) {
			filtered = append(filtered, r)
		} else {
			s.logger.Warn("discarding result outside domain allow-list", "url", r.URL)
		}
	}
	if len(filtered) == 0 {
		return nil, nil
	}

	// FETCH_EXTRACT: parallel fan-out, joined under one timeout. One
	// failing URL must not fail the batch.
	fctx := ctx
	if s.cfg.FetchTimeout > 0 {
		var cancel context.CancelFunc
		fctx, cancel = context.WithTimeout(ctx, s.cfg.FetchTimeout)
		defer cancel()
	}
	docs := make([]*domain.WebDocument, len(filtered))
	g := new(errgroup.Group)
	g.SetLimit(s.cfg.FetchConcurrency)
	for i, r := range filtered {
		g.Go(func() error {
			doc, err := s.fetcher.FetchAndExtract(fctx, r.URL)
			if err != nil {
				s.logger.Warn("fetch failed, skipping url", "url", r.URL, "error", err)
				return nil
			}
			if doc.Title == "" {
				doc.Title = r.Title
			}
			docs[i] = doc
			return nil
		})
	}
	_ = g.Wait()

	var chunks []domain.WebChunk
	for i, doc := range docs {
		if doc == nil {
			continue
		}
		base := NormalizeWebScore(filtered[i].Score, s.cfg.WebScoreDivisor)
		for _, ch := range doc.Chunks {
			ch.PageTitle = doc.Title
			ch.Score = base
			chunks = append(chunks, ch)
		}
	}
	if len(chunks) == 0 {
		return nil, nil
	}

	// EMBED_CHUNKS: rescore against the query vector so web chunks share
	// the corpus similarity scale. On failure the provider-derived scores
	// stand, which keeps the branch best-effort.
	s.rescoreChunks(ctx, queryVec, chunks)

	return chunks, nil
}

func (s *retrievalService) rescoreChunks(ctx context.Context, queryVec []float32, chunks []domain.WebChunk) {
	ectx := ctx
	if s.cfg.EmbedTimeout > 0 {
		var cancel context.CancelFunc
		ectx, cancel = context.WithTimeout(ctx, s.cfg.EmbedTimeout)
		defer cancel()
	}
	texts := make([]string, len(chunks))
	for i, ch := range chunks {
		texts[i] = ch.Text
	}
	vecs, err := s.embedder.Embed(ectx, texts)
	if err != nil || len(vecs) != len(chunks) {
		s.logger.Warn("chunk embedding failed, keeping provider scores", "error", err)
		return
	}
	for i := range chunks {
		chunks[i].Score = cosineSimilarity01(queryVec, vecs[i])
	}
}
