package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/atticus-labs/atticus-core/internal/core/domain"
	"github.com/atticus-labs/atticus-core/internal/core/ports/driven"
)

// Ingester coordinates the corpus ingestion pipeline:
//  1. Pull cases from an upstream case-law source
//  2. Store each record
//  3. Embed the composed case text
//  4. Upsert the vector into the corpus index
//
// Per-case failures are counted, not fatal to the batch.
type Ingester struct {
	source    driven.CaseSource
	caseStore driven.CaseStore
	embedder  driven.EmbeddingService
	index     driven.VectorIndex
	logger    *slog.Logger
}

// IngesterConfig holds dependencies for the Ingester
type IngesterConfig struct {
	Source    driven.CaseSource
	CaseStore driven.CaseStore
	Embedder  driven.EmbeddingService
	Index     driven.VectorIndex
	Logger    *slog.Logger
}

// IngestResult summarizes one ingestion run
type IngestResult struct {
	Fetched  int
	Stored   int
	Indexed  int
	Skipped  int
	Errors   int
	Duration time.Duration
}

// NewIngester creates a new corpus ingester
func NewIngester(cfg IngesterConfig) *Ingester {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Ingester{
		source:    cfg.Source,
		caseStore: cfg.CaseStore,
		embedder:  cfg.Embedder,
		index:     cfg.Index,
		logger:    logger,
	}
}

// IngestSearch pulls cases matching the source query and indexes them
func (ing *Ingester) IngestSearch(ctx context.Context, q driven.CaseSourceQuery) (*IngestResult, error) {
	start := time.Now()
	result := &IngestResult{}

	cases, err := ing.source.SearchCases(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to search case source: %w", err)
	}
	result.Fetched = len(cases)

	for _, c := range cases {
		select {
		case <-ctx.Done():
			result.Duration = time.Since(start)
			return result, ctx.Err()
		default:
		}

		if err := ing.IngestCase(ctx, c); err != nil {
			if errors.Is(err, domain.ErrAlreadyExists) {
				result.Skipped++
				continue
			}
			ing.logger.Warn("failed to ingest case",
				"citation", c.Citation,
				"error", err,
			)
			result.Errors++
			continue
		}
		result.Stored++
		result.Indexed++
	}

	result.Duration = time.Since(start)
	ing.logger.Info("ingestion complete",
		"fetched", result.Fetched,
		"stored", result.Stored,
		"skipped", result.Skipped,
		"errors", result.Errors,
		"took", result.Duration,
	)
	return result, nil
}

// IngestCase stores and indexes a single case record
func (ing *Ingester) IngestCase(ctx context.Context, c *domain.CaseRecord) error {
	if c.Citation == "" || c.CaseName == "" {
		return fmt.Errorf("%w: case needs a name and citation", domain.ErrInvalidInput)
	}

	if existing, err := ing.caseStore.GetByCitation(ctx, c.Citation); err == nil && existing != nil {
		return domain.ErrAlreadyExists
	}

	if err := ing.caseStore.Save(ctx, c); err != nil {
		return fmt.Errorf("failed to save case: %w", err)
	}

	embedding, err := ing.embedder.EmbedCase(ctx, c)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrEmbedding, err)
	}

	if err := ing.index.Upsert(ctx, c, embedding); err != nil {
		return fmt.Errorf("failed to index case %d: %w", c.ID, err)
	}

	return nil
}
