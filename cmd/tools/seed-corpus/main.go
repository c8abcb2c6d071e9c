// seed-corpus pulls case law from CourtListener and loads it into the
// case store and vector index.
//
// Usage:
//
//	seed-corpus -query "qualified immunity" -court scotus -max 50
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/atticus-labs/atticus-core/internal/adapters/driven/ai"
	"github.com/atticus-labs/atticus-core/internal/adapters/driven/courtlistener"
	"github.com/atticus-labs/atticus-core/internal/adapters/driven/postgres"
	"github.com/atticus-labs/atticus-core/internal/adapters/driven/qdrant"
	"github.com/atticus-labs/atticus-core/internal/config"
	"github.com/atticus-labs/atticus-core/internal/core/ports/driven"
	"github.com/atticus-labs/atticus-core/internal/core/services"
)

func main() {
	var (
		query   = flag.String("query", "", "search query for cases to ingest (required)")
		court   = flag.String("court", "", "court identifier, e.g. scotus")
		minYear = flag.Int("min-year", 0, "only cases filed in or after this year")
		max     = flag.Int("max", 20, "maximum number of cases to ingest")
		token   = flag.String("token", os.Getenv("COURTLISTENER_TOKEN"), "CourtListener API token")
		timeout = flag.Duration("timeout", 10*time.Minute, "overall run deadline")
	)
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	if *query == "" {
		logger.Error("-query is required")
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	db, err := postgres.Connect(ctx, postgres.DefaultConfig(cfg.Database.URL))
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.InitSchema(ctx); err != nil {
		logger.Error("failed to initialize schema", "error", err)
		os.Exit(1)
	}

	embedder, err := ai.NewOpenAIEmbedding(ai.Config{
		APIKey:  cfg.Embedding.APIKey,
		Model:   cfg.Embedding.Model,
		BaseURL: cfg.Embedding.BaseURL,
	})
	if err != nil {
		logger.Error("failed to create embedding service", "error", err)
		os.Exit(1)
	}
	defer embedder.Close()

	qdrantCfg := qdrant.DefaultConfig(cfg.Qdrant.URL)
	qdrantCfg.Collection = cfg.Qdrant.Collection
	qdrantCfg.APIKey = cfg.Qdrant.APIKey
	qdrantCfg.Dimensions = embedder.Dimensions()
	index := qdrant.NewIndex(qdrantCfg)

	if err := index.EnsureCollection(ctx); err != nil {
		logger.Error("failed to set up qdrant collection", "error", err)
		os.Exit(1)
	}

	ingester := services.NewIngester(services.IngesterConfig{
		Source:    courtlistener.NewClient(courtlistener.Config{Token: *token}),
		CaseStore: postgres.NewCaseStore(db),
		Embedder:  embedder,
		Index:     index,
		Logger:    logger,
	})

	result, err := ingester.IngestSearch(ctx, driven.CaseSourceQuery{
		Search:     *query,
		Court:      *court,
		MinYear:    *minYear,
		MaxResults: *max,
	})
	if err != nil {
		logger.Error("ingestion failed", "error", err)
		os.Exit(1)
	}

	logger.Info("ingestion complete",
		"fetched", result.Fetched,
		"stored", result.Stored,
		"indexed", result.Indexed,
		"skipped", result.Skipped,
		"errors", result.Errors,
		"duration", result.Duration,
	)
}
