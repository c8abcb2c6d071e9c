package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/atticus-labs/atticus-core/internal/adapters/driven/ai"
	"github.com/atticus-labs/atticus-core/internal/adapters/driven/fetch"
	"github.com/atticus-labs/atticus-core/internal/adapters/driven/postgres"
	"github.com/atticus-labs/atticus-core/internal/adapters/driven/qdrant"
	redisadapter "github.com/atticus-labs/atticus-core/internal/adapters/driven/redis"
	"github.com/atticus-labs/atticus-core/internal/adapters/driven/tavily"
	httpadapter "github.com/atticus-labs/atticus-core/internal/adapters/driving/http"
	"github.com/atticus-labs/atticus-core/internal/config"
	"github.com/atticus-labs/atticus-core/internal/core/ports/driven"
	"github.com/atticus-labs/atticus-core/internal/core/ports/driving"
	"github.com/atticus-labs/atticus-core/internal/core/services"
)

var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.Logging)
	slog.SetDefault(logger)
	logger.Info("atticus-core starting", "version", version)

	ctx := context.Background()

	// ===== PostgreSQL =====
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
	logger.Info("postgres connected")

	// ===== Redis (optional) =====
	var outcomeCache driven.OutcomeCache
	var redisPinger httpadapter.Pinger
	if cfg.Redis.Address != "" {
		redisClient := goredis.NewClient(&goredis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Error("failed to connect to redis", "error", err)
			os.Exit(1)
		}
		defer redisClient.Close()
		outcomeCache = redisadapter.NewOutcomeCache(redisClient)
		redisPinger = redisPing{redisClient}
		logger.Info("redis connected", "addr", cfg.Redis.Address)
	} else {
		logger.Info("redis not configured, outcome caching disabled")
	}

	// ===== Qdrant =====
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
		logger.Warn("qdrant collection setup failed, corpus search may not work", "error", err)
	} else {
		logger.Info("qdrant connected", "collection", qdrantCfg.Collection)
	}

	// ===== Web escalation (optional) =====
	var webSearch driven.WebSearcher
	var fetcher driven.PageFetcher
	if cfg.Tavily.APIKey != "" {
		webSearch, err = tavily.NewClient(tavily.Config{APIKey: cfg.Tavily.APIKey})
		if err != nil {
			logger.Error("failed to create web search client", "error", err)
			os.Exit(1)
		}
		fetchCfg := fetch.DefaultConfig()
		fetchCfg.MaxBytes = cfg.Retrieval.FetchMaxBytes
		fetchCfg.ChunkMaxWords = cfg.Retrieval.ChunkMaxWords
		fetcher = fetch.NewFetcher(fetchCfg)
		logger.Info("web escalation enabled")
	} else {
		logger.Info("tavily not configured, web escalation disabled")
	}

	// ===== Core services =====
	caseStore := postgres.NewCaseStore(db)

	retrievalCfg := services.DefaultRetrievalConfig()
	retrievalCfg.ConfidenceThreshold = cfg.Retrieval.ConfidenceThreshold
	retrievalCfg.MinCorpusHits = cfg.Retrieval.MinCorpusHits
	retrievalCfg.DefaultLimit = cfg.Retrieval.ResultLimitDefault
	retrievalCfg.MaxLimit = cfg.Retrieval.ResultLimitMax
	retrievalCfg.AuthorityBoost = cfg.Retrieval.AuthorityBoost
	retrievalCfg.FetchConcurrency = cfg.Retrieval.FetchConcurrency
	retrievalCfg.CacheTTL = cfg.Retrieval.CacheTTL
	retrievalCfg.QueryDeadline = cfg.Retrieval.QueryDeadline
	if len(cfg.Retrieval.AllowedDomains) > 0 {
		retrievalCfg.AllowedDomains = cfg.Retrieval.AllowedDomains
	}

	retrievalService := services.NewRetrievalService(services.RetrievalServiceConfig{
		Embedder:  embedder,
		Index:     index,
		CaseStore: caseStore,
		WebSearch: webSearch,
		Fetcher:   fetcher,
		Cache:     outcomeCache,
		Config:    retrievalCfg,
		Logger:    logger,
	})

	var answerService driving.AnswerService
	if cfg.LLM.APIKey != "" {
		llm, err := ai.NewDeepSeekLLM(ai.LLMConfig{
			APIKey:      cfg.LLM.APIKey,
			Model:       cfg.LLM.Model,
			BaseURL:     cfg.LLM.BaseURL,
			Temperature: cfg.LLM.Temperature,
		})
		if err != nil {
			logger.Error("failed to create LLM service", "error", err)
			os.Exit(1)
		}
		defer llm.Close()
		answerService = services.NewAnswerService(retrievalService, llm, logger)
		logger.Info("answer synthesis enabled", "model", llm.Model())
	} else {
		logger.Info("LLM not configured, answer synthesis disabled")
	}

	// ===== HTTP server =====
	server := httpadapter.NewServer(
		httpadapter.Config{
			Host:    cfg.Server.Host,
			Port:    cfg.Server.Port,
			Version: version,
		},
		retrievalService,
		answerService,
		caseStore,
		db,
		redisPinger,
		logger,
	)

	if err := server.Start(); err != nil {
		logger.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}

// redisPing adapts a redis client to the health check interface
type redisPing struct {
	client *goredis.Client
}

func (p redisPing) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return p.client.Ping(ctx).Err()
}

func newLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "text" {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}
