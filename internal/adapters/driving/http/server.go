package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/atticus-labs/atticus-core/internal/core/ports/driven"
	"github.com/atticus-labs/atticus-core/internal/core/ports/driving"
)

// Pinger is a simple health check interface
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server represents the HTTP server
type Server struct {
	httpServer *http.Server
	router     *http.ServeMux
	version    string
	logger     *slog.Logger

	// Services
	retrievalService driving.RetrievalService
	answerService    driving.AnswerService // optional
	caseStore        driven.CaseStore

	// Infrastructure
	db          Pinger // PostgreSQL health check
	redisClient Pinger // Redis health check (optional)
}

// Config holds server configuration
type Config struct {
	Host    string
	Port    int
	Version string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Host:    "0.0.0.0",
		Port:    8080,
		Version: "dev",
	}
}

// NewServer creates a new HTTP server
func NewServer(
	cfg Config,
	retrievalService driving.RetrievalService,
	answerService driving.AnswerService, // can be nil
	caseStore driven.CaseStore,
	db Pinger,
	redisClient Pinger, // can be nil
	logger *slog.Logger,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		router:           http.NewServeMux(),
		version:          cfg.Version,
		logger:           logger,
		retrievalService: retrievalService,
		answerService:    answerService,
		caseStore:        caseStore,
		db:               db,
		redisClient:      redisClient,
	}

	logging := NewLoggingMiddleware(logger)
	recovery := NewRecoveryMiddleware(logger)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      recovery.Handler(logging.Handler(s.router)),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	// Health endpoints
	s.router.HandleFunc("GET /health", s.handleHealth)
	s.router.HandleFunc("GET /ready", s.handleReady)
	s.router.HandleFunc("GET /version", s.handleVersion)

	// Retrieval endpoints
	s.router.HandleFunc("POST /api/v1/search", s.handleSearch)
	s.router.HandleFunc("POST /api/v1/answer", s.handleAnswer)

	// Case endpoints
	s.router.HandleFunc("GET /api/v1/cases/{id}", s.handleGetCase)
	s.router.HandleFunc("GET /api/v1/cases", s.handleListCases)
}

// Start starts the HTTP server with graceful shutdown
func (s *Server) Start() error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting server", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-stop:
	}
	s.logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	s.logger.Info("server stopped")
	return nil
}

// Stop stops the server
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Handler exposes the underlying router for tests
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}
