package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/atticus-labs/atticus-core/internal/core/domain"
)

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// searchRequest is the body for POST /api/v1/search and /api/v1/answer
type searchRequest struct {
	Query string `json:"query"`
	Mode  string `json:"mode,omitempty"`
	Limit int    `json:"limit,omitempty"`

	Court        string `json:"court,omitempty"`
	Jurisdiction string `json:"jurisdiction,omitempty"`
	MinYear      int    `json:"min_year,omitempty"`
	MaxYear      int    `json:"max_year,omitempty"`
}

func (req searchRequest) toQuery() domain.Query {
	mode := domain.Mode(req.Mode)
	if req.Mode == "" {
		mode = domain.ModeHybrid
	}
	return domain.Query{
		Text:  req.Query,
		Mode:  mode,
		Limit: req.Limit,
		Filters: domain.CaseFilters{
			Court:        req.Court,
			Jurisdiction: req.Jurisdiction,
			MinYear:      req.MinYear,
			MaxYear:      req.MaxYear,
		},
	}
}

// Health endpoints

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.db != nil {
		if err := s.db.Ping(r.Context()); err != nil {
			writeError(w, http.StatusServiceUnavailable, "database unavailable")
			return
		}
	}
	if s.redisClient != nil {
		if err := s.redisClient.Ping(r.Context()); err != nil {
			writeError(w, http.StatusServiceUnavailable, "cache unavailable")
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"version": s.version})
}

// Retrieval endpoints

// handleSearch runs a retrieval query and returns the ranked evidence
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	outcome, err := s.retrievalService.Retrieve(r.Context(), req.toQuery())
	if err != nil {
		writeRetrievalError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, outcome)
}

// handleAnswer runs retrieval and synthesizes a cited answer
func (s *Server) handleAnswer(w http.ResponseWriter, r *http.Request) {
	if s.answerService == nil {
		writeError(w, http.StatusNotImplemented, "answer synthesis is not configured")
		return
	}

	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := s.answerService.Ask(r.Context(), req.toQuery())
	if err != nil {
		writeRetrievalError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// Case endpoints

func (s *Server) handleGetCase(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid case ID")
		return
	}

	c, err := s.caseStore.Get(r.Context(), id)
	if errors.Is(err, domain.ErrNotFound) {
		writeError(w, http.StatusNotFound, "case not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load case")
		return
	}

	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleListCases(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit := intParam(q.Get("limit"), 20)
	if limit > 100 {
		limit = 100
	}
	offset := intParam(q.Get("offset"), 0)

	filters := domain.CaseFilters{
		Court:        q.Get("court"),
		Jurisdiction: q.Get("jurisdiction"),
		MinYear:      intParam(q.Get("min_year"), 0),
		MaxYear:      intParam(q.Get("max_year"), 0),
	}

	cases, err := s.caseStore.List(r.Context(), filters, limit, offset)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list cases")
		return
	}
	if cases == nil {
		cases = []*domain.CaseRecord{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"cases": cases})
}

// writeRetrievalError maps core errors onto HTTP status codes
func writeRetrievalError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrEmbedding),
		errors.Is(err, domain.ErrCorpusSearch),
		errors.Is(err, domain.ErrSynthesis):
		writeError(w, http.StatusBadGateway, "retrieval backend unavailable")
	default:
		writeError(w, http.StatusInternalServerError, "search failed")
	}
}

func intParam(v string, def int) int {
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
