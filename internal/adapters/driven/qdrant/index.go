package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/atticus-labs/atticus-core/internal/core/domain"
	"github.com/atticus-labs/atticus-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.VectorIndex = (*Index)(nil)

// Index implements driven.VectorIndex using Qdrant's HTTP API
type Index struct {
	baseURL    string
	collection string
	apiKey     string
	dimensions int
	httpClient *http.Client
}

// Config holds Qdrant connection configuration
type Config struct {
	// BaseURL is the Qdrant endpoint (e.g., http://localhost:6333)
	BaseURL string

	// Collection holds case vectors
	Collection string

	// APIKey is optional for local deployments
	APIKey string

	// Dimensions of stored vectors, must match the embedding model
	Dimensions int

	// Timeout for HTTP requests
	Timeout time.Duration
}

// DefaultConfig returns sensible defaults
func DefaultConfig(baseURL string) Config {
	return Config{
		BaseURL:    baseURL,
		Collection: "legal_cases",
		Dimensions: 1536,
		Timeout:    30 * time.Second,
	}
}

// NewIndex creates a new Qdrant-backed VectorIndex
func NewIndex(cfg Config) *Index {
	if cfg.Collection == "" {
		cfg.Collection = "legal_cases"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Index{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		collection: cfg.Collection,
		apiKey:     cfg.APIKey,
		dimensions: cfg.Dimensions,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// casePayload is the metadata stored alongside each vector
type casePayload struct {
	CaseID       int64  `json:"case_id"`
	CaseName     string `json:"case_name"`
	Citation     string `json:"citation"`
	Court        string `json:"court"`
	Year         int    `json:"year"`
	Jurisdiction string `json:"jurisdiction,omitempty"`
}

type upsertRequest struct {
	Points []point `json:"points"`
}

type point struct {
	ID      int64       `json:"id"`
	Vector  []float32   `json:"vector"`
	Payload casePayload `json:"payload"`
}

type searchRequest struct {
	Vector      []float32    `json:"vector"`
	Limit       int          `json:"limit"`
	WithPayload bool         `json:"with_payload"`
	Filter      *qdrantFilter `json:"filter,omitempty"`
}

type qdrantFilter struct {
	Must []condition `json:"must"`
}

type condition struct {
	Key   string      `json:"key"`
	Match *matchValue `json:"match,omitempty"`
	Range *rangeValue `json:"range,omitempty"`
}

type matchValue struct {
	Value any `json:"value"`
}

type rangeValue struct {
	GTE *int `json:"gte,omitempty"`
	LTE *int `json:"lte,omitempty"`
}

type searchResponse struct {
	Result []struct {
		ID      int64       `json:"id"`
		Score   float64     `json:"score"`
		Payload casePayload `json:"payload"`
	} `json:"result"`
	Status any `json:"status"`
}

// EnsureCollection creates the collection if it does not exist.
// Cosine distance so scores land in a range the gate can reason about.
func (i *Index) EnsureCollection(ctx context.Context) error {
	body := map[string]any{
		"vectors": map[string]any{
			"size":     i.dimensions,
			"distance": "Cosine",
		},
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/collections/%s", i.baseURL, i.collection)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	i.setHeaders(req)

	resp, err := i.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("qdrant create collection: %w", err)
	}
	defer resp.Body.Close()

	// 409 means the collection already exists
	if resp.StatusCode >= 400 && resp.StatusCode != http.StatusConflict {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("qdrant create collection failed: %s - %s", resp.Status, string(respBody))
	}
	return nil
}

// Upsert stores or replaces the vector for a case
func (i *Index) Upsert(ctx context.Context, c *domain.CaseRecord, vector []float32) error {
	reqBody := upsertRequest{
		Points: []point{{
			ID:     c.ID,
			Vector: vector,
			Payload: casePayload{
				CaseID:       c.ID,
				CaseName:     c.CaseName,
				Citation:     c.Citation,
				Court:        c.Court,
				Year:         c.Year,
				Jurisdiction: c.Jurisdiction,
			},
		}},
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/collections/%s/points?wait=true", i.baseURL, i.collection)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	i.setHeaders(req)

	resp, err := i.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("qdrant upsert: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("qdrant upsert failed: %s - %s", resp.Status, string(respBody))
	}
	return nil
}

// Search returns the k nearest cases for a query vector, filtered by
// the optional metadata filters
func (i *Index) Search(ctx context.Context, vector []float32, k int, filters domain.CaseFilters) ([]domain.CorpusHit, error) {
	reqBody := searchRequest{
		Vector:      vector,
		Limit:       k,
		WithPayload: true,
		Filter:      buildFilter(filters),
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/collections/%s/points/search", i.baseURL, i.collection)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	i.setHeaders(req)

	resp, err := i.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("qdrant search: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("qdrant search failed: %s - %s", resp.Status, string(respBody))
	}

	var searchResp searchResponse
	if err := json.Unmarshal(respBody, &searchResp); err != nil {
		return nil, fmt.Errorf("qdrant search response: %w", err)
	}

	hits := make([]domain.CorpusHit, 0, len(searchResp.Result))
	for _, r := range searchResp.Result {
		id := r.Payload.CaseID
		if id == 0 {
			id = r.ID
		}
		hits = append(hits, domain.CorpusHit{
			CaseID:   id,
			Score:    r.Score,
			CaseName: r.Payload.CaseName,
			Citation: r.Payload.Citation,
			Court:    r.Payload.Court,
			Year:     r.Payload.Year,
		})
	}

	// Qdrant orders by score; break score ties in favor of recent cases
	sort.SliceStable(hits, func(a, b int) bool {
		if hits[a].Score != hits[b].Score {
			return hits[a].Score > hits[b].Score
		}
		return hits[a].Year > hits[b].Year
	})

	return hits, nil
}

// Delete removes a case vector from the index
func (i *Index) Delete(ctx context.Context, caseID int64) error {
	body, err := json.Marshal(map[string]any{
		"points": []int64{caseID},
	})
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/collections/%s/points/delete?wait=true", i.baseURL, i.collection)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	i.setHeaders(req)

	resp, err := i.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("qdrant delete: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("qdrant delete failed: %s - %s", resp.Status, string(respBody))
	}
	return nil
}

// HealthCheck verifies the collection is reachable
func (i *Index) HealthCheck(ctx context.Context) error {
	url := fmt.Sprintf("%s/collections/%s", i.baseURL, i.collection)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	i.setHeaders(req)

	resp, err := i.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("qdrant unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("qdrant collection %s: %s", i.collection, resp.Status)
	}
	return nil
}

func (i *Index) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	if i.apiKey != "" {
		req.Header.Set("api-key", i.apiKey)
	}
}

func buildFilter(f domain.CaseFilters) *qdrantFilter {
	if f.Empty() {
		return nil
	}
	var must []condition
	if f.Court != "" {
		must = append(must, condition{Key: "court", Match: &matchValue{Value: f.Court}})
	}
	if f.Jurisdiction != "" {
		must = append(must, condition{Key: "jurisdiction", Match: &matchValue{Value: f.Jurisdiction}})
	}
	if f.MinYear > 0 || f.MaxYear > 0 {
		r := &rangeValue{}
		if f.MinYear > 0 {
			v := f.MinYear
			r.GTE = &v
		}
		if f.MaxYear > 0 {
			v := f.MaxYear
			r.LTE = &v
		}
		must = append(must, condition{Key: "year", Range: r})
	}
	return &qdrantFilter{Must: must}
}
