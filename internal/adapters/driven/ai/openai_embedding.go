package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/atticus-labs/atticus-core/internal/core/domain"
	"github.com/atticus-labs/atticus-core/internal/core/ports/driven"
)

// Ensure OpenAIEmbedding implements EmbeddingService
var _ driven.EmbeddingService = (*OpenAIEmbedding)(nil)

// queryInstruction is prepended to search queries for BGE-family models,
// which are trained with an asymmetric query/document scheme. Documents
// are embedded without a prefix.
const queryInstruction = "Represent this sentence for searching relevant passages: "

// maxReasoningChars bounds the reasoning field when composing a case
// document, so the most topical fields survive any model truncation
const maxReasoningChars = 2000

// OpenAIEmbedding implements EmbeddingService against an
// OpenAI-compatible embeddings endpoint
type OpenAIEmbedding struct {
	apiKey     string
	model      string
	baseURL    string
	dimensions int
	client     *http.Client
}

// Model dimensions for known embedding models
var modelDimensions = map[string]int{
	"text-embedding-3-small": 1536,
	"text-embedding-3-large": 3072,
	"text-embedding-ada-002": 1536,
	"bge-small-en-v1.5":      384,
	"bge-base-en-v1.5":       768,
}

// Config holds embedding provider configuration
type Config struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
}

// NewOpenAIEmbedding creates a new embedding service
func NewOpenAIEmbedding(cfg Config) (driven.EmbeddingService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("embedding API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = "text-embedding-3-small"
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}

	dimensions, ok := modelDimensions[cfg.Model]
	if !ok {
		dimensions = 1536
	}

	return &OpenAIEmbedding{
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		dimensions: dimensions,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
	}, nil
}

// embeddingRequest is the request body for the embeddings endpoint
type embeddingRequest struct {
	Input          []string `json:"input"`
	Model          string   `json:"model"`
	EncodingFormat string   `json:"encoding_format,omitempty"`
}

// embeddingResponse is the response from the embeddings endpoint
type embeddingResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
	Model string `json:"model"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error,omitempty"`
}

// Embed generates embeddings for multiple document texts
func (e *OpenAIEmbedding) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	resp, err := e.doRequest(ctx, embeddingRequest{
		Input:          texts,
		Model:          e.model,
		EncodingFormat: "float",
	})
	if err != nil {
		return nil, err
	}

	// Sort by index to ensure order matches input
	embeddings := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if d.Index < len(embeddings) {
			embeddings[d.Index] = d.Embedding
		}
	}
	return embeddings, nil
}

// EmbedQuery generates an embedding for a search query. Deterministic
// for identical input under an identical model configuration, which the
// fingerprint cache relies on.
func (e *OpenAIEmbedding) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	text := query
	if strings.Contains(e.model, "bge") {
		text = queryInstruction + query
	}
	embeddings, err := e.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(embeddings) == 0 {
		return nil, fmt.Errorf("no embedding returned for query")
	}
	return embeddings[0], nil
}

// EmbedCase embeds a case record as one composed document. Name and
// citation lead, then issue and holding before facts and reasoning:
// topical signal stays inside any truncation limit.
func (e *OpenAIEmbedding) EmbedCase(ctx context.Context, c *domain.CaseRecord) ([]float32, error) {
	embeddings, err := e.Embed(ctx, []string{ComposeCaseText(c)})
	if err != nil {
		return nil, err
	}
	if len(embeddings) == 0 {
		return nil, fmt.Errorf("no embedding returned for case %d", c.ID)
	}
	return embeddings[0], nil
}

// ComposeCaseText builds the semantically dense document string a case
// is embedded under
func ComposeCaseText(c *domain.CaseRecord) string {
	var parts []string
	if c.CaseName != "" {
		parts = append(parts, "Case: "+c.CaseName)
	}
	if c.Citation != "" {
		parts = append(parts, "Citation: "+c.Citation)
	}
	if c.Issue != "" {
		parts = append(parts, "Issue: "+c.Issue)
	}
	if c.Holding != "" {
		parts = append(parts, "Holding: "+c.Holding)
	}
	if c.Facts != "" {
		parts = append(parts, "Facts: "+c.Facts)
	}
	if c.Reasoning != "" {
		reasoning := c.Reasoning
		if len(reasoning) > maxReasoningChars {
			reasoning = reasoning[:maxReasoningChars]
		}
		parts = append(parts, "Reasoning: "+reasoning)
	}
	return strings.Join(parts, "\n\n")
}

// Dimensions returns the embedding dimension size
func (e *OpenAIEmbedding) Dimensions() int {
	return e.dimensions
}

// Model returns the model name being used
func (e *OpenAIEmbedding) Model() string {
	return e.model
}

// HealthCheck verifies the embedding service is available
func (e *OpenAIEmbedding) HealthCheck(ctx context.Context) error {
	_, err := e.EmbedQuery(ctx, "health check")
	return err
}

// Close releases resources held by the embedding service
func (e *OpenAIEmbedding) Close() error {
	e.client.CloseIdleConnections()
	return nil
}

// doRequest makes a request to the embeddings endpoint
func (e *OpenAIEmbedding) doRequest(ctx context.Context, reqBody embeddingRequest) (*embeddingResponse, error) {
	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.apiKey)

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var embResp embeddingResponse
	if err := json.Unmarshal(respBody, &embResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if embResp.Error != nil {
		return nil, fmt.Errorf("embedding API error: %s (type: %s, code: %s)",
			embResp.Error.Message, embResp.Error.Type, embResp.Error.Code)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("embedding API returned status %d", resp.StatusCode)
	}

	return &embResp, nil
}
