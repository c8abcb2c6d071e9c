package tavily

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/atticus-labs/atticus-core/internal/core/domain"
	"github.com/atticus-labs/atticus-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.WebSearcher = (*Client)(nil)

// Client implements driven.WebSearcher against the Tavily search API
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	retryWait  time.Duration
}

// Config holds Tavily connection configuration
type Config struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration

	// RetryWait is the pause before the single retry on a transient failure
	RetryWait time.Duration
}

// NewClient creates a new Tavily search client
func NewClient(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("tavily API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.tavily.com"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.RetryWait <= 0 {
		cfg.RetryWait = 500 * time.Millisecond
	}
	return &Client{
		apiKey:  cfg.APIKey,
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		retryWait: cfg.RetryWait,
	}, nil
}

type searchRequest struct {
	APIKey         string   `json:"api_key"`
	Query          string   `json:"query"`
	SearchDepth    string   `json:"search_depth"`
	MaxResults     int      `json:"max_results"`
	IncludeDomains []string `json:"include_domains,omitempty"`
}

type searchResponse struct {
	Results []struct {
		URL     string  `json:"url"`
		Title   string  `json:"title"`
		Content string  `json:"content"`
		Score   float64 `json:"score"`
	} `json:"results"`
}

// Search queries Tavily, restricted to allowDomains. The provider's
// include_domains is advisory, so results are re-checked against the
// allowlist here; anything off-list is dropped.
func (c *Client) Search(ctx context.Context, query string, allowDomains []string, limit int) ([]domain.WebSearchResult, error) {
	reqBody := searchRequest{
		APIKey:         c.apiKey,
		Query:          query,
		SearchDepth:    "basic",
		MaxResults:     limit,
		IncludeDomains: allowDomains,
	}

	resp, err := c.doSearch(ctx, reqBody)
	if err != nil {
		return nil, err
	}

	results := make([]domain.WebSearchResult, 0, len(resp.Results))
	for _, r := range resp.Results {
		if !hostAllowed(r.URL, allowDomains) {
			continue
		}
		results = append(results, domain.WebSearchResult{
			URL:     r.URL,
			Title:   r.Title,
			Snippet: r.Content,
			Score:   r.Score,
		})
	}
	return results, nil
}

// doSearch performs the HTTP call with one retry on transient failures
func (c *Client) doSearch(ctx context.Context, reqBody searchRequest) (*searchResponse, error) {
	resp, err := c.once(ctx, reqBody)
	if err == nil || isPermanent(err) {
		return resp, err
	}

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %v", domain.ErrWebSearch, ctx.Err())
	case <-time.After(c.retryWait):
	}
	return c.once(ctx, reqBody)
}

func (c *Client) once(ctx context.Context, reqBody searchRequest) (*searchResponse, error) {
	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrWebSearchPermanent, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/search", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrWebSearchPermanent, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrWebSearch, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrWebSearch, err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("%w: tavily auth rejected (%d)", domain.ErrWebSearchPermanent, resp.StatusCode)
	case resp.StatusCode == http.StatusUnprocessableEntity || resp.StatusCode == http.StatusBadRequest:
		return nil, fmt.Errorf("%w: tavily rejected query (%d): %s", domain.ErrWebSearchPermanent, resp.StatusCode, string(respBody))
	default:
		return nil, fmt.Errorf("%w: tavily status %d", domain.ErrWebSearch, resp.StatusCode)
	}

	var searchResp searchResponse
	if err := json.Unmarshal(respBody, &searchResp); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrWebSearch, err)
	}
	return &searchResp, nil
}

func isPermanent(err error) bool {
	return errors.Is(err, domain.ErrWebSearchPermanent)
}

func hostAllowed(rawURL string, domains []string) bool {
	if len(domains) == 0 {
		return false
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return false
	}
	host := strings.ToLower(u.Hostname())
	for _, d := range domains {
		d = strings.ToLower(d)
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}
