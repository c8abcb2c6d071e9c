package courtlistener

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/atticus-labs/atticus-core/internal/core/domain"
	"github.com/atticus-labs/atticus-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.CaseSource = (*Client)(nil)

// Client implements driven.CaseSource against the CourtListener v4 API.
// An API token raises the rate limit but anonymous access works.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// Config holds CourtListener connection configuration
type Config struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

// NewClient creates a new CourtListener client
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://www.courtlistener.com/api/rest/v4"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		token:   cfg.Token,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

type searchResult struct {
	Results []struct {
		CaseName string `json:"caseName"`
		Citation []string `json:"citation"`
		Court    string `json:"court"`
		DateFiled string `json:"dateFiled"`
		AbsoluteURL string `json:"absolute_url"`
		Opinions  []struct {
			ID      int    `json:"id"`
			Snippet string `json:"snippet"`
		} `json:"opinions"`
	} `json:"results"`
}

type opinionResult struct {
	HTMLWithCitations string `json:"html_with_citations"`
	PlainText         string `json:"plain_text"`
}

// SearchCases queries the opinion search endpoint and hydrates each hit
// with its opinion text. Returned records are unsaved: ID is zero.
func (c *Client) SearchCases(ctx context.Context, q driven.CaseSourceQuery) ([]*domain.CaseRecord, error) {
	params := url.Values{}
	params.Set("q", q.Search)
	params.Set("type", "o")
	params.Set("order_by", "score desc")
	if q.Court != "" {
		params.Set("court", q.Court)
	}
	if q.MinYear > 0 {
		params.Set("filed_after", fmt.Sprintf("%d-01-01", q.MinYear))
	}

	var sr searchResult
	if err := c.getJSON(ctx, c.baseURL+"/search/?"+params.Encode(), &sr); err != nil {
		return nil, fmt.Errorf("courtlistener search: %w", err)
	}

	max := q.MaxResults
	if max <= 0 || max > len(sr.Results) {
		max = len(sr.Results)
	}

	var cases []*domain.CaseRecord
	for _, r := range sr.Results[:max] {
		rec := &domain.CaseRecord{
			CaseName:    r.CaseName,
			Court:       r.Court,
			Year:        yearFromDate(r.DateFiled),
			FullTextURL: "https://www.courtlistener.com" + r.AbsoluteURL,
		}
		if len(r.Citation) > 0 {
			rec.Citation = r.Citation[0]
		}
		if rec.CaseName == "" || rec.Citation == "" {
			continue
		}
		if len(r.Opinions) > 0 {
			text, err := c.opinionText(ctx, r.Opinions[0].ID)
			if err == nil {
				rec.FullText = text
			} else if r.Opinions[0].Snippet != "" {
				rec.FullText = stripHTML(r.Opinions[0].Snippet)
			}
		}
		cases = append(cases, rec)
	}
	return cases, nil
}

// opinionText fetches the full opinion body, preferring plain text
func (c *Client) opinionText(ctx context.Context, id int) (string, error) {
	var op opinionResult
	if err := c.getJSON(ctx, fmt.Sprintf("%s/opinions/%d/", c.baseURL, id), &op); err != nil {
		return "", err
	}
	if op.PlainText != "" {
		return op.PlainText, nil
	}
	if op.HTMLWithCitations != "" {
		return stripHTML(op.HTMLWithCitations), nil
	}
	return "", fmt.Errorf("opinion %d has no text", id)
}

func (c *Client) getJSON(ctx context.Context, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Token "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("status %d: %s", resp.StatusCode, string(body))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func stripHTML(s string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return s
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}

func yearFromDate(date string) int {
	if len(date) < 4 {
		return 0
	}
	y, err := strconv.Atoi(date[:4])
	if err != nil {
		return 0
	}
	return y
}
