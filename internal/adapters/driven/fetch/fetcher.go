package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/atticus-labs/atticus-core/internal/core/domain"
	"github.com/atticus-labs/atticus-core/internal/core/ports/driven"
	"github.com/atticus-labs/atticus-core/internal/extract"
)

// Verify interface compliance
var _ driven.PageFetcher = (*Fetcher)(nil)

// Fetcher implements driven.PageFetcher over plain HTTP GET with a
// response-size cap. Extraction and chunking happen in-process so a
// single bad page cannot hold more than MaxBytes of memory.
type Fetcher struct {
	httpClient *http.Client
	maxBytes   int64
	userAgent  string
	chunkCfg   extract.ChunkConfig
}

// Config holds fetcher configuration
type Config struct {
	// Timeout is the per-page budget covering connect, headers and body
	Timeout time.Duration

	// MaxBytes caps how much of a response body is read
	MaxBytes int64

	// UserAgent identifies the crawler to origin servers
	UserAgent string

	// Chunking parameters for the extracted text
	ChunkMaxWords int
	ChunkMinWords int
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Timeout:       8 * time.Second,
		MaxBytes:      1 << 20, // 1 MiB
		UserAgent:     "atticus-core/1.0",
		ChunkMaxWords: 300,
		ChunkMinWords: 20,
	}
}

// NewFetcher creates a new page fetcher
func NewFetcher(cfg Config) *Fetcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 8 * time.Second
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = 1 << 20
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "atticus-core/1.0"
	}
	chunkCfg := extract.DefaultChunkConfig()
	if cfg.ChunkMaxWords > 0 {
		chunkCfg.MaxWords = cfg.ChunkMaxWords
	}
	if cfg.ChunkMinWords > 0 {
		chunkCfg.MinWords = cfg.ChunkMinWords
	}
	return &Fetcher{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		maxBytes:  cfg.MaxBytes,
		userAgent: cfg.UserAgent,
		chunkCfg:  chunkCfg,
	}
}

// FetchAndExtract downloads a page, strips boilerplate and returns the
// readable text split into scoring-ready chunks
func (f *Fetcher) FetchAndExtract(ctx context.Context, pageURL string) (*domain.WebDocument, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrFetch, pageURL, err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrFetch, pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s: status %d", domain.ErrFetch, pageURL, resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "" && !isHTML(ct) {
		return nil, fmt.Errorf("%w: %s: unsupported content type %s", domain.ErrFetch, pageURL, ct)
	}

	title, text, err := extract.ReadableText(io.LimitReader(resp.Body, f.maxBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrFetch, pageURL, err)
	}
	if text == "" {
		return nil, fmt.Errorf("%w: %s: no readable text", domain.ErrFetch, pageURL)
	}

	doc := &domain.WebDocument{
		URL:     pageURL,
		Title:   title,
		Trusted: true,
		Text:    text,
	}
	for pos, chunkText := range extract.Chunk(text, f.chunkCfg) {
		doc.Chunks = append(doc.Chunks, domain.WebChunk{
			ID:        uuid.New().String(),
			URL:       pageURL,
			PageTitle: title,
			Position:  pos,
			Text:      chunkText,
		})
	}
	return doc, nil
}

func isHTML(contentType string) bool {
	ct := strings.ToLower(contentType)
	return strings.Contains(ct, "text/html") ||
		strings.Contains(ct, "application/xhtml") ||
		strings.Contains(ct, "text/plain")
}
