package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/atticus-labs/atticus-core/internal/core/domain"
	"github.com/atticus-labs/atticus-core/internal/core/ports/driven"
)

func newTestEmbedding(t *testing.T, model string, handler http.HandlerFunc) driven.EmbeddingService {
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	svc, err := NewOpenAIEmbedding(Config{
		APIKey:  "test-key",
		Model:   model,
		BaseURL: srv.URL,
	})
	if err != nil {
		t.Fatalf("failed to create embedding service: %v", err)
	}
	return svc
}

func embeddingHandler(t *testing.T, capture *embeddingRequest) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/embeddings" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
			t.Errorf("unexpected auth header %q", auth)
		}
		var req embeddingRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if capture != nil {
			*capture = req
		}

		data := make([]map[string]any, len(req.Input))
		for i := range req.Input {
			data[i] = map[string]any{"index": i, "embedding": []float32{0.1, 0.2, 0.3}}
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"data": data, "model": req.Model})
	}
}

func TestEmbed_PreservesInputOrder(t *testing.T) {
	svc := newTestEmbedding(t, "text-embedding-3-small", func(w http.ResponseWriter, r *http.Request) {
		var req embeddingRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		// Return data out of order; the adapter must re-sort by index
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{
				{"index": 1, "embedding": []float32{2}},
				{"index": 0, "embedding": []float32{1}},
			},
		})
	})

	vecs, err := svc.Embed(context.Background(), []string{"a", "b"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if vecs[0][0] != 1 || vecs[1][0] != 2 {
		t.Errorf("embeddings not reordered by index: %v", vecs)
	}
}

func TestEmbedQuery_BGEPrefix(t *testing.T) {
	var captured embeddingRequest
	svc := newTestEmbedding(t, "bge-small-en-v1.5", embeddingHandler(t, &captured))

	if _, err := svc.EmbedQuery(context.Background(), "what is due process"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.HasPrefix(captured.Input[0], queryInstruction) {
		t.Errorf("BGE queries need the instruction prefix, got %q", captured.Input[0])
	}
	if !strings.HasSuffix(captured.Input[0], "what is due process") {
		t.Errorf("query text lost: %q", captured.Input[0])
	}
}

func TestEmbedQuery_NoPrefixForOpenAIModels(t *testing.T) {
	var captured embeddingRequest
	svc := newTestEmbedding(t, "text-embedding-3-small", embeddingHandler(t, &captured))

	if _, err := svc.EmbedQuery(context.Background(), "what is due process"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if captured.Input[0] != "what is due process" {
		t.Errorf("non-BGE models take the raw query, got %q", captured.Input[0])
	}
}

func TestComposeCaseText(t *testing.T) {
	c := &domain.CaseRecord{
		CaseName:  "Mapp v. Ohio",
		Citation:  "367 U.S. 643",
		Facts:     "Police searched without a warrant.",
		Issue:     "Does the exclusionary rule apply to the states?",
		Holding:   "Yes.",
		Reasoning: strings.Repeat("reasoning ", 500),
	}

	text := ComposeCaseText(c)

	// Topical fields come before the narrative ones
	issueAt := strings.Index(text, "Issue:")
	factsAt := strings.Index(text, "Facts:")
	if issueAt == -1 || factsAt == -1 || issueAt > factsAt {
		t.Error("issue must precede facts in the composed document")
	}
	if !strings.HasPrefix(text, "Case: Mapp v. Ohio") {
		t.Errorf("document must open with the case name, got %q", text[:40])
	}

	reasoningAt := strings.Index(text, "Reasoning: ")
	reasoning := text[reasoningAt+len("Reasoning: "):]
	if len(reasoning) > maxReasoningChars {
		t.Errorf("reasoning must truncate at %d chars, got %d", maxReasoningChars, len(reasoning))
	}
}

func TestDimensions(t *testing.T) {
	tests := []struct {
		model string
		want  int
	}{
		{"text-embedding-3-small", 1536},
		{"text-embedding-3-large", 3072},
		{"bge-small-en-v1.5", 384},
		{"unknown-model", 1536},
	}
	for _, tt := range tests {
		svc := newTestEmbedding(t, tt.model, embeddingHandler(t, nil))
		if got := svc.Dimensions(); got != tt.want {
			t.Errorf("model %s: dimensions = %d, want %d", tt.model, got, tt.want)
		}
	}
}

func TestEmbed_APIError(t *testing.T) {
	svc := newTestEmbedding(t, "text-embedding-3-small", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"message": "rate limited", "type": "rate_limit", "code": "429"},
		})
	})

	if _, err := svc.Embed(context.Background(), []string{"x"}); err == nil {
		t.Error("expected error from rate-limited API")
	}
}
