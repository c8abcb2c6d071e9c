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

// Ensure DeepSeekLLM implements LLMService
var _ driven.LLMService = (*DeepSeekLLM)(nil)

const answerSystemPrompt = `You are a legal research assistant. Answer the question using only the provided sources. Cite sources by their bracketed number, e.g. [1]. If the sources do not support an answer, say so plainly. Do not invent citations.`

// maxEvidenceItems bounds how much evidence goes into the prompt
const maxEvidenceItems = 12

// DeepSeekLLM implements LLMService against the DeepSeek chat API,
// which speaks the OpenAI chat-completions wire format
type DeepSeekLLM struct {
	apiKey      string
	model       string
	baseURL     string
	temperature float64
	client      *http.Client
}

// LLMConfig holds answer-model configuration
type LLMConfig struct {
	APIKey      string
	Model       string
	BaseURL     string
	Temperature float64
	Timeout     time.Duration
}

// NewDeepSeekLLM creates a new answer synthesis service
func NewDeepSeekLLM(cfg LLMConfig) (driven.LLMService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("LLM API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = "deepseek-chat"
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.deepseek.com/v1"
	}
	if cfg.Temperature <= 0 {
		cfg.Temperature = 0.3
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	return &DeepSeekLLM{
		apiKey:      cfg.APIKey,
		model:       cfg.Model,
		baseURL:     strings.TrimSuffix(cfg.BaseURL, "/"),
		temperature: cfg.Temperature,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
	}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// Synthesize produces a grounded answer from the evidence set
func (l *DeepSeekLLM) Synthesize(ctx context.Context, question string, evidence []domain.EvidenceItem) (*domain.Answer, error) {
	if len(evidence) == 0 {
		return &domain.Answer{
			Text:  "No sufficiently relevant sources were found for this question.",
			Model: l.model,
		}, nil
	}

	prompt := buildPrompt(question, evidence)
	resp, err := l.doChat(ctx, chatRequest{
		Model: l.model,
		Messages: []chatMessage{
			{Role: "system", Content: answerSystemPrompt},
			{Role: "user", Content: prompt},
		},
		Temperature: l.temperature,
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("LLM returned no choices")
	}

	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	return &domain.Answer{
		Text:          text,
		CitationsUsed: citedSources(text, evidence),
		Model:         l.model,
	}, nil
}

// buildPrompt renders the numbered evidence block the model cites into
func buildPrompt(question string, evidence []domain.EvidenceItem) string {
	if len(evidence) > maxEvidenceItems {
		evidence = evidence[:maxEvidenceItems]
	}
	var b strings.Builder
	b.WriteString("Sources:\n\n")
	for i, item := range evidence {
		fmt.Fprintf(&b, "[%d] %s\n", i+1, item.Citation())
		switch item.Kind {
		case domain.SourceCorpus:
			if item.Corpus != nil && item.Corpus.Case != nil {
				c := item.Corpus.Case
				if c.Holding != "" {
					b.WriteString("Holding: " + c.Holding + "\n")
				}
				if c.Issue != "" {
					b.WriteString("Issue: " + c.Issue + "\n")
				}
			}
		case domain.SourceWeb:
			if item.Web != nil {
				b.WriteString(item.Web.Text + "\n")
			}
		}
		b.WriteString("\n")
	}
	b.WriteString("Question: " + question + "\n")
	return b.String()
}

// citedSources returns the citation strings whose bracketed numbers
// appear in the answer text
func citedSources(text string, evidence []domain.EvidenceItem) []string {
	var used []string
	for i, item := range evidence {
		if i >= maxEvidenceItems {
			break
		}
		if strings.Contains(text, fmt.Sprintf("[%d]", i+1)) {
			used = append(used, item.Citation())
		}
	}
	return used
}

// Model returns the model name being used
func (l *DeepSeekLLM) Model() string {
	return l.model
}

// Close releases resources held by the service
func (l *DeepSeekLLM) Close() error {
	l.client.CloseIdleConnections()
	return nil
}

func (l *DeepSeekLLM) doChat(ctx context.Context, reqBody chatRequest) (*chatResponse, error) {
	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, l.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+l.apiKey)

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var chatResp chatResponse
	if err := json.Unmarshal(respBody, &chatResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if chatResp.Error != nil {
		return nil, fmt.Errorf("LLM API error: %s (type: %s)", chatResp.Error.Message, chatResp.Error.Type)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("LLM API returned status %d", resp.StatusCode)
	}
	return &chatResp, nil
}
