package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// Mode determines the retrieval strategy requested by the caller
type Mode string

const (
	ModeCorpusOnly Mode = "corpus_only" // local corpus only, escalation disabled
	ModeHybrid     Mode = "hybrid"      // corpus first, web escalation when confidence is low
)

// Valid reports whether the mode is one of the recognized values.
func (m Mode) Valid() bool {
	return m == ModeCorpusOnly || m == ModeHybrid
}

// UsedMode is the retrieval strategy that was actually applied.
// It may differ from the requested Mode: a hybrid request resolves to
// "corpus" when the gate finds local evidence sufficient or when web
// escalation fails.
type UsedMode string

const (
	UsedCorpus UsedMode = "corpus"
	UsedHybrid UsedMode = "hybrid"
)

// Query is a single retrieval request. Immutable once issued.
type Query struct {
	Text    string      `json:"text"`
	Mode    Mode        `json:"mode"`
	Limit   int         `json:"limit"`
	Filters CaseFilters `json:"filters,omitempty"`
}

// Validate fails closed on malformed input. The edge layer is expected to
// validate before calling the core, but the core must not rely on it.
func (q Query) Validate() error {
	if strings.TrimSpace(q.Text) == "" {
		return fmt.Errorf("%w: empty query text", ErrInvalidInput)
	}
	if q.Mode != "" && !q.Mode.Valid() {
		return fmt.Errorf("%w: unknown mode %q", ErrInvalidInput, q.Mode)
	}
	if q.Limit < 0 {
		return fmt.Errorf("%w: negative limit", ErrInvalidInput)
	}
	return nil
}

// Fingerprint derives the cache key for this query: a digest over the
// normalized text, the mode and the limit. Two queries differing only in
// surrounding whitespace or letter case share a fingerprint.
func (q Query) Fingerprint() string {
	normalized := strings.ToLower(strings.TrimSpace(q.Text))
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%s|%d", normalized, q.Mode, q.Limit)))
	return hex.EncodeToString(sum[:])
}
