package services

import (
	"math"
	"net/url"
	"sort"
	"strings"

	"github.com/atticus-labs/atticus-core/internal/core/domain"
)

// MergerConfig tunes how corpus and web evidence are combined
type MergerConfig struct {
	// AuthorityBoost is added to the normalized score of corpus hits and
	// of web chunks from AuthorityDomains. An on-point case is
	// intrinsically more authoritative than an arbitrary page at equal
	// textual similarity, so the boost is non-zero.
	AuthorityBoost float64

	// AuthorityDomains are high-authority legal hosts (court and
	// government sites) whose web chunks also receive the boost
	AuthorityDomains []string

	// Limit caps the merged evidence list. Zero means no cap.
	Limit int
}

// MergeEvidence combines corpus hits and web chunks into one ordered
// evidence list with a unified scoring scheme:
//
//  1. scores are clamped onto [0,1] (corpus cosine scores are already in
//     range; web chunk scores were normalized upstream)
//  2. the authority boost is applied
//  3. items sort by boosted score descending; among equal scores corpus
//     items rank above web items, and corpus ties break on recency
//  4. items without a resolvable citation are dropped
//  5. the list is truncated to the limit
func MergeEvidence(hits []domain.CorpusHit, chunks []domain.WebChunk, cfg MergerConfig) []domain.EvidenceItem {
	items := make([]domain.EvidenceItem, 0, len(hits)+len(chunks))

	for i := range hits {
		h := hits[i]
		items = append(items, domain.EvidenceItem{
			Kind:   domain.SourceCorpus,
			Score:  clamp01(h.Score) + cfg.AuthorityBoost,
			Corpus: &h,
		})
	}

	for i := range chunks {
		c := chunks[i]
		score := clamp01(c.Score)
		if hostOnList(c.URL, cfg.AuthorityDomains) {
			score += cfg.AuthorityBoost
		}
		items = append(items, domain.EvidenceItem{
			Kind:  domain.SourceWeb,
			Score: score,
			Web:   &c,
		})
	}

	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		// Equal scores: corpus carries stronger provenance than web
		if a.Kind != b.Kind {
			return a.Kind == domain.SourceCorpus
		}
		if a.Kind == domain.SourceCorpus {
			return a.Corpus.Year > b.Corpus.Year
		}
		return false
	})

	// Citation-completeness invariant: no item reaches synthesis without
	// a resolvable case identifier or URL
	merged := items[:0]
	for _, it := range items {
		if it.Citable() {
			merged = append(merged, it)
		}
	}

	if cfg.Limit > 0 && len(merged) > cfg.Limit {
		merged = merged[:cfg.Limit]
	}
	return merged
}

// NormalizeWebScore maps a provider-native relevance score onto [0,1]
// with a monotonic scaling. Divisor is the provider's nominal score
// ceiling; values at or beyond it clamp to 1.
func NormalizeWebScore(score, divisor float64) float64 {
	if divisor <= 0 {
		divisor = 1
	}
	return clamp01(score / divisor)
}

// cosineSimilarity01 computes cosine similarity between two vectors and
// maps it from [-1,1] onto [0,1] so it is comparable with corpus scores.
func cosineSimilarity01(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	cos := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	return clamp01((cos + 1) / 2)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// hostOnList reports whether the URL's host matches one of the domains,
// either exactly or as a subdomain.
func hostOnList(rawURL string, domains []string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	host := strings.ToLower(u.Hostname())
	for _, d := range domains {
		d = strings.ToLower(strings.TrimSpace(d))
		if d == "" {
			continue
		}
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}
