package domain

import "time"

// CorpusHit is a transient projection of a vector search match.
// Created per query, never persisted.
type CorpusHit struct {
	CaseID   int64   `json:"case_id"`
	Score    float64 `json:"score"` // cosine similarity in [0,1]
	CaseName string  `json:"case_name,omitempty"`
	Citation string  `json:"citation,omitempty"`
	Court    string  `json:"court,omitempty"`
	Year     int     `json:"year,omitempty"`

	// Case is the hydrated record, when the case store could resolve it
	Case *CaseRecord `json:"case,omitempty"`
}

// WebSearchResult is one ranked candidate page from the web search provider
type WebSearchResult struct {
	URL     string  `json:"url"`
	Title   string  `json:"title"`
	Snippet string  `json:"snippet,omitempty"`
	Score   float64 `json:"score"` // provider-native scale
}

// WebDocument is the extracted content of one fetched page.
// Transient: created during escalation, discarded after the query.
type WebDocument struct {
	URL     string     `json:"url"`
	Title   string     `json:"title"`
	Trusted bool       `json:"trusted"` // host was on the domain allow-list
	Text    string     `json:"text"`
	Chunks  []WebChunk `json:"chunks"`
}

// WebChunk is a bounded, independently citable segment of a web document.
type WebChunk struct {
	ID        string  `json:"id"`
	URL       string  `json:"url"`
	PageTitle string  `json:"page_title"`
	Position  int     `json:"position"`
	Text      string  `json:"text"`
	Score     float64 `json:"score"` // normalized relevance in [0,1]
}

// SourceKind tags the origin of an evidence item. The variant set is
// closed: handling code switches exhaustively over these values.
type SourceKind string

const (
	SourceCorpus SourceKind = "corpus"
	SourceWeb    SourceKind = "web"
)

// EvidenceItem is the unified, citable unit of retrieved information
// handed to answer synthesis. Exactly one of Corpus or Web is set,
// according to Kind.
type EvidenceItem struct {
	Kind  SourceKind `json:"kind"`
	Score float64    `json:"score"` // normalized + authority-boosted, in [0,1+boost]

	Corpus *CorpusHit `json:"corpus,omitempty"`
	Web    *WebChunk  `json:"web,omitempty"`
}

// Citable reports whether the item carries enough metadata to render a
// verifiable citation. Items failing this invariant must be dropped
// before synthesis.
func (e EvidenceItem) Citable() bool {
	switch e.Kind {
	case SourceCorpus:
		return e.Corpus != nil && (e.Corpus.Citation != "" || e.Corpus.CaseID > 0)
	case SourceWeb:
		return e.Web != nil && e.Web.URL != ""
	default:
		return false
	}
}

// Citation renders the citation descriptor: the legal citation string for
// corpus items, URL plus page title for web items.
func (e EvidenceItem) Citation() string {
	switch e.Kind {
	case SourceCorpus:
		if e.Corpus == nil {
			return ""
		}
		if e.Corpus.CaseName != "" && e.Corpus.Citation != "" {
			return e.Corpus.CaseName + ", " + e.Corpus.Citation
		}
		return e.Corpus.Citation
	case SourceWeb:
		if e.Web == nil {
			return ""
		}
		if e.Web.PageTitle != "" {
			return e.Web.PageTitle + " - " + e.Web.URL
		}
		return e.Web.URL
	default:
		return ""
	}
}

// RetrievalOutcome is the core's final output for one query.
type RetrievalOutcome struct {
	Evidence   []EvidenceItem `json:"evidence"`
	Mode       UsedMode       `json:"mode"`       // what actually happened, not what was requested
	Confidence float64        `json:"confidence"` // aggregate corpus confidence in [0,1]
	Degraded   bool           `json:"degraded"`   // hybrid evidence was wanted but unavailable
	Took       time.Duration  `json:"took"`
}
