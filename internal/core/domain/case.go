package domain

import "time"

// CaseRecord represents a legal case in the corpus.
// Records are created during ingestion and read-only at query time.
type CaseRecord struct {
	ID           int64     `json:"id"`
	CaseName     string    `json:"case_name"`
	Citation     string    `json:"citation"` // e.g. "384 U.S. 436"
	Court        string    `json:"court"`
	Year         int       `json:"year"`
	Facts        string    `json:"facts,omitempty"`
	Issue        string    `json:"issue,omitempty"`
	Holding      string    `json:"holding,omitempty"`
	Reasoning    string    `json:"reasoning,omitempty"`
	FullText     string    `json:"full_text,omitempty"`
	FullTextURL  string    `json:"full_text_url,omitempty"`
	Jurisdiction string    `json:"jurisdiction,omitempty"`
	CaseType     string    `json:"case_type,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// CaseFilters narrows a corpus search. Filters are evaluated at the index
// layer, not post-filtered, so retrieval is not wasted on excluded cases.
type CaseFilters struct {
	Court        string `json:"court,omitempty"`
	MinYear      int    `json:"min_year,omitempty"`
	MaxYear      int    `json:"max_year,omitempty"`
	Jurisdiction string `json:"jurisdiction,omitempty"`
}

// Empty reports whether no filter is set.
func (f CaseFilters) Empty() bool {
	return f.Court == "" && f.MinYear == 0 && f.MaxYear == 0 && f.Jurisdiction == ""
}
