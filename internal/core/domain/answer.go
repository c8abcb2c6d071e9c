package domain

// Answer is a synthesized response grounded in retrieved evidence
type Answer struct {
	Text          string   `json:"text"`
	CitationsUsed []string `json:"citations_used,omitempty"` // citations that appear in the text
	Model         string   `json:"model,omitempty"`
}

// AnswerResult pairs a synthesized answer with the retrieval outcome it
// was grounded on, so callers can render sources alongside the text.
type AnswerResult struct {
	Answer  Answer            `json:"answer"`
	Outcome *RetrievalOutcome `json:"outcome"`
}
