package domain

import "errors"

// Domain errors - used across all layers
var (
	// ErrNotFound indicates the requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates the resource already exists
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates the input is invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrEmbedding indicates the embedding provider failed.
	// Fatal to a query: nothing downstream can run without a query vector.
	ErrEmbedding = errors.New("embedding failed")

	// ErrCorpusSearch indicates the vector index is unavailable or rejected the search.
	// Fatal to a query for the same reason as ErrEmbedding.
	ErrCorpusSearch = errors.New("corpus search failed")

	// ErrWebSearch indicates the web search provider failed.
	// Never fatal: the query degrades to corpus-only evidence.
	ErrWebSearch = errors.New("web search failed")

	// ErrWebSearchPermanent indicates a non-retryable web search failure (auth, bad request)
	ErrWebSearchPermanent = errors.New("web search permanently failed")

	// ErrFetch indicates a page could not be fetched or extracted.
	// Scoped to a single URL, never fatal to the batch.
	ErrFetch = errors.New("fetch failed")

	// ErrCache indicates the response cache is unreachable. Treated as a miss.
	ErrCache = errors.New("cache unavailable")

	// ErrInvalidEvidence indicates an evidence item without a resolvable citation.
	// The item is dropped, the error is never propagated to callers.
	ErrInvalidEvidence = errors.New("evidence missing citation")

	// ErrSynthesis indicates the answer LLM could not be reached
	ErrSynthesis = errors.New("answer synthesis failed")
)
