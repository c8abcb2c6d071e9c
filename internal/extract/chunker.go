package extract

import "strings"

// ChunkConfig configures the chunker behavior.
type ChunkConfig struct {
	// MaxWords is the maximum words per chunk
	MaxWords int

	// MinWords drops trailing fragments too short to stand alone,
	// unless they are the only chunk
	MinWords int
}

// DefaultChunkConfig returns sensible defaults.
func DefaultChunkConfig() ChunkConfig {
	return ChunkConfig{
		MaxWords: 300,
		MinWords: 20,
	}
}

// Chunk splits extracted prose into word-bounded segments with no
// overlap. Paragraph boundaries are preferred, then sentence boundaries;
// a single overlong sentence is split hard at the word limit. Each chunk
// is standalone: it can be embedded and cited independently.
func Chunk(text string, cfg ChunkConfig) []string {
	if cfg.MaxWords <= 0 {
		cfg.MaxWords = 300
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	var chunks []string
	var current []string // words accumulated for the open chunk

	flush := func() {
		if len(current) > 0 {
			chunks = append(chunks, strings.Join(current, " "))
			current = nil
		}
	}

	for _, para := range strings.Split(text, "\n\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			continue
		}

		// A paragraph that fits joins the open chunk or starts a new one
		if len(words) <= cfg.MaxWords {
			if len(current)+len(words) > cfg.MaxWords {
				flush()
			}
			current = append(current, words...)
			continue
		}

		// Overlong paragraph: pack sentence by sentence
		flush()
		for _, sentence := range splitSentences(para) {
			sw := strings.Fields(sentence)
			if len(sw) == 0 {
				continue
			}
			if len(current)+len(sw) > cfg.MaxWords {
				flush()
			}
			// A single sentence beyond the limit splits hard
			for len(sw) > cfg.MaxWords {
				chunks = append(chunks, strings.Join(sw[:cfg.MaxWords], " "))
				sw = sw[cfg.MaxWords:]
			}
			current = append(current, sw...)
		}
		flush()
	}
	flush()

	// Drop a trailing fragment with too little standalone context
	if len(chunks) > 1 && cfg.MinWords > 0 {
		last := chunks[len(chunks)-1]
		if len(strings.Fields(last)) < cfg.MinWords {
			chunks = chunks[:len(chunks)-1]
		}
	}
	return chunks
}

// splitSentences breaks a paragraph at sentence-ending punctuation.
// Crude, but sufficient for bounding chunks at readable boundaries.
func splitSentences(s string) []string {
	var sentences []string
	start := 0
	runes := []rune(s)
	for i, r := range runes {
		if r == '.' || r == '!' || r == '?' {
			end := i + 1
			// Consume following quotes/spaces so the break lands cleanly
			if end == len(runes) || runes[end] == ' ' || runes[end] == '\n' {
				sentences = append(sentences, strings.TrimSpace(string(runes[start:end])))
				start = end
			}
		}
	}
	if start < len(runes) {
		if rest := strings.TrimSpace(string(runes[start:])); rest != "" {
			sentences = append(sentences, rest)
		}
	}
	return sentences
}
