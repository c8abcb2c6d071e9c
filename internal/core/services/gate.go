package services

import "github.com/atticus-labs/atticus-core/internal/core/domain"

// GateDecision is the confidence gate's verdict on a set of corpus hits
type GateDecision int

const (
	// DecisionSufficient means local evidence supports synthesis on its own
	DecisionSufficient GateDecision = iota

	// DecisionEscalate means web escalation is required
	DecisionEscalate
)

func (d GateDecision) String() string {
	if d == DecisionEscalate {
		return "escalate"
	}
	return "sufficient"
}

// DecideEscalation is the confidence gate. Pure function, no I/O.
//
// Both conditions must pass for local evidence to be sufficient: at least
// minHits results, and an average score over the top minHits of at least
// threshold. A single very similar hit with no supporting hits is not
// sufficient corpus coverage for synthesis, hence the dual condition.
//
// Mode handling (corpus_only bypasses the gate entirely) is the
// orchestrator's responsibility, not the gate's.
func DecideEscalation(hits []domain.CorpusHit, minHits int, threshold float64) GateDecision {
	if minHits <= 0 {
		minHits = 1
	}
	if len(hits) < minHits {
		return DecisionEscalate
	}
	if topAverageScore(hits, minHits) < threshold {
		return DecisionEscalate
	}
	return DecisionSufficient
}

// topAverageScore averages the scores of the first n hits. Hits arrive
// ordered by descending score from the index.
func topAverageScore(hits []domain.CorpusHit, n int) float64 {
	if len(hits) == 0 {
		return 0
	}
	if n > len(hits) {
		n = len(hits)
	}
	var sum float64
	for _, h := range hits[:n] {
		sum += h.Score
	}
	return sum / float64(n)
}
