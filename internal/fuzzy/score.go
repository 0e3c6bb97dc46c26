package fuzzy

import (
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
)

// Weighting between per-token similarity and token-order agreement.
const (
	similarityWeight = 0.9
	orderWeight      = 0.1
)

// Score computes the similarity of a candidate keyword sequence against a
// query keyword sequence. Both sequences are expected to already be
// normalised via Tokenize.
//
// For every query token the best-matching candidate token is found by
// normalised edit distance. The average of those similarities is blended
// with an order score: the fraction of consecutive best-match indices that
// are strictly increasing. A single-token query is trivially in order.
//
// Returns a value in [0, 1]. If either sequence is empty the score is
// exactly 0.
func Score(candidateTokens, queryTokens []string) float64 {
	if len(candidateTokens) == 0 || len(queryTokens) == 0 {
		return 0
	}

	bestIndices := make([]int, len(queryTokens))
	totalSimilarity := 0.0

	for qi, qt := range queryTokens {
		bestSim := 0.0
		bestIdx := 0
		for ci, ct := range candidateTokens {
			sim := tokenSimilarity(ct, qt)
			if sim > bestSim {
				bestSim = sim
				bestIdx = ci
			}
		}
		totalSimilarity += bestSim
		bestIndices[qi] = bestIdx
	}

	avg := totalSimilarity / float64(len(queryTokens))

	order := 1.0
	if len(bestIndices) > 1 {
		increasing := 0
		for i := 1; i < len(bestIndices); i++ {
			if bestIndices[i] > bestIndices[i-1] {
				increasing++
			}
		}
		order = float64(increasing) / float64(len(bestIndices)-1)
	}

	return similarityWeight*avg + orderWeight*order
}

// tokenSimilarity converts the edit distance between two tokens into a
// similarity in [0, 1]: 1 - distance/maxLen.
func tokenSimilarity(a, b string) float64 {
	la := utf8.RuneCountInString(a)
	lb := utf8.RuneCountInString(b)
	if la == 0 && lb == 0 {
		return 1
	}
	maxLen := la
	if lb > maxLen {
		maxLen = lb
	}

	dist := levenshtein.ComputeDistance(a, b)
	return 1 - float64(dist)/float64(maxLen)
}
