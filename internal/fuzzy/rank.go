package fuzzy

import "sort"

// Ranker scores candidates against a query and returns an ordered, capped,
// thresholded result list.
type Ranker struct {
	// MaxChoices caps the number of results.
	MaxChoices int

	// Tolerance keeps only candidates scoring within this fraction of the
	// top score (0.2 keeps scores >= top * 0.8).
	Tolerance float64
}

// Scored identifies a kept candidate by its original index.
type Scored struct {
	Index int
	Score float64
}

// Rank scores every candidate against the query and returns the kept
// candidates ordered by descending score.
//
// Each candidate is a list of textual representations (e.g. an ID and a
// display name); its score is the maximum over those representations.
// Equal scores keep their original relative order; no secondary sort key is
// applied.
//
// Parameters:
//   - query: Free text typed by the user (may be empty)
//   - candidates: Per-candidate textual representations
//
// Returns:
//   - []Scored: At most MaxChoices entries with score >= top * (1 - Tolerance)
func (r Ranker) Rank(query string, candidates [][]string) []Scored {
	queryTokens := Tokenize(query)

	scored := make([]Scored, len(candidates))
	for i, texts := range candidates {
		best := 0.0
		for _, text := range texts {
			if s := Score(Tokenize(text), queryTokens); s > best {
				best = s
			}
		}
		scored[i] = Scored{Index: i, Score: best}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if len(scored) == 0 {
		return scored
	}

	minScore := scored[0].Score * (1 - r.Tolerance)
	kept := scored[:0]
	for _, s := range scored {
		if s.Score >= minScore {
			kept = append(kept, s)
		}
	}
	if len(kept) > r.MaxChoices {
		kept = kept[:r.MaxChoices]
	}
	return kept
}
