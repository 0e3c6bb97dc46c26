// Package fuzzy provides keyword tokenisation and ranked fuzzy matching for
// identifier suggestions.
//
// Free text and canonical identifiers are normalised into comparable keyword
// sequences (lowercased, split on non-alphanumeric runs). Candidates are
// scored against a query with a blend of per-token edit-distance similarity
// and token-order agreement, then ranked, thresholded relative to the top
// score and capped.
//
// # Scoring
//
// For every query token the best (lowest normalised edit distance) candidate
// token is found and converted to a similarity. The final score is
//
//	0.9 * averageSimilarity + 0.1 * orderScore
//
// where orderScore is the fraction of consecutive best-match indices that are
// strictly increasing. An empty query or an empty candidate scores exactly 0.
//
// # Thread Safety
//
// All functions are pure and safe for concurrent use.
package fuzzy
