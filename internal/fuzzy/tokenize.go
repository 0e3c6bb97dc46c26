package fuzzy

import (
	"strings"
	"unicode"
)

// Tokenize normalises free text or a canonical identifier into a keyword
// sequence: lowercased, split on runs of characters that are neither letters
// nor digits, with empty tokens dropped. Letters and digits are classified
// per Unicode, so accented names stay whole.
//
// Examples:
//
//	Tokenize("light.kitchen_main") → ["light", "kitchen", "main"]
//	Tokenize("Kitchen Light")      → ["kitchen", "light"]
//	Tokenize("")                   → nil
func Tokenize(s string) []string {
	var tokens []string
	var b strings.Builder

	flush := func() {
		if b.Len() > 0 {
			tokens = append(tokens, b.String())
			b.Reset()
		}
	}

	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			flush()
		}
	}
	flush()

	return tokens
}
