package session

import (
	"context"
	"unicode/utf8"

	"github.com/hassbridge/hassbridge-core/internal/command"
)

// Choice labels are capped so the appended marker never pushes them past
// what the presentation layer accepts.
const maxLabelLen = 100

const removeLastLabel = "remove last"

// Protocol wraps single-value suggestion providers with ordered list
// accumulation across round trips.
type Protocol struct {
	store      *Store
	maxChoices int
}

// NewProtocol creates a Protocol over the given store. maxChoices bounds
// the choices returned per round trip, including the synthetic remove-last
// entry.
func NewProtocol(store *Store, maxChoices int) *Protocol {
	if maxChoices < 1 {
		maxChoices = 1
	}
	return &Protocol{store: store, maxChoices: maxChoices}
}

// Store returns the underlying session store, for final resolution at
// submission time.
func (p *Protocol) Store() *Store {
	return p.store
}

// Wrap returns a suggestion provider that accumulates values over repeated
// round trips. Each returned choice points at a fresh session extending the
// prior list; its label carries the session marker so the next round trip
// continues from it.
//
// An undecodable, expired or foreign marker yields no suggestions.
func (p *Protocol) Wrap(inner command.SuggestFunc) command.SuggestFunc {
	return func(ctx context.Context, userID, query string) []command.Choice {
		var prior []string
		rest := query

		if m, ok := parseMarker(query); ok {
			values, found := p.store.Lookup(m.id, userID)
			if !found {
				return nil
			}
			prior = values

			if m.pop {
				if len(prior) <= 1 {
					return nil
				}
				return []command.Choice{p.removeLastChoice(userID, prior)}
			}
			rest = m.rest
		}

		choices := inner(ctx, userID, rest)

		withRemove := len(prior) > 1
		limit := p.maxChoices
		if withRemove {
			limit--
		}
		if len(choices) > limit {
			choices = choices[:limit]
		}

		out := make([]command.Choice, 0, len(choices)+1)
		for _, c := range choices {
			values := append(append(make([]string, 0, len(prior)+1), prior...), c.Value)
			id := p.store.Create(userID, values)
			out = append(out, command.Choice{
				Label: suffixMarker(c.Label, len(values), id),
				Value: EncodeID(id),
			})
		}
		if withRemove {
			out = append(out, p.removeLastChoice(userID, prior))
		}
		return out
	}
}

// removeLastChoice creates a session holding all but the last accumulated
// value and returns the synthetic choice pointing at it.
func (p *Protocol) removeLastChoice(userID string, prior []string) command.Choice {
	popped := prior[:len(prior)-1]
	id := p.store.Create(userID, popped)
	return command.Choice{
		Label: suffixMarker(removeLastLabel, len(popped), id),
		Value: EncodeID(id),
	}
}

// suffixMarker appends the continuation marker, trimming the base label
// first if the combination would exceed the label cap.
func suffixMarker(label string, count, id int) string {
	m := FormatMarker(count, id)
	if over := len(label) + 1 + len(m) - maxLabelLen; over > 0 {
		cut := len(label) - over
		if cut < 0 {
			cut = 0
		}
		for cut > 0 && !utf8.RuneStart(label[cut]) {
			cut--
		}
		label = label[:cut]
	}
	return label + " " + m
}
