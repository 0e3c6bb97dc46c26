package session

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// EncodeID renders a numeric session ID as its short base-36 form.
func EncodeID(id int) string {
	return strconv.FormatInt(int64(id), 36)
}

// DecodeID parses a short base-36 session ID back to its numeric form.
func DecodeID(s string) (int, error) {
	v, err := strconv.ParseInt(s, 36, 32)
	if err != nil {
		return 0, fmt.Errorf("session: malformed id %q: %w", s, err)
	}
	return int(v), nil
}

// FormatMarker renders the continuation marker embedded in choice labels.
// The count is advisory display state, never trusted on parse.
func FormatMarker(count, id int) string {
	return fmt.Sprintf("![#%d %s]", count, EncodeID(id))
}

var markerPattern = regexp.MustCompile(`!\[#\d+ ([0-9a-z]+)\]`)

// marker is a parsed continuation marker and the query text that follows it.
type marker struct {
	id   int
	pop  bool
	rest string
}

// parseMarker finds the last continuation marker in the query text. The
// text after the marker is the real query; a lone "!" after the marker is a
// remove-last request.
func parseMarker(query string) (marker, bool) {
	locs := markerPattern.FindAllStringSubmatchIndex(query, -1)
	if len(locs) == 0 {
		return marker{}, false
	}
	loc := locs[len(locs)-1]

	id, err := DecodeID(query[loc[2]:loc[3]])
	if err != nil {
		return marker{}, false
	}

	rest := query[loc[1]:]
	if strings.TrimSpace(rest) == "!" {
		return marker{id: id, pop: true}, true
	}
	return marker{id: id, rest: strings.TrimLeft(rest, " ")}, true
}
