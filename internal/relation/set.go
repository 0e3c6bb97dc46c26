package relation

import "sort"

// IDSet is a tagged union over "no constraint" and an explicit ID set.
//
// The zero value is Unconstrained. An explicit set may be empty, which means
// "nothing matches" — deliberately distinct from Unconstrained.
type IDSet struct {
	constrained bool
	ids         map[string]struct{}
}

// Unconstrained returns the set that matches everything.
func Unconstrained() IDSet {
	return IDSet{}
}

// SetOf returns an explicit set holding the given IDs.
func SetOf(ids ...string) IDSet {
	m := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		m[id] = struct{}{}
	}
	return IDSet{constrained: true, ids: m}
}

// EmptySet returns an explicit empty set ("nothing matches").
func EmptySet() IDSet {
	return IDSet{constrained: true, ids: map[string]struct{}{}}
}

// Constrained reports whether the set is explicit (possibly empty) rather
// than pass-everything.
func (s IDSet) Constrained() bool {
	return s.constrained
}

// Contains reports whether the ID passes the set. An Unconstrained set
// passes every ID.
func (s IDSet) Contains(id string) bool {
	if !s.constrained {
		return true
	}
	_, ok := s.ids[id]
	return ok
}

// Len returns the number of explicit IDs, or 0 for an Unconstrained set.
func (s IDSet) Len() int {
	return len(s.ids)
}

// IDs returns the explicit IDs in sorted order, or nil for an Unconstrained
// set.
func (s IDSet) IDs() []string {
	if !s.constrained || len(s.ids) == 0 {
		return nil
	}
	out := make([]string, 0, len(s.ids))
	for id := range s.ids {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// add inserts an ID, converting an Unconstrained set into an explicit one.
func (s *IDSet) add(id string) {
	if s.ids == nil {
		s.ids = make(map[string]struct{})
	}
	s.constrained = true
	s.ids[id] = struct{}{}
}

// containsAny reports whether any of the given IDs is in the explicit set.
// Only meaningful on constrained sets.
func (s IDSet) containsAny(ids []string) bool {
	for _, id := range ids {
		if _, ok := s.ids[id]; ok {
			return true
		}
	}
	return false
}
