package slope

import (
	"slices"
	"strings"
)

// Set is a set of slopes keyed by canonical representative.
// The zero value is an empty set ready to use for lookups; use NewSet or Add
// to populate it.
type Set map[Pair]struct{}

// NewSet returns a set holding the given slopes.
func NewSet(pairs ...Pair) Set {
	s := make(Set, len(pairs))
	for _, p := range pairs {
		s.Add(p)
	}
	return s
}

// ParseSet parses a list such as "1/0, 2/1, (-3,1)". Items are separated by
// whitespace or semicolons.
func ParseSet(s string) (Set, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ';' || r == ' ' || r == '\t' || r == '\n'
	})
	out := make(Set, len(fields))
	for _, f := range fields {
		p, err := Parse(f)
		if err != nil {
			return nil, err
		}
		out.Add(p)
	}
	return out, nil
}

// Add inserts the slope of p.
func (s Set) Add(p Pair) {
	s[p.Canonical()] = struct{}{}
}

// Contains reports whether the slope of p is in the set.
func (s Set) Contains(p Pair) bool {
	if s == nil {
		return false
	}
	_, ok := s[p.Canonical()]
	return ok
}

// Len returns the number of slopes.
func (s Set) Len() int {
	return len(s)
}

// Sorted returns the members in enumeration order.
func (s Set) Sorted() []Pair {
	out := make([]Pair, 0, len(s))
	for p := range s {
		out = append(out, p)
	}
	slices.SortFunc(out, Compare)
	return out
}
