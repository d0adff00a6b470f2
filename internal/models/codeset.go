package models

import "sort"

// CodeSet is an order-independent set of airport codes.
type CodeSet map[string]struct{}

// NewCodeSet builds a set from codes, dropping duplicates.
func NewCodeSet(codes ...string) CodeSet {
	s := make(CodeSet, len(codes))
	for _, c := range codes {
		s.Add(c)
	}
	return s
}

func (s CodeSet) Add(code string) {
	s[code] = struct{}{}
}

func (s CodeSet) Has(code string) bool {
	_, ok := s[code]
	return ok
}

// Sorted returns the codes in alphabetical order.
func (s CodeSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for c := range s {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// Equal reports whether both sets hold exactly the same codes.
func (s CodeSet) Equal(other CodeSet) bool {
	if len(s) != len(other) {
		return false
	}
	for c := range s {
		if !other.Has(c) {
			return false
		}
	}
	return true
}
