package ignore

// Set is an ordered collection of patterns used as either an ignore
// filter by the walker or a defer filter by the planner. Patterns are
// evaluated in insertion order; a negation pattern un-matches anything a
// prior pattern matched, mirroring Stow's ignore-file semantics.
type Set struct {
	patterns []*Pattern
}

// NewSet creates an empty pattern set.
func NewSet() *Set {
	return &Set{}
}

// Add compiles glob and appends it to the set.
func (s *Set) Add(glob string) error {
	p, err := NewPattern(glob)
	if err != nil {
		return err
	}
	s.patterns = append(s.patterns, p)
	return nil
}

// Matches reports whether relPath matches the set, per spec's "any single
// path segment or the full relative path" rule.
func (s *Set) Matches(relPath string) bool {
	matched := false
	for _, p := range s.patterns {
		if p.Match(relPath) || p.MatchAnySegment(relPath) {
			matched = !p.IsNegation()
		}
	}
	return matched
}

// Len returns the number of patterns in the set.
func (s *Set) Len() int {
	return len(s.patterns)
}

// Patterns returns the set's patterns in insertion order, for merging
// config-file patterns with CLI-supplied ones.
func (s *Set) Patterns() []*Pattern {
	return s.patterns
}
