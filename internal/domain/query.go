package domain

import "strings"

// StatementFilter is a conjunctive filter. Zero-valued fields match
// everything. Tags and DerivedFrom match when any listed value is present.
type StatementFilter struct {
	Kind          *StatementKind
	Tags          []string
	Content       string
	DerivedFrom   []StatementID
	MinConfidence *float64
}

// Matches reports whether s passes every populated field of the filter.
// MinConfidence only considers explicit confidences; statements without
// one are excluded when it is set.
func (f StatementFilter) Matches(s *Statement) bool {
	if f.Kind != nil && s.Kind != *f.Kind {
		return false
	}
	if len(f.Tags) > 0 && !anyTag(s, f.Tags) {
		return false
	}
	if f.Content != "" && !strings.Contains(strings.ToLower(s.Content), strings.ToLower(f.Content)) {
		return false
	}
	if len(f.DerivedFrom) > 0 && !anyParent(s, f.DerivedFrom) {
		return false
	}
	if f.MinConfidence != nil && (s.Confidence == nil || *s.Confidence < *f.MinConfidence) {
		return false
	}
	return true
}

func anyTag(s *Statement, tags []string) bool {
	for _, t := range tags {
		if s.HasTag(t) {
			return true
		}
	}
	return false
}

func anyParent(s *Statement, parents []StatementID) bool {
	for _, p := range parents {
		if s.DerivesFrom(p) {
			return true
		}
	}
	return false
}
