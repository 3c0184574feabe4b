package domain

import (
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
)

type StatementKind string

const (
	KindAxiom      StatementKind = "axiom"
	KindTheory     StatementKind = "theory"
	KindConclusion StatementKind = "conclusion"
)

func ValidStatementKind(k string) bool {
	switch StatementKind(k) {
	case KindAxiom, KindTheory, KindConclusion:
		return true
	}
	return false
}

// Validation rules reported by ValidationError.
const (
	RuleContentEmpty         = "content_empty"
	RuleConfidenceRange      = "confidence_out_of_range"
	RuleInvalidKind          = "invalid_kind"
	RuleAxiomWithParents     = "axiom_with_parents"
	RuleTheoryWithoutParents = "theory_without_parents"
)

// Statement is a single belief in the knowledge network. The ID and
// CreatedAt are fixed at construction; UpdatedAt moves on every mutation.
type Statement struct {
	ID          StatementID   `json:"id" yaml:"id"`
	Kind        StatementKind `json:"type" yaml:"type"`
	Content     string        `json:"content" yaml:"content"`
	Confidence  *float64      `json:"confidence,omitempty" yaml:"confidence,omitempty"`
	Tags        []string      `json:"tags" yaml:"tags"`
	DerivedFrom []StatementID `json:"derived_from" yaml:"derived_from"`
	CreatedAt   time.Time     `json:"created_at" yaml:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at" yaml:"updated_at"`
}

// StatementID identifies a statement for its whole lifetime.
type StatementID = uuid.UUID

// StatementOptions carries the optional fields accepted by NewStatement.
// A zero ID means a fresh one is generated; a zero Now means time.Now().
type StatementOptions struct {
	ID          StatementID
	Confidence  *float64
	Tags        []string
	DerivedFrom []StatementID
	Now         time.Time
}

// NewStatement builds a validated statement.
func NewStatement(kind StatementKind, content string, opts StatementOptions) (*Statement, error) {
	id := opts.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	now := opts.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	s := &Statement{
		ID:          id,
		Kind:        kind,
		Content:     strings.TrimSpace(content),
		Confidence:  copyConfidence(opts.Confidence),
		Tags:        NormalizeTags(opts.Tags),
		DerivedFrom: copyIDs(opts.DerivedFrom),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate checks the statement-level invariants.
func (s *Statement) Validate() error {
	if strings.TrimSpace(s.Content) == "" {
		return &ValidationError{Rule: RuleContentEmpty, Message: "content must not be empty"}
	}
	if s.Confidence != nil && !validConfidence(*s.Confidence) {
		return &ValidationError{Rule: RuleConfidenceRange, Message: "confidence must be between 0 and 1"}
	}
	switch s.Kind {
	case KindAxiom:
		if len(s.DerivedFrom) > 0 {
			return &ValidationError{Rule: RuleAxiomWithParents, Message: "axioms cannot be derived from other statements"}
		}
	case KindTheory:
		if len(s.DerivedFrom) == 0 {
			return &ValidationError{Rule: RuleTheoryWithoutParents, Message: "theories must be derived from at least one statement"}
		}
	case KindConclusion:
	default:
		return &ValidationError{Rule: RuleInvalidKind, Message: "unknown statement type: " + string(s.Kind)}
	}
	return nil
}

// Clone returns a deep copy.
func (s *Statement) Clone() *Statement {
	c := *s
	c.Confidence = copyConfidence(s.Confidence)
	c.Tags = append([]string{}, s.Tags...)
	c.DerivedFrom = copyIDs(s.DerivedFrom)
	return &c
}

func (s *Statement) IsAxiom() bool {
	return s.Kind == KindAxiom
}

func (s *Statement) HasTag(tag string) bool {
	for _, t := range s.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

func (s *Statement) DerivesFrom(id StatementID) bool {
	for _, p := range s.DerivedFrom {
		if p == id {
			return true
		}
	}
	return false
}

// StatementUpdate lists the fields a caller wants to change. Nil fields are
// left untouched; ClearConfidence drops an explicit confidence so it is
// derived from ancestors again.
type StatementUpdate struct {
	Kind            *StatementKind `json:"type,omitempty"`
	Content         *string        `json:"content,omitempty"`
	Confidence      *float64       `json:"confidence,omitempty"`
	ClearConfidence bool           `json:"clear_confidence,omitempty"`
	Tags            *[]string      `json:"tags,omitempty"`
	DerivedFrom     *[]StatementID `json:"derived_from,omitempty"`
}

func (u StatementUpdate) ChangesParents() bool {
	return u.DerivedFrom != nil
}

// Apply returns a copy of s with the update applied and validated. The
// receiver is never modified, so a rejected update leaves nothing behind.
func (s *Statement) Apply(u StatementUpdate, now time.Time) (*Statement, error) {
	next := s.Clone()
	if u.Kind != nil {
		next.Kind = *u.Kind
	}
	if u.Content != nil {
		next.Content = strings.TrimSpace(*u.Content)
	}
	if u.ClearConfidence {
		next.Confidence = nil
	} else if u.Confidence != nil {
		next.Confidence = copyConfidence(u.Confidence)
	}
	if u.Tags != nil {
		next.Tags = NormalizeTags(*u.Tags)
	}
	if u.DerivedFrom != nil {
		next.DerivedFrom = copyIDs(*u.DerivedFrom)
	}
	next.UpdatedAt = now

	if err := next.Validate(); err != nil {
		return nil, err
	}
	return next, nil
}

// NormalizeTags trims tags, drops empties and duplicates, and keeps the
// first-seen order.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

func copyConfidence(c *float64) *float64 {
	if c == nil {
		return nil
	}
	v := *c
	return &v
}

func copyIDs(ids []StatementID) []StatementID {
	out := make([]StatementID, len(ids))
	copy(out, ids)
	return out
}

// Float64 is a convenience for building optional confidences.
func Float64(v float64) *float64 {
	return &v
}

// validConfidence rejects NaN along with values outside [0, 1].
func validConfidence(c float64) bool {
	return !math.IsNaN(c) && c >= 0 && c <= 1
}
