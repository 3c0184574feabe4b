package domain

import "context"

// TheoryRequest carries the statements a new theory should be drawn from.
type TheoryRequest struct {
	SourceStatements []Statement `json:"source_statements"`
}

// TheoryDraft is a generated, not yet inserted, theory.
type TheoryDraft struct {
	Content             string   `json:"content"`
	SuggestedTags       []string `json:"suggested_tags"`
	SuggestedConfidence float64  `json:"suggested_confidence"`
	Reasoning           string   `json:"reasoning"`
}

// TheoryGenerator drafts a theory from a set of source statements.
type TheoryGenerator interface {
	GenerateTheory(ctx context.Context, req TheoryRequest) (*TheoryDraft, error)
}
