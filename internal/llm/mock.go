package llm

import (
	"context"
	"sync"

	"github.com/Harshitk-cp/knet/internal/domain"
)

// MockClient is a configurable theory generator for testing and offline use.
// Set the response fields to control what GenerateTheory returns.
type MockClient struct {
	mu sync.Mutex

	GenerateTheoryResponse *domain.TheoryDraft
	GenerateTheoryError    error

	// Call tracking for assertions
	GenerateTheoryCalls []domain.TheoryRequest
}

func NewMockClient() *MockClient {
	return &MockClient{}
}

// GenerateTheory returns GenerateTheoryResponse when set. Otherwise it
// drafts a theory by joining the sources, which keeps the mock provider
// usable from a running server.
func (c *MockClient) GenerateTheory(ctx context.Context, req domain.TheoryRequest) (*domain.TheoryDraft, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.GenerateTheoryCalls = append(c.GenerateTheoryCalls, req)
	if c.GenerateTheoryError != nil {
		return nil, c.GenerateTheoryError
	}
	if c.GenerateTheoryResponse != nil {
		draft := *c.GenerateTheoryResponse
		return &draft, nil
	}
	return defaultDraft(req), nil
}

func defaultDraft(req domain.TheoryRequest) *domain.TheoryDraft {
	var tags []string
	conf := 1.0
	content := "Taken together:"
	for i, s := range req.SourceStatements {
		if i > 0 {
			content += ";"
		}
		content += " " + s.Content
		tags = append(tags, s.Tags...)
		if s.Confidence != nil && *s.Confidence < conf {
			conf = *s.Confidence
		}
	}
	return &domain.TheoryDraft{
		Content:             content,
		SuggestedTags:       domain.NormalizeTags(tags),
		SuggestedConfidence: conf * 0.9,
		Reasoning:           "mock synthesis of the source statements",
	}
}

// Reset clears all recorded calls and resets responses to defaults.
func (c *MockClient) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.GenerateTheoryResponse = nil
	c.GenerateTheoryError = nil
	c.GenerateTheoryCalls = nil
}
