package llm

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/Harshitk-cp/knet/internal/domain"
)

const geminiBaseURL = "https://generativelanguage.googleapis.com/v1beta/models/gemini-2.0-flash:generateContent"

// GeminiClient drafts theories through generateContent. The key travels as
// a query parameter.
type GeminiClient struct {
	transport
	apiKey  string
	baseURL string
}

func NewGeminiClient(apiKey string, timeout time.Duration) *GeminiClient {
	return &GeminiClient{
		transport: newTransport(ProviderGemini, timeout),
		apiKey:    apiKey,
		baseURL:   geminiBaseURL,
	}
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
	Role  string       `json:"role,omitempty"`
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
	Error *providerError `json:"error,omitempty"`
}

func (c *GeminiClient) GenerateTheory(ctx context.Context, req domain.TheoryRequest) (*domain.TheoryDraft, error) {
	endpoint := c.baseURL + "?" + url.Values{"key": {c.apiKey}}.Encode()

	var resp geminiResponse
	err := c.postJSON(ctx, endpoint, nil, geminiRequest{
		Contents: []geminiContent{{
			Parts: []geminiPart{{Text: buildTheoryPrompt(req)}},
			Role:  "user",
		}},
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("generate theory: %w", err)
	}
	if resp.Error != nil {
		return nil, fmt.Errorf("generate theory: gemini API error: %s", resp.Error.Message)
	}
	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("generate theory: gemini API returned no content")
	}
	return parseDraft(strings.TrimSpace(resp.Candidates[0].Content.Parts[0].Text))
}
