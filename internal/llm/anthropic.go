package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Harshitk-cp/knet/internal/domain"
)

const (
	anthropicMessagesURL = "https://api.anthropic.com/v1/messages"
	anthropicModel       = "claude-3-5-haiku-20241022"
	anthropicVersion     = "2023-06-01"
	anthropicMaxTokens   = 1024
)

// AnthropicClient drafts theories through the Messages API.
type AnthropicClient struct {
	transport
	apiKey string
	url    string
}

func NewAnthropicClient(apiKey string, timeout time.Duration) *AnthropicClient {
	return &AnthropicClient{
		transport: newTransport(ProviderAnthropic, timeout),
		apiKey:    apiKey,
		url:       anthropicMessagesURL,
	}
}

type messagesRequest struct {
	Model     string        `json:"model"`
	MaxTokens int           `json:"max_tokens"`
	Messages  []chatMessage `json:"messages"`
}

type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Error *providerError `json:"error,omitempty"`
}

// text joins the text blocks of the reply; other block types are skipped.
func (r messagesResponse) text() string {
	var b strings.Builder
	for _, block := range r.Content {
		if block.Type == "" || block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	return strings.TrimSpace(b.String())
}

func (c *AnthropicClient) GenerateTheory(ctx context.Context, req domain.TheoryRequest) (*domain.TheoryDraft, error) {
	headers := map[string]string{
		"x-api-key":         c.apiKey,
		"anthropic-version": anthropicVersion,
	}
	var resp messagesResponse
	err := c.postJSON(ctx, c.url, headers, messagesRequest{
		Model:     anthropicModel,
		MaxTokens: anthropicMaxTokens,
		Messages:  []chatMessage{{Role: "user", Content: buildTheoryPrompt(req)}},
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("generate theory: %w", err)
	}
	if resp.Error != nil {
		return nil, fmt.Errorf("generate theory: anthropic API error: %s", resp.Error.Message)
	}
	out := resp.text()
	if out == "" {
		return nil, fmt.Errorf("generate theory: anthropic API returned no content")
	}
	return parseDraft(out)
}
