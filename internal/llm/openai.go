package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Harshitk-cp/knet/internal/domain"
)

const (
	openAIChatURL = "https://api.openai.com/v1/chat/completions"
	openAIModel   = "gpt-4o-mini"

	cerebrasChatURL = "https://api.cerebras.ai/v1/chat/completions"
	cerebrasModel   = "llama-3.3-70b"

	theoryTemperature = 0.4
)

// OpenAIClient talks to any OpenAI-compatible chat completions endpoint.
type OpenAIClient struct {
	transport
	apiKey string
	url    string
	model  string
}

func NewOpenAIClient(apiKey string, timeout time.Duration) *OpenAIClient {
	return newChatClient(ProviderOpenAI, apiKey, openAIChatURL, openAIModel, timeout)
}

// NewCerebrasClient returns a client for Cerebras, which speaks the OpenAI
// request/response format.
func NewCerebrasClient(apiKey string, timeout time.Duration) *OpenAIClient {
	return newChatClient(ProviderCerebras, apiKey, cerebrasChatURL, cerebrasModel, timeout)
}

func newChatClient(provider, apiKey, url, model string, timeout time.Duration) *OpenAIClient {
	return &OpenAIClient{
		transport: newTransport(provider, timeout),
		apiKey:    apiKey,
		url:       url,
		model:     model,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float32       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *providerError `json:"error,omitempty"`
}

func (c *OpenAIClient) GenerateTheory(ctx context.Context, req domain.TheoryRequest) (*domain.TheoryDraft, error) {
	var resp chatResponse
	err := c.postJSON(ctx, c.url, map[string]string{"Authorization": "Bearer " + c.apiKey}, chatRequest{
		Model:       c.model,
		Messages:    []chatMessage{{Role: "user", Content: buildTheoryPrompt(req)}},
		Temperature: theoryTemperature,
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("generate theory: %w", err)
	}
	if resp.Error != nil {
		return nil, fmt.Errorf("generate theory: %s API error: %s", c.provider, resp.Error.Message)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("generate theory: %s API returned no choices", c.provider)
	}
	return parseDraft(strings.TrimSpace(resp.Choices[0].Message.Content))
}
