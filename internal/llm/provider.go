package llm

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Harshitk-cp/knet/internal/domain"
)

const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
	ProviderCerebras  = "cerebras"
	ProviderMock      = "mock"
)

type providerSpec struct {
	keyVar string
	build  func(apiKey string, timeout time.Duration) domain.TheoryGenerator
}

var providers = map[string]providerSpec{
	ProviderOpenAI: {
		keyVar: "OPENAI_API_KEY",
		build:  func(k string, t time.Duration) domain.TheoryGenerator { return NewOpenAIClient(k, t) },
	},
	ProviderAnthropic: {
		keyVar: "ANTHROPIC_API_KEY",
		build:  func(k string, t time.Duration) domain.TheoryGenerator { return NewAnthropicClient(k, t) },
	},
	ProviderGemini: {
		keyVar: "GEMINI_API_KEY",
		build:  func(k string, t time.Duration) domain.TheoryGenerator { return NewGeminiClient(k, t) },
	},
	ProviderCerebras: {
		keyVar: "CEREBRAS_API_KEY",
		build:  func(k string, t time.Duration) domain.TheoryGenerator { return NewCerebrasClient(k, t) },
	},
}

// Providers lists every accepted provider name, sorted.
func Providers() []string {
	names := []string{ProviderMock}
	for name := range providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewClient builds the theory generator for provider. Every provider except
// mock needs an API key.
func NewClient(provider, apiKey string, timeout time.Duration) (domain.TheoryGenerator, error) {
	if provider == ProviderMock {
		return NewMockClient(), nil
	}
	spec, ok := providers[provider]
	if !ok {
		return nil, fmt.Errorf("unknown LLM provider: %s (valid options: %s)", provider, strings.Join(Providers(), ", "))
	}
	if apiKey == "" {
		return nil, fmt.Errorf("%s is required for the %s provider", spec.keyVar, provider)
	}
	return spec.build(apiKey, timeout), nil
}
