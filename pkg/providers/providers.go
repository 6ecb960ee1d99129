// Package providers wraps the LLM completion APIs an LLM-driven policy can use.
package providers

import (
	"context"
	"fmt"
)

// LLMClient completes a single prompt with the given model.
type LLMClient interface {
	Complete(ctx context.Context, model string, prompt string) (string, error)
}

type ProviderParams struct {
	BaseURL string
	APIKey  string
}

type ProviderOption func(*ProviderParams)

func WithBaseURL(baseURL string) ProviderOption {
	return func(p *ProviderParams) {
		p.BaseURL = baseURL
	}
}

func WithAPIKey(apiKey string) ProviderOption {
	return func(p *ProviderParams) {
		p.APIKey = apiKey
	}
}

// New returns the named provider: "openai" or "gemini".
func New(ctx context.Context, name string, opts ...ProviderOption) (LLMClient, error) {
	switch name {
	case "openai":
		return OpenAi(ctx, opts...), nil
	case "gemini":
		c, err := Gemini(ctx, opts...)
		if err != nil {
			return nil, err
		}
		return c, nil
	}
	return nil, fmt.Errorf("unknown LLM provider %q", name)
}
