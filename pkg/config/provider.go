package config

import (
	"fmt"
	"os"

	"github.com/entrhq/quill/pkg/llm/openai"
)

// ProviderFlags are the command-line overrides for the LLM provider.
// Empty values mean "not given".
type ProviderFlags struct {
	Model   string
	BaseURL string
	APIKey  string
}

// BuildProvider creates an LLM provider with precedence
// CLI flags > environment > config file > defaults.
func BuildProvider(flags ProviderFlags) (*openai.Provider, error) {
	model := flags.Model
	baseURL := flags.BaseURL
	apiKey := flags.APIKey

	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if baseURL == "" {
		baseURL = os.Getenv("OPENAI_BASE_URL")
	}

	temperature := defaultTemperature
	if fromFile := GetLLM(); fromFile != nil {
		if model == "" {
			model = fromFile.GetModel()
		}
		if baseURL == "" {
			baseURL = fromFile.GetBaseURL()
		}
		if apiKey == "" {
			apiKey = fromFile.GetAPIKey()
		}
		temperature = fromFile.GetTemperature()
	}

	if model == "" {
		model = openai.DefaultModel
	}
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required. Set OPENAI_API_KEY, use -api-key, or run: quill config set llm.api_key <key>")
	}

	opts := []openai.ProviderOption{
		openai.WithModel(model),
		openai.WithTemperature(temperature),
	}
	if baseURL != "" {
		opts = append(opts, openai.WithBaseURL(baseURL))
	}

	provider, err := openai.NewProvider(apiKey, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM provider: %w", err)
	}
	return provider, nil
}
