package llmfactory

import (
	"github.com/effective-security/sqlagent/llm"
	"github.com/effective-security/x/configloader"
)

// Config describes the configured LLM providers.
// The first provider in the list is the default one.
type Config struct {
	Providers []*ProviderConfig `json:"providers" yaml:"providers"`
}

// ProviderConfig describes a single LLM provider.
type ProviderConfig struct {
	// Name is a unique name of the provider entry, eg "openai-prod".
	Name string `json:"name" yaml:"name"`
	// Provider specifies the API flavor: OPENAI or ANTHROPIC.
	Provider llm.Provider `json:"provider" yaml:"provider"`
	// Token is the API key. Supports environment expansion, eg ${OPENAI_API_KEY}.
	Token        string `json:"token,omitempty" yaml:"token,omitempty"`
	DefaultModel string `json:"default_model,omitempty" yaml:"default_model,omitempty"`
	// BaseURL overrides the API endpoint, for OpenAI-compatible servers.
	BaseURL     string  `json:"base_url,omitempty" yaml:"base_url,omitempty"`
	Temperature float64 `json:"temperature,omitempty" yaml:"temperature,omitempty"`
	MaxTokens   int     `json:"max_tokens,omitempty" yaml:"max_tokens,omitempty"`
}

// LoadConfig from file
func LoadConfig(file string) (*Config, error) {
	cfg := new(Config)
	if file == "" {
		return cfg, nil
	}

	err := configloader.UnmarshalAndExpand(file, cfg)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}
