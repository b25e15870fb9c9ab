package config

import (
	"fmt"
	"time"
)

// LLM providers for recipe recommendations.
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// ValidProviders lists all supported LLM providers.
var ValidProviders = []string{ProviderOpenAI, ProviderGemini}

// LLMConfig configures the recommendation model.
type LLMConfig struct {
	Provider    string  `yaml:"provider"` // openai, gemini
	APIKey      string  `yaml:"api_key"`
	Model       string  `yaml:"model" env:"SMARTCOOK_LLM_MODEL"`
	BaseURL     string  `yaml:"base_url" env:"SMARTCOOK_LLM_BASE_URL"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
	Timeout     string  `yaml:"timeout"`
}

// GetTimeout returns the per-call LLM timeout.
func (c LLMConfig) GetTimeout() time.Duration {
	return parseDuration(c.Timeout, 60*time.Second)
}

func (c LLMConfig) validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("LLM API key not configured (set OPENAI_KEY, OPENAI_API_KEY or GEMINI_API_KEY)")
	}
	for _, p := range ValidProviders {
		if c.Provider == p {
			return nil
		}
	}
	return fmt.Errorf("invalid LLM provider: %s (valid: %v)", c.Provider, ValidProviders)
}
