package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultPath is the config file looked up when --config is not given.
const DefaultPath = "smartcook.yaml"

// Config holds all smartcook configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Auth    AuthConfig    `yaml:"auth"`
	LLM     LLMConfig     `yaml:"llm"`
	Images  ImagesConfig  `yaml:"images"`
	Cache   CacheConfig   `yaml:"cache"`
	Lint    LintConfig    `yaml:"lint"`
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig configures the HTTP API and its database.
type ServerConfig struct {
	Addr         string `yaml:"addr" env:"SMARTCOOK_ADDR"`
	DatabasePath string `yaml:"database_path" env:"SMARTCOOK_DB"`
	DataDir      string `yaml:"data_dir" env:"SMARTCOOK_DATA_DIR"`
	ReadTimeout  string `yaml:"read_timeout"`
	WriteTimeout string `yaml:"write_timeout"`
}

// AuthConfig configures bearer token verification.
type AuthConfig struct {
	TokenSecret string `yaml:"token_secret" env:"SMARTCOOK_TOKEN_SECRET"`
	TokenTTL    string `yaml:"token_ttl"`
}

// CacheConfig configures the optional redis cache for recommendations.
type CacheConfig struct {
	RedisURL          string `yaml:"redis_url" env:"REDIS_URL"`
	RecommendationTTL string `yaml:"recommendation_ttl"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:         ":8080",
			DatabasePath: ".smartcook/smartcook.db",
			DataDir:      ".smartcook",
			ReadTimeout:  "15s",
			WriteTimeout: "60s",
		},
		Auth: AuthConfig{
			TokenTTL: "720h",
		},
		LLM: LLMConfig{
			Provider:    ProviderOpenAI,
			Model:       "gpt-4o-mini",
			Temperature: 0.7,
			MaxTokens:   2000,
			Timeout:     "60s",
		},
		Images: ImagesConfig{
			Provider:     ImageProviderCloudflare,
			SignedURLTTL: "1h",
			Variant:      "public",
		},
		Cache: CacheConfig{
			RecommendationTTL: "6h",
		},
		Lint: LintConfig{
			Include:  []string{"**/*.{ts,tsx,js,jsx,mjs,cjs}"},
			Exclude:  []string{"**/node_modules/**", "**/.next/**", "**/.git/**", "**/dist/**"},
			Rules:    map[string]string{},
			Format:   "text",
			CacheDir: ".smartcook",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load loads configuration from a YAML file, then applies .env and environment overrides.
// A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	case os.IsNotExist(err):
	default:
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	// The .env file is optional.
	_ = godotenv.Load()

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// applyEnvOverrides handles overrides that select a provider as well as a value.
func (c *Config) applyEnvOverrides() {
	if key := os.Getenv("OPENAI_KEY"); key != "" {
		c.LLM.APIKey = key
		c.LLM.Provider = ProviderOpenAI
	}
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		c.LLM.APIKey = key
		c.LLM.Provider = ProviderOpenAI
	}
	// Gemini only wins when no OpenAI key is present.
	if key := os.Getenv("GEMINI_API_KEY"); key != "" && c.LLM.APIKey == "" {
		c.LLM.APIKey = key
		c.LLM.Provider = ProviderGemini
	}
	if p := os.Getenv("SMARTCOOK_LLM_PROVIDER"); p != "" {
		c.LLM.Provider = p
	}
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// GetReadTimeout returns the HTTP read timeout.
func (c *Config) GetReadTimeout() time.Duration {
	return parseDuration(c.Server.ReadTimeout, 15*time.Second)
}

// GetWriteTimeout returns the HTTP write timeout.
func (c *Config) GetWriteTimeout() time.Duration {
	return parseDuration(c.Server.WriteTimeout, 60*time.Second)
}

// GetTokenTTL returns the lifetime of issued bearer tokens.
func (c *Config) GetTokenTTL() time.Duration {
	return parseDuration(c.Auth.TokenTTL, 30*24*time.Hour)
}

// GetRecommendationTTL returns how long cached recommendations live.
func (c *Config) GetRecommendationTTL() time.Duration {
	return parseDuration(c.Cache.RecommendationTTL, 6*time.Hour)
}

// LogsDir is where category log files go.
func (c *Config) LogsDir() string {
	return filepath.Join(c.Server.DataDir, "logs")
}

// Validate checks what `serve` needs. Lint-only runs do not call it.
func (c *Config) Validate() error {
	if c.Auth.TokenSecret == "" {
		return fmt.Errorf("auth token secret not configured (set SMARTCOOK_TOKEN_SECRET)")
	}
	if err := c.LLM.validate(); err != nil {
		return err
	}
	if err := c.Images.validate(); err != nil {
		return err
	}
	return c.Lint.validate()
}
