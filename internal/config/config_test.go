package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearLLMEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"OPENAI_KEY", "OPENAI_API_KEY", "GEMINI_API_KEY", "SMARTCOOK_LLM_PROVIDER"} {
		t.Setenv(k, "")
	}
}

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	clearLLMEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	def := DefaultConfig()
	assert.Equal(t, def.Server.Addr, cfg.Server.Addr)
	assert.Equal(t, ProviderOpenAI, cfg.LLM.Provider)
	assert.Equal(t, "gpt-4o-mini", cfg.LLM.Model)
	assert.Equal(t, time.Hour, cfg.Images.GetSignedURLTTL())
}

func TestLoad_YAMLOverridesDefaults(t *testing.T) {
	clearLLMEnv(t)
	path := filepath.Join(t.TempDir(), "smartcook.yaml")
	yamlData := `
server:
  addr: ":9090"
llm:
  provider: gemini
  model: gemini-2.5-flash
lint:
  rules:
    api-schema/require-body-schema: warn
  concurrency: 3
`
	require.NoError(t, os.WriteFile(path, []byte(yamlData), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, ProviderGemini, cfg.LLM.Provider)
	assert.Equal(t, "gemini-2.5-flash", cfg.LLM.Model)
	assert.Equal(t, "warn", cfg.Lint.Rules["api-schema/require-body-schema"])
	assert.Equal(t, 3, cfg.Lint.Concurrency)
	// untouched sections keep defaults
	assert.Equal(t, ".smartcook/smartcook.db", cfg.Server.DatabasePath)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [unclosed"), 0644))

	_, err := Load(path)
	require.Error(t, err)
}

func TestLoad_EnvTagsOverride(t *testing.T) {
	clearLLMEnv(t)
	t.Setenv("SMARTCOOK_ADDR", ":7000")
	t.Setenv("CLOUDFLARE_ACCOUNT_HASH", "hash123")
	t.Setenv("SMARTCOOK_DEBUG", "true")

	cfg, err := Load(filepath.Join(t.TempDir(), "none.yaml"))
	require.NoError(t, err)
	assert.Equal(t, ":7000", cfg.Server.Addr)
	assert.Equal(t, "hash123", cfg.Images.AccountHash)
	assert.True(t, cfg.Logging.DebugMode)
}

func TestEnvOverrides_LLM(t *testing.T) {
	t.Run("OPENAI_KEY selects openai", func(t *testing.T) {
		clearLLMEnv(t)
		t.Setenv("OPENAI_KEY", "oa-key")

		cfg := &Config{LLM: LLMConfig{Provider: ProviderGemini}}
		cfg.applyEnvOverrides()

		assert.Equal(t, "oa-key", cfg.LLM.APIKey)
		assert.Equal(t, ProviderOpenAI, cfg.LLM.Provider)
	})

	t.Run("GEMINI_API_KEY used when no openai key", func(t *testing.T) {
		clearLLMEnv(t)
		t.Setenv("GEMINI_API_KEY", "gm-key")

		cfg := &Config{}
		cfg.applyEnvOverrides()

		assert.Equal(t, "gm-key", cfg.LLM.APIKey)
		assert.Equal(t, ProviderGemini, cfg.LLM.Provider)
	})

	t.Run("openai key takes precedence over gemini", func(t *testing.T) {
		clearLLMEnv(t)
		t.Setenv("OPENAI_API_KEY", "oa-key")
		t.Setenv("GEMINI_API_KEY", "gm-key")

		cfg := &Config{}
		cfg.applyEnvOverrides()

		assert.Equal(t, "oa-key", cfg.LLM.APIKey)
		assert.Equal(t, ProviderOpenAI, cfg.LLM.Provider)
	})

	t.Run("explicit provider wins", func(t *testing.T) {
		clearLLMEnv(t)
		t.Setenv("OPENAI_API_KEY", "oa-key")
		t.Setenv("SMARTCOOK_LLM_PROVIDER", ProviderGemini)

		cfg := &Config{}
		cfg.applyEnvOverrides()

		assert.Equal(t, ProviderGemini, cfg.LLM.Provider)
	})
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	require.Error(t, cfg.Validate(), "missing secret must fail")

	cfg.Auth.TokenSecret = "s3cret"
	cfg.LLM.APIKey = "key"
	cfg.Images.AccountID = "acct"
	cfg.Images.APIToken = "tok"
	require.NoError(t, cfg.Validate())

	cfg.LLM.Provider = "zai"
	require.Error(t, cfg.Validate())
	cfg.LLM.Provider = ProviderOpenAI

	cfg.Images.Provider = ImageProviderS3
	require.Error(t, cfg.Validate(), "s3 without bucket must fail")
	cfg.Images.Bucket = "photos"
	cfg.Images.Region = "us-east-1"
	require.NoError(t, cfg.Validate())

	cfg.Lint.Rules = map[string]string{"api-schema/require-body-schema": "loud"}
	require.Error(t, cfg.Validate())
}

func TestSaveRoundTrip(t *testing.T) {
	clearLLMEnv(t)
	path := filepath.Join(t.TempDir(), "nested", "smartcook.yaml")
	cfg := DefaultConfig()
	cfg.Server.Addr = ":6060"
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":6060", loaded.Server.Addr)
}

func TestDurationGettersFallBack(t *testing.T) {
	cfg := &Config{}
	assert.Equal(t, 15*time.Second, cfg.GetReadTimeout())
	assert.Equal(t, 60*time.Second, cfg.GetWriteTimeout())
	assert.Equal(t, 30*24*time.Hour, cfg.GetTokenTTL())
	assert.Equal(t, 6*time.Hour, cfg.GetRecommendationTTL())
	assert.Equal(t, 60*time.Second, cfg.LLM.GetTimeout())
}
