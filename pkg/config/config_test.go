package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("ANTHROPIC_API_KEY", "")
	t.Setenv("OPENAI_BASE_URL", "")
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "INFO", cfg.LogLevel)
	assert.Equal(t, "openai", cfg.DefaultProvider)
	assert.Equal(t, "gpt-4o", cfg.DefaultModel)
	assert.Equal(t, 3, cfg.MaxTurnRetries)
	assert.Equal(t, 2, cfg.RetryInitialDelay)
	assert.Equal(t, 1000, cfg.RateLimitDelayMS)
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.json")
	data := `{
		"log_level": "DEBUG",
		"default_provider": "anthropic",
		"default_model": "claude-3-5-sonnet-20241022",
		"max_turn_retries": 5,
		"rate_limit_delay_ms": 250,
		"telegram": {"bot_token": "tok", "chat_id": 42}
	}`
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "DEBUG", cfg.LogLevel)
	assert.Equal(t, "anthropic", cfg.DefaultProvider)
	assert.Equal(t, 5, cfg.MaxTurnRetries)
	assert.Equal(t, 250, cfg.RateLimitDelayMS)
	assert.Equal(t, "tok", cfg.Telegram.BotToken)
	assert.Equal(t, int64(42), cfg.Telegram.ChatID)

	// Fields absent from the file keep their defaults.
	assert.Equal(t, 2, cfg.RetryInitialDelay)
}

func TestLoad_MalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte("{broken"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_EnvFallbacks(t *testing.T) {
	clearEnv(t)
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant-env")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	require.NoError(t, err)

	assert.Equal(t, "sk-ant-env", cfg.APIKey)
	assert.Equal(t, "anthropic", cfg.DefaultProvider, "anthropic key switches the default provider")
}

func TestLoad_FileKeyBeatsEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("OPENAI_API_KEY", "sk-env")

	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"api_key": "sk-file"}`), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "sk-file", cfg.APIKey)
}

func TestLoad_Validation(t *testing.T) {
	clearEnv(t)

	tests := []struct {
		name string
		data string
	}{
		{"zero retries", `{"max_turn_retries": 0}`},
		{"negative retry delay", `{"retry_initial_delay": -1}`},
		{"negative rate limit", `{"rate_limit_delay_ms": -5}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.json")
			require.NoError(t, os.WriteFile(path, []byte(tt.data), 0644))
			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

func TestDurationAccessors(t *testing.T) {
	cfg := &Config{RetryInitialDelay: 2, RateLimitDelayMS: 1500}

	assert.Equal(t, 2*time.Second, cfg.RetryDelay())
	assert.Equal(t, 1500*time.Millisecond, cfg.RateLimitDelay())
}

func TestSaveRoundTrip(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "nested", "config.json")
	cfg := DefaultConfig()
	cfg.LogLevel = "WARN"
	cfg.Telegram.ChatID = 7

	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "WARN", loaded.LogLevel)
	assert.Equal(t, int64(7), loaded.Telegram.ChatID)
}
