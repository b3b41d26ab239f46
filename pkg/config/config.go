// Package config provides configuration management for the debate CLI.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// TelegramConfig configures the optional Telegram event sink.
type TelegramConfig struct {
	BotToken string `json:"bot_token,omitempty"`
	ChatID   int64  `json:"chat_id,omitempty"`
}

// Config holds all configuration settings.
type Config struct {
	// Logging
	LogLevel string `json:"log_level"`
	LogFile  string `json:"log_file,omitempty"`

	// Default gateway settings. Agents may override the model per spec;
	// these fill in anything the roster leaves unset.
	APIKey          string `json:"api_key,omitempty"`
	APIBaseURL      string `json:"api_base_url,omitempty"`
	DefaultProvider string `json:"default_provider"`
	DefaultModel    string `json:"default_model"`

	// Turn execution
	MaxTurnRetries    int `json:"max_turn_retries"`     // total attempts per turn
	RetryInitialDelay int `json:"retry_initial_delay"`  // seconds before second attempt
	RateLimitDelayMS  int `json:"rate_limit_delay_ms"`  // pause between turns

	// Catalogs
	PersonasPath string `json:"personas_path,omitempty"`

	// Event sinks
	Telegram TelegramConfig `json:"telegram"`
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *Config {
	return &Config{
		LogLevel:          "INFO",
		DefaultProvider:   "openai",
		DefaultModel:      "gpt-4o",
		MaxTurnRetries:    3,
		RetryInitialDelay: 2,
		RateLimitDelayMS:  1000,
	}
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.json"
	}
	return filepath.Join(home, ".rostrum", "config.json")
}

// Load reads configuration from path, falling back to DefaultPath when
// path is empty and to defaults when no file exists. API keys may also
// come from the environment (OPENAI_API_KEY, ANTHROPIC_API_KEY).
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		path = DefaultPath()
	}

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// No file is fine; defaults plus env apply.
	case err != nil:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	default:
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if c.APIKey == "" {
		if key := os.Getenv("OPENAI_API_KEY"); key != "" {
			c.APIKey = key
		} else if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
			c.APIKey = key
			if c.DefaultProvider == "" || c.DefaultProvider == "openai" {
				c.DefaultProvider = "anthropic"
			}
		}
	}
	if base := os.Getenv("OPENAI_BASE_URL"); base != "" && c.APIBaseURL == "" {
		c.APIBaseURL = base
	}
}

func (c *Config) validate() error {
	if c.MaxTurnRetries < 1 {
		return fmt.Errorf("max_turn_retries must be >= 1, got %d", c.MaxTurnRetries)
	}
	if c.RetryInitialDelay < 0 {
		return fmt.Errorf("retry_initial_delay must be >= 0, got %d", c.RetryInitialDelay)
	}
	if c.RateLimitDelayMS < 0 {
		return fmt.Errorf("rate_limit_delay_ms must be >= 0, got %d", c.RateLimitDelayMS)
	}
	return nil
}

// RateLimitDelay returns the inter-turn throttle as a duration.
func (c *Config) RateLimitDelay() time.Duration {
	return time.Duration(c.RateLimitDelayMS) * time.Millisecond
}

// RetryDelay returns the initial retry backoff as a duration.
func (c *Config) RetryDelay() time.Duration {
	return time.Duration(c.RetryInitialDelay) * time.Second
}

// Save writes the configuration to path, creating parent directories.
func (c *Config) Save(path string) error {
	if path == "" {
		path = DefaultPath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
