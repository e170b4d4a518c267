package llm

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

// ErrInvalidConfig is returned by Config.Validate.
var ErrInvalidConfig = errors.New("invalid llm config")

// Config configures the OpenAI-compatible provider.
type Config struct {
	// APIKey is sent as the bearer token.
	APIKey string `yaml:"api_key" env:"LLM_API_KEY"`

	// BaseURL of the OpenAI-compatible API, including the version path,
	// e.g. https://api.openai.com/v1.
	BaseURL string `yaml:"base_url" env:"LLM_API_BASE"`

	// Model is the default model for every request.
	Model string `yaml:"model" env:"LLM_MODEL"`

	// ChatMode forces the chat (true) or legacy completions (false) API.
	// Nil means IsChatModel decides from the model name.
	ChatMode *bool `yaml:"chat_mode" env:"LLM_CHAT_MODE"`

	// Timeout per request. Default 60s.
	Timeout time.Duration `yaml:"timeout" env:"LLM_TIMEOUT"`
}

// DefaultConfig returns a config pointing at the OpenAI API.
func DefaultConfig() *Config {
	return &Config{
		BaseURL: "https://api.openai.com/v1",
		Timeout: 60 * time.Second,
	}
}

// NewConfig reads LLM_* environment variables over DefaultConfig.
func NewConfig() *Config {
	cfg := DefaultConfig()
	cfg.APIKey = os.Getenv("LLM_API_KEY")
	if v := os.Getenv("LLM_API_BASE"); v != "" {
		cfg.BaseURL = v
	}
	cfg.Model = os.Getenv("LLM_MODEL")
	if v := os.Getenv("LLM_CHAT_MODE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.ChatMode = &b
		}
	}
	if v := os.Getenv("LLM_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.Timeout = d
		}
	}
	return cfg
}

// ApplyDefaults fills zero fields.
func (c *Config) ApplyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = "https://api.openai.com/v1"
	}
	if c.Timeout <= 0 {
		c.Timeout = 60 * time.Second
	}
}

// Validate ensures the provider can be built.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("%w: missing LLM_API_BASE", ErrInvalidConfig)
	}
	if c.Model == "" {
		return fmt.Errorf("%w: missing LLM_MODEL", ErrInvalidConfig)
	}
	return nil
}

// WithModel sets the model.
func (c *Config) WithModel(model string) *Config {
	c.Model = model
	return c
}

// WithChatMode forces the chat or completions API.
func (c *Config) WithChatMode(chat bool) *Config {
	c.ChatMode = &chat
	return c
}
