package embedding

import (
	"fmt"
	"os"
	"strconv"
)

// Supported providers.
const (
	// ProviderOpenAI talks to any OpenAI-compatible /embeddings endpoint.
	ProviderOpenAI = "openai"

	// ProviderHashing embeds locally with feature hashing. No network needed.
	ProviderHashing = "hashing"
)

// EMBEDDING_ENDPOINT must point to the root of the OpenAI-compatible inference
// service (no /embeddings appended). The provider appends paths
// automatically, so callers only need to supply the base URL.

type Config struct {
	// Provider selects the implementation: "openai" (default) or "hashing".
	Provider string `yaml:"provider" env:"EMBEDDING_PROVIDER"`

	// Inference endpoint and auth
	Endpoint     string `yaml:"endpoint" env:"EMBEDDING_ENDPOINT"`
	ServiceToken string `yaml:"service_token" env:"EMBEDDING_SERVICE_TOKEN"`

	// Model name sent with every request.
	Model string `yaml:"model" env:"EMBEDDING_MODEL"`

	// Dimensions of the produced vectors. Required: collections are
	// created with this size.
	Dimensions int `yaml:"dimensions" env:"EMBEDDING_DIMENSIONS"`

	HTTPTimeoutS int `yaml:"http_timeout_seconds" env:"EMBEDDING_HTTP_TIMEOUT_SECONDS"` // HTTP timeout seconds (default 30)

	// BatchSize caps the number of texts per provider request (default 64).
	BatchSize int `yaml:"batch_size" env:"EMBEDDING_BATCH_SIZE"`
}

// DefaultConfig returns a config with defaults applied and no endpoint.
func DefaultConfig() *Config {
	return &Config{
		Provider:     ProviderOpenAI,
		HTTPTimeoutS: 30,
		BatchSize:    64,
	}
}

// NewConfig reads from environment variables.
func NewConfig() *Config {
	cfg := DefaultConfig()
	if v := os.Getenv("EMBEDDING_PROVIDER"); v != "" {
		cfg.Provider = v
	}
	cfg.Endpoint = os.Getenv("EMBEDDING_ENDPOINT")
	cfg.ServiceToken = os.Getenv("EMBEDDING_SERVICE_TOKEN")
	cfg.Model = os.Getenv("EMBEDDING_MODEL")
	cfg.Dimensions = envInt("EMBEDDING_DIMENSIONS", 0)
	cfg.HTTPTimeoutS = envInt("EMBEDDING_HTTP_TIMEOUT_SECONDS", cfg.HTTPTimeoutS)
	cfg.BatchSize = envInt("EMBEDDING_BATCH_SIZE", cfg.BatchSize)
	return cfg
}

// ApplyDefaults fills zero fields.
func (c *Config) ApplyDefaults() {
	if c.Provider == "" {
		c.Provider = ProviderOpenAI
	}
	if c.HTTPTimeoutS <= 0 {
		c.HTTPTimeoutS = 30
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 64
	}
	if c.Provider == ProviderHashing && c.Dimensions == 0 {
		c.Dimensions = DefaultHashingDimensions
	}
}

// Validate ensures required fields are present.
func (c *Config) Validate() error {
	if c.Dimensions <= 0 {
		return fmt.Errorf("%w: dimensions must be positive (EMBEDDING_DIMENSIONS)", ErrInvalidConfig)
	}
	switch c.Provider {
	case ProviderOpenAI, "":
		if c.Endpoint == "" {
			return fmt.Errorf("%w: missing EMBEDDING_ENDPOINT", ErrInvalidConfig)
		}
		if c.ServiceToken == "" {
			return fmt.Errorf("%w: missing EMBEDDING_SERVICE_TOKEN", ErrInvalidConfig)
		}
		if c.Model == "" {
			return fmt.Errorf("%w: missing EMBEDDING_MODEL", ErrInvalidConfig)
		}
	case ProviderHashing:
	default:
		return fmt.Errorf("%w: unknown provider %q", ErrInvalidConfig, c.Provider)
	}
	return nil
}

// WithProvider sets the provider.
func (c *Config) WithProvider(p string) *Config {
	c.Provider = p
	return c
}

// WithModel sets model and dimensions.
func (c *Config) WithModel(model string, dimensions int) *Config {
	c.Model = model
	c.Dimensions = dimensions
	return c
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}
