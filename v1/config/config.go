package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Aleph-Alpha/microcore/v1/backend"
	"github.com/Aleph-Alpha/microcore/v1/embedding"
	"github.com/Aleph-Alpha/microcore/v1/llm"
	"github.com/Aleph-Alpha/microcore/v1/logger"
	"github.com/Aleph-Alpha/microcore/v1/metrics"
	"github.com/Aleph-Alpha/microcore/v1/tracer"
)

// Config is the root of a microcore YAML configuration file.
type Config struct {
	Logger      logger.Config     `yaml:"logger"`
	Embedding   *embedding.Config `yaml:"embedding"`
	EmbeddingDB backend.Config    `yaml:"embeddingdb"`

	// LLM is optional. Without a model the section is not validated.
	LLM     *llm.Config    `yaml:"llm"`
	Metrics metrics.Config `yaml:"metrics"`
	Tracer  tracer.Config  `yaml:"tracer"`
}

// Default returns a configuration that runs fully in process: the hashing
// embedder, the in-memory backend and info level logging.
func Default() Config {
	emb := embedding.DefaultConfig().WithProvider(embedding.ProviderHashing)
	emb.ApplyDefaults()

	return Config{
		Logger:      logger.Config{Level: logger.Info, ServiceName: "microcore"},
		Embedding:   emb,
		EmbeddingDB: backend.DefaultConfig(),
		LLM:         llm.DefaultConfig(),
		Metrics:     metrics.DefaultConfig(),
		Tracer:      tracer.Config{},
	}
}

// Load reads the YAML file at path. ${VAR} and ${VAR:-default} references
// are replaced with environment values before parsing. Keys missing from the
// file keep their Default values.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	return Parse(data)
}

// MustLoad loads configuration or panics.
func MustLoad(path string) Config {
	cfg, err := Load(path)
	if err != nil {
		panic(err)
	}
	return cfg
}

// Parse is Load for an in-memory document.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(expandEnvVars(data), &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// ApplyDefaults fills sections the file set to null and zero fields.
func (c *Config) ApplyDefaults() {
	if c.Embedding == nil {
		c.Embedding = embedding.DefaultConfig()
	}
	c.Embedding.ApplyDefaults()

	if c.LLM == nil {
		c.LLM = llm.DefaultConfig()
	}
	c.LLM.ApplyDefaults()

	if c.Metrics.Address == "" {
		c.Metrics.Address = metrics.DefaultMetricsAddress
	}
	if c.Tracer.ServiceName == "" {
		c.Tracer.ServiceName = c.Logger.ServiceName
	}
}

// Validate checks every section that is in use.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Logger.Level) {
	case "", logger.Debug, logger.Info, logger.Warning, logger.Error:
	default:
		return fmt.Errorf("logger.level must be one of debug, info, warning, error, got %q", c.Logger.Level)
	}
	if err := c.Embedding.Validate(); err != nil {
		return fmt.Errorf("embedding: %w", err)
	}
	if err := c.EmbeddingDB.Validate(); err != nil {
		return fmt.Errorf("embeddingdb: %w", err)
	}
	if c.LLM.Model != "" {
		if err := c.LLM.Validate(); err != nil {
			return fmt.Errorf("llm: %w", err)
		}
	}
	if c.Tracer.EnableExport && c.Tracer.Endpoint == "" && os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT") == "" &&
		os.Getenv("OTEL_EXPORTER_OTLP_TRACES_ENDPOINT") == "" {
		return fmt.Errorf("tracer.endpoint is required when export is enabled")
	}
	return nil
}

var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment
// values. The default applies when VAR is unset or empty.
func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1])
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
