package qdrant

import (
	"fmt"
	"strings"
	"time"

	qdrant "github.com/qdrant/go-client/qdrant"
)

// Distance metrics accepted in Config.Distance.
const (
	DistanceCosine    = "cosine"
	DistanceDot       = "dot"
	DistanceEuclid    = "euclid"
	DistanceManhattan = "manhattan"
)

// Config holds connection and behavior settings for the Qdrant backend.
//
// Example (programmatic):
//
//	cfg := qdrant.DefaultConfig()
//	cfg.Endpoint = "qdrant.internal"
//	cfg.ApiKey = os.Getenv("QDRANT_API_KEY")
//
// Example (builder style):
//
//	cfg := qdrant.FromEndpoint("localhost").
//	    WithApiKey(os.Getenv("QDRANT_API_KEY")).
//	    WithDistance(qdrant.DistanceDot)
type Config struct {
	// Hostname of the Qdrant server, e.g. "localhost".
	Endpoint string `yaml:"endpoint" env:"QDRANT_ENDPOINT"`

	// gRPC port of the Qdrant server. Defaults to 6334.
	Port int `yaml:"port" env:"QDRANT_PORT"`

	// Optional authentication token for secured deployments.
	ApiKey string `yaml:"api_key" env:"QDRANT_API_KEY"`

	// UseTLS enables TLS on the gRPC connection.
	UseTLS bool `yaml:"use_tls" env:"QDRANT_USE_TLS"`

	// Distance used for collections created by the backend.
	// One of "cosine" (default), "dot", "euclid", "manhattan".
	Distance string `yaml:"distance" env:"QDRANT_DISTANCE"`

	// Maximum request duration before timing out.
	Timeout time.Duration `yaml:"timeout" env:"QDRANT_TIMEOUT"`

	// Connection establishment timeout, also used for the startup health check.
	ConnectTimeout time.Duration `yaml:"connect_timeout" env:"QDRANT_CONNECT_TIMEOUT"`

	// Whether to perform version compatibility checks between client and server.
	CheckCompatibility bool `yaml:"check_compatibility" env:"QDRANT_CHECK_COMPATIBILITY"`
}

// DefaultConfig provides sensible defaults for most use cases.
func DefaultConfig() *Config {
	return &Config{
		Endpoint:           "localhost",
		Port:               6334,
		Distance:           DistanceCosine,
		Timeout:            5 * time.Second,
		ConnectTimeout:     5 * time.Second,
		CheckCompatibility: true,
	}
}

// FromEndpoint returns a default config pre-filled with a specific endpoint.
func FromEndpoint(host string) *Config {
	cfg := DefaultConfig()
	cfg.Endpoint = host
	return cfg
}

// Validate checks that the configuration can be used to connect.
func (c *Config) Validate() error {
	if c.Endpoint == "" {
		return fmt.Errorf("[Qdrant] endpoint is required")
	}
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("[Qdrant] invalid port %d", c.Port)
	}
	if _, err := c.qdrantDistance(); err != nil {
		return err
	}
	return nil
}

func (c *Config) qdrantDistance() (qdrant.Distance, error) {
	switch strings.ToLower(c.Distance) {
	case "", DistanceCosine:
		return qdrant.Distance_Cosine, nil
	case DistanceDot:
		return qdrant.Distance_Dot, nil
	case DistanceEuclid:
		return qdrant.Distance_Euclid, nil
	case DistanceManhattan:
		return qdrant.Distance_Manhattan, nil
	default:
		return qdrant.Distance_UnknownDistance, fmt.Errorf("[Qdrant] unknown distance %q", c.Distance)
	}
}

// Builder-style helpers
func (c *Config) WithApiKey(key string) *Config {
	c.ApiKey = key
	return c
}

func (c *Config) WithPort(port int) *Config {
	c.Port = port
	return c
}

func (c *Config) WithDistance(distance string) *Config {
	c.Distance = distance
	return c
}

func (c *Config) WithTimeout(d time.Duration) *Config {
	c.Timeout = d
	return c
}

func (c *Config) WithConnectTimeout(d time.Duration) *Config {
	c.ConnectTimeout = d
	return c
}

func (c *Config) WithTLS(enabled bool) *Config {
	c.UseTLS = enabled
	return c
}

func (c *Config) WithCompatibilityCheck(enabled bool) *Config {
	c.CheckCompatibility = enabled
	return c
}
