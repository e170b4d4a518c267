package qdrant

import (
	"context"
	"fmt"
	"time"

	qdrant "github.com/qdrant/go-client/qdrant"
)

//
// ──────────────────────────────────────────────────────────────
//   QDRANT CLIENT WRAPPER
// ──────────────────────────────────────────────────────────────
//
// This file owns the connection to Qdrant. Everything that speaks the
// embeddingdb contract lives in the Adapter (operations.go), which borrows
// the SDK client from here.
//
// Responsibilities:
//   • Establish and validate connectivity with Qdrant.
//   • Expose the underlying SDK client.
//   • Close the gRPC connection on shutdown.
//

// Logger is the subset of the logger package used by this package.
// *logger.Logger satisfies it.
type Logger interface {
	Info(msg string, err error, fields ...map[string]interface{})
	Debug(msg string, err error, fields ...map[string]interface{})
	Error(msg string, err error, fields ...map[string]interface{})
}

type nopLogger struct{}

func (nopLogger) Info(string, error, ...map[string]interface{})  {}
func (nopLogger) Debug(string, error, ...map[string]interface{}) {}
func (nopLogger) Error(string, error, ...map[string]interface{}) {}

// QdrantClient wraps the official Qdrant Go client.
type QdrantClient struct {
	api     *qdrant.Client
	cfg     *Config
	log     Logger
	started bool
}

const (
	defaultPort           = 6334
	defaultBatchSize      = 200 // default chunk size for batch upserts
	maxConcurrentSearches = 10  // default maximum concurrent searches of a batch query
	scrollPageSize        = 256
)

// NewQdrantClient ──────────────────────────────────────────────────────────────
// NewQdrantClient
// ──────────────────────────────────────────────────────────────
//
// NewQdrantClient connects to Qdrant and validates connectivity via a
// health check, so a misconfigured endpoint fails at startup instead of on
// the first request.
//
// Example:
//
//	client, err := qdrant.NewQdrantClient(qdrant.QdrantParams{Config: cfg})
func NewQdrantClient(p QdrantParams) (*QdrantClient, error) {
	if p.Config == nil {
		return nil, fmt.Errorf("[Qdrant] config is required")
	}
	if err := p.Config.Validate(); err != nil {
		return nil, err
	}

	log := p.Logger
	if log == nil {
		log = nopLogger{}
	}

	port := p.Config.Port
	if port == 0 {
		port = defaultPort
	}

	log.Info("[Qdrant] connecting", nil, map[string]interface{}{
		"endpoint": p.Config.Endpoint,
		"port":     port,
	})

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:                   p.Config.Endpoint,
		Port:                   port,
		APIKey:                 p.Config.ApiKey,
		UseTLS:                 p.Config.UseTLS,
		SkipCompatibilityCheck: !p.Config.CheckCompatibility,
	})
	if err != nil {
		return nil, fmt.Errorf("[Qdrant] failed to initialize client: %w", err)
	}

	qc := &QdrantClient{
		api:     client,
		cfg:     p.Config,
		log:     log,
		started: true,
	}

	if err := qc.healthCheck(); err != nil {
		_ = client.Close()
		return nil, err
	}

	log.Info("[Qdrant] client connected", nil, map[string]interface{}{"endpoint": p.Config.Endpoint})
	return qc, nil
}

// ──────────────────────────────────────────────────────────────
// healthCheck
// ──────────────────────────────────────────────────────────────
//
// healthCheck verifies the availability of the Qdrant service through the
// SDK health endpoint.
func (c *QdrantClient) healthCheck() error {
	if !c.started || c.api == nil {
		return fmt.Errorf("[Qdrant] client not initialized")
	}

	timeout := c.cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	resp, err := c.api.HealthCheck(ctx)
	if err != nil {
		return fmt.Errorf("[Qdrant] health check failed: %w", err)
	}

	c.log.Debug("[Qdrant] health check passed", nil, map[string]interface{}{
		"title":   resp.GetTitle(),
		"version": resp.GetVersion(),
	})
	return nil
}

// Client returns the underlying Qdrant SDK client for low-level operations.
func (c *QdrantClient) Client() *qdrant.Client {
	return c.api
}

// Config returns the configuration the client was built with.
func (c *QdrantClient) Config() *Config {
	return c.cfg
}

// requestContext bounds ctx with the configured request timeout.
func (c *QdrantClient) requestContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.cfg.Timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, c.cfg.Timeout)
}

// Close ──────────────────────────────────────────────────────────────
// Close
// ──────────────────────────────────────────────────────────────
//
// Close shuts down the gRPC connection. Calling it more than once is safe.
func (c *QdrantClient) Close() error {
	if !c.started {
		return nil
	}
	c.started = false

	if err := c.api.Close(); err != nil {
		return fmt.Errorf("[Qdrant] failed to close client: %w", err)
	}
	c.log.Info("[Qdrant] client connection closed", nil)
	return nil
}
