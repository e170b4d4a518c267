package embedding

import (
	"context"
	"fmt"
)

// Client is the public entrypoint for computing embeddings.
//
// It hides all provider details (inference endpoints, HTTP, etc.)
// from the application layer and implements Embedder.
type Client struct {
	provider  Provider
	batchSize int
}

var _ Embedder = (*Client)(nil)

// NewClient constructs a Client from Config.
// It validates the config and internally constructs the provider.
// Application code should depend on Embedder or *Client, not on Provider.
func NewClient(cfg *Config) (*Client, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("embedding: invalid config: %w", err)
	}

	var (
		p   Provider
		err error
	)
	switch cfg.Provider {
	case ProviderHashing:
		p = NewHashingEmbedder(cfg.Dimensions)
	default:
		p, err = newOpenAIProvider(cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("embedding: failed to create provider: %w", err)
	}

	return &Client{provider: p, batchSize: cfg.BatchSize}, nil
}

// NewClientWithProvider wraps an existing provider.
func NewClientWithProvider(p Provider, batchSize int) *Client {
	if batchSize <= 0 {
		batchSize = 64
	}
	return &Client{provider: p, batchSize: batchSize}
}

// Embed embeds texts in chunks of the configured batch size and checks that
// the provider answered with one vector of the right size per text.
func (c *Client) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += c.batchSize {
		end := min(start+c.batchSize, len(texts))

		vectors, err := c.provider.Embed(ctx, texts[start:end])
		if err != nil {
			return nil, fmt.Errorf("embedding: batch [%d:%d]: %w", start, end, err)
		}
		if len(vectors) != end-start {
			return nil, fmt.Errorf("embedding: batch [%d:%d]: got %d vectors for %d texts: %w",
				start, end, len(vectors), end-start, ErrProviderFailure)
		}
		for i, v := range vectors {
			if len(v) != c.provider.Dimensions() {
				return nil, fmt.Errorf("embedding: text %d: got %d dimensions, want %d: %w",
					start+i, len(v), c.provider.Dimensions(), ErrProviderFailure)
			}
		}
		out = append(out, vectors...)
	}
	return out, nil
}

// EmbedOne embeds a single text.
func (c *Client) EmbedOne(ctx context.Context, text string) ([]float32, error) {
	vectors, err := c.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// Dimensions reports the vector size of the provider.
func (c *Client) Dimensions() int {
	return c.provider.Dimensions()
}

// Close allows the client to release any internal resources used by the provider.
// Currently this is a no-op unless the provider implements Close().
func (c *Client) Close() error {
	if closer, ok := c.provider.(interface{ Close() error }); ok {
		return closer.Close()
	}
	return nil
}
