package embedding

import (
	"context"
	"errors"
)

// Embedder turns texts into vectors. Backends of the embeddingdb package
// depend on this interface.
type Embedder interface {
	// Embed returns one vector per input text, in input order.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions is the length of every returned vector.
	Dimensions() int
}

// Provider contract implemented by the concrete embedding sources.
// Client adds batching and result validation on top of it.
type Provider interface {
	Embedder
}

var (
	// ErrProviderFailure wraps every error reported by a remote provider.
	ErrProviderFailure = errors.New("embedding provider failure")

	// ErrInvalidConfig is returned by Config.Validate.
	ErrInvalidConfig = errors.New("invalid embedding config")
)
