package embedding

import (
	"context"

	"go.uber.org/fx"
)

// FXModule wires the embedding system into Fx.
//
// It provides:
//   - *Client                (NewClient)
//   - Embedder               (the same client, as interface)
//   - Lifecycle hook         (RegisterEmbeddingLifecycle)
//
// A *Config must be supplied, either with fx.Provide(embedding.NewConfig)
// for environment based settings or by config.FXModule.
var FXModule = fx.Module(
	"embedding",

	fx.Provide(
		NewClient,       // -> *Client
		ProvideEmbedder, // -> Embedder
	),

	fx.Invoke(RegisterEmbeddingLifecycle),
)

// ProvideEmbedder exposes the client as the Embedder interface.
func ProvideEmbedder(c *Client) Embedder {
	return c
}

// RegisterEmbeddingLifecycle ensures that the Client (and its provider)
// are properly cleaned up on application shutdown.
func RegisterEmbeddingLifecycle(lc fx.Lifecycle, client *Client) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return client.Close()
		},
	})
}
