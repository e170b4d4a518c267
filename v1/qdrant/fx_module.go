package qdrant

import (
	"context"
	"sync"

	"go.uber.org/fx"

	"github.com/Aleph-Alpha/microcore/v1/embedding"
)

// FXModule defines the Fx module for the Qdrant backend.
//
// The module:
//  1. Provides NewQdrantClient, which connects and health-checks Qdrant.
//  2. Provides NewAdapterFromParams, the embeddingdb.DB implementation.
//  3. Invokes RegisterQdrantLifecycle to close the connection on shutdown.
//
// Usage:
//
//	app := fx.New(
//	    embedding.FXModule,
//	    qdrant.FXModule,
//	    // other modules...
//	)
//
// Dependencies required by this module:
//   - a *qdrant.Config
//   - an embedding.Embedder
//   - optionally a qdrant.Logger
var FXModule = fx.Module("qdrant",
	fx.Provide(
		NewQdrantClient,
		NewAdapterFromParams,
	),
	fx.Invoke(RegisterQdrantLifecycle),
)

// QdrantParams defines dependencies needed to construct the Qdrant client.
type QdrantParams struct {
	fx.In

	Config *Config
	Logger Logger `optional:"true"`
}

// AdapterParams defines dependencies needed to construct the Adapter.
type AdapterParams struct {
	fx.In

	Client   *QdrantClient
	Embedder embedding.Embedder
}

// NewAdapterFromParams is the Fx constructor of the Adapter.
func NewAdapterFromParams(p AdapterParams) (*Adapter, error) {
	return NewAdapter(p.Client, p.Embedder)
}

// RegisterQdrantLifecycle closes the Qdrant client on shutdown.
func RegisterQdrantLifecycle(lc fx.Lifecycle, client *QdrantClient) {
	var once sync.Once

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			var err error
			once.Do(func() {
				err = client.Close()
			})
			return err
		},
	})
}
