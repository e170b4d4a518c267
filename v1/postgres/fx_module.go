package postgres

import (
	"context"
	"sync"

	"go.uber.org/fx"

	"github.com/Aleph-Alpha/microcore/v1/embedding"
)

// FXModule is an fx module that provides the Postgres connection and the
// pgvector Store on top of it. It sets up lifecycle hooks that start the
// connection monitor and close the pool on shutdown.
var FXModule = fx.Module("postgres",
	fx.Provide(
		NewPostgresClientWithDI,
		NewStoreWithDI,
	),
	fx.Invoke(RegisterPostgresLifecycle),
)

// PostgresParams groups the dependencies needed to create a Postgres client
// via dependency injection.
type PostgresParams struct {
	fx.In

	Config Config
	Logger Logger `optional:"true"`
}

// NewPostgresClientWithDI creates a new Postgres client using dependency injection.
//
// Example usage with fx:
//
//	app := fx.New(
//	    postgres.FXModule,
//	    embedding.FXModule,
//	    fx.Provide(
//	        func() postgres.Config {
//	            return loadPostgresConfig() // Your config loading function
//	        },
//	    ),
//	)
func NewPostgresClientWithDI(params PostgresParams) (*Postgres, error) {
	return NewPostgres(params.Config, params.Logger)
}

// StoreParams groups the dependencies of the pgvector Store.
type StoreParams struct {
	fx.In

	Config   Config
	Postgres *Postgres
	Embedder embedding.Embedder
}

// NewStoreWithDI creates the Store from the injected client and embedder.
func NewStoreWithDI(params StoreParams) (*Store, error) {
	return NewStore(params.Postgres, params.Embedder, params.Config.Store)
}

// PostgresLifeCycleParams groups the dependencies needed for Postgres lifecycle management.
type PostgresLifeCycleParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Postgres  *Postgres
}

// RegisterPostgresLifecycle registers lifecycle hooks for the Postgres database component.
// It sets up:
// 1. Connection monitoring on application start
// 2. Automatic reconnection on application start
// 3. Graceful shutdown of database connections on application stop
//
// The monitor goroutines outlive OnStart, so they run on their own context
// which OnStop cancels. A WaitGroup makes OnStop wait for them to finish.
func RegisterPostgresLifecycle(params PostgresLifeCycleParams) {
	wg := &sync.WaitGroup{}
	runCtx, cancel := context.WithCancel(context.Background())

	params.Lifecycle.Append(fx.Hook{
		OnStart: func(context.Context) error {
			wg.Add(2)
			go func() {
				defer wg.Done()
				params.Postgres.MonitorConnection(runCtx)
			}()
			go func() {
				defer wg.Done()
				params.Postgres.RetryConnection(runCtx)
			}()
			return nil
		},
		OnStop: func(context.Context) error {
			cancel()
			err := params.Postgres.Close()
			wg.Wait()
			return err
		},
	})
}
