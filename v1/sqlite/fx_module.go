package sqlite

import (
	"context"

	"go.uber.org/fx"

	"github.com/Aleph-Alpha/microcore/v1/embedding"
)

// FXModule provides *Store and closes it when the application stops.
var FXModule = fx.Module("sqlite",
	fx.Provide(NewStoreWithDI),
	fx.Invoke(RegisterSQLiteLifecycle),
)

// StoreParams groups the dependencies of the SQLite store.
type StoreParams struct {
	fx.In

	Config   Config
	Embedder embedding.Embedder
	Logger   Logger `optional:"true"`
}

// NewStoreWithDI opens the store from injected dependencies.
func NewStoreWithDI(p StoreParams) (*Store, error) {
	return NewStore(p.Config, p.Embedder, p.Logger)
}

// RegisterSQLiteLifecycle closes the database on stop.
func RegisterSQLiteLifecycle(lc fx.Lifecycle, s *Store) {
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return s.Close()
		},
	})
}
