package backend

import (
	"context"
	"io"

	"go.uber.org/fx"

	"github.com/Aleph-Alpha/microcore/v1/embedding"
	"github.com/Aleph-Alpha/microcore/v1/embeddingdb"
	"github.com/Aleph-Alpha/microcore/v1/logger"
	"github.com/Aleph-Alpha/microcore/v1/observability"
	"github.com/Aleph-Alpha/microcore/v1/tracer"
)

// FXModule provides the configured embedding database.
//
// It provides:
//   - embeddingdb.DB     the backend wrapped by embeddingdb.NewInstrumented
//   - *embeddingdb.Store string based helpers on top of it
//
// A backend.Config and an embedding.Embedder must be available. A
// *logger.Logger, an observability.Observer (from metrics.FXModule) and a
// *tracer.Tracer are picked up when present.
var FXModule = fx.Module("backend",
	fx.Provide(
		NewWithDI,
		embeddingdb.NewStore,
	),
	fx.Invoke(RegisterBackendLifecycle),
)

// Params groups the dependencies of NewWithDI.
type Params struct {
	fx.In

	Config   Config
	Embedder embedding.Embedder
	Logger   *logger.Logger         `optional:"true"`
	Observer observability.Observer `optional:"true"`
	Tracer   *tracer.Tracer         `optional:"true"`
}

// NewWithDI opens the backend and instruments it.
func NewWithDI(p Params) (embeddingdb.DB, error) {
	var log Logger
	if p.Logger != nil {
		log = p.Logger
	}

	db, err := New(p.Config, p.Embedder, log)
	if err != nil {
		return nil, err
	}

	opts := embeddingdb.InstrumentOptions{
		Name:     p.Config.Type,
		Observer: p.Observer,
	}
	if log != nil {
		opts.Logger = log
	}
	if p.Tracer != nil {
		opts.Tracer = p.Tracer
	}
	return embeddingdb.NewInstrumented(db, opts), nil
}

// RegisterBackendLifecycle closes the backend on stop.
func RegisterBackendLifecycle(lc fx.Lifecycle, db embeddingdb.DB) {
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			if c, ok := db.(io.Closer); ok {
				return c.Close()
			}
			return nil
		},
	})
}
