package backend

import (
	"context"
	"fmt"

	"github.com/Aleph-Alpha/microcore/v1/embedding"
	"github.com/Aleph-Alpha/microcore/v1/embeddingdb"
	"github.com/Aleph-Alpha/microcore/v1/memory"
	"github.com/Aleph-Alpha/microcore/v1/postgres"
	"github.com/Aleph-Alpha/microcore/v1/qdrant"
	"github.com/Aleph-Alpha/microcore/v1/sqlite"
)

// Logger is implemented by *logger.Logger and satisfies the logger
// interfaces of every backend package.
type Logger interface {
	Info(msg string, err error, fields ...map[string]interface{})
	Debug(msg string, err error, fields ...map[string]interface{})
	Error(msg string, err error, fields ...map[string]interface{})
}

// closingDB attaches the release of backend resources to a DB.
type closingDB struct {
	embeddingdb.DB
	close func() error
}

func (c closingDB) Close() error {
	return c.close()
}

// New opens the backend selected by cfg.Type. The returned DB implements
// io.Closer when the backend holds resources; callers should close it.
// log may be nil.
func New(cfg Config, embedder embedding.Embedder, log Logger) (embeddingdb.DB, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if embedder == nil {
		return nil, fmt.Errorf("[Backend] embedder is required")
	}

	switch cfg.Type {
	case TypeMemory:
		var ml memory.Logger
		if log != nil {
			ml = log
		}
		store, err := memory.New(cfg.Memory, embedder, ml)
		if err != nil {
			return nil, err
		}
		return store, nil

	case TypeQdrant:
		var ql qdrant.Logger
		if log != nil {
			ql = log
		}
		client, err := qdrant.NewQdrantClient(qdrant.QdrantParams{Config: cfg.Qdrant, Logger: ql})
		if err != nil {
			return nil, err
		}
		adapter, err := qdrant.NewAdapter(client, embedder)
		if err != nil {
			_ = client.Close()
			return nil, err
		}
		return adapter, nil

	case TypePostgres:
		var pl postgres.Logger
		if log != nil {
			pl = log
		}
		pg, err := postgres.NewPostgres(cfg.Postgres, pl)
		if err != nil {
			return nil, err
		}
		store, err := postgres.NewStore(pg, embedder, cfg.Postgres.Store)
		if err != nil {
			_ = pg.Close()
			return nil, err
		}
		// Close stops both loops through the shutdown signal.
		go pg.MonitorConnection(context.Background())
		go pg.RetryConnection(context.Background())
		return closingDB{DB: store, close: pg.Close}, nil

	case TypeSQLite:
		var sl sqlite.Logger
		if log != nil {
			sl = log
		}
		store, err := sqlite.NewStore(cfg.SQLite, embedder, sl)
		if err != nil {
			return nil, err
		}
		return store, nil
	}
	return nil, fmt.Errorf("[Backend] unknown type %q", cfg.Type)
}
