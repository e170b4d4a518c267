package backend

import (
	"context"
	"io"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Aleph-Alpha/microcore/v1/embedding"
	"github.com/Aleph-Alpha/microcore/v1/embeddingdb"
	"github.com/Aleph-Alpha/microcore/v1/logger"
	"github.com/Aleph-Alpha/microcore/v1/memory"
	"github.com/Aleph-Alpha/microcore/v1/observability"
	"github.com/Aleph-Alpha/microcore/v1/sqlite"
)

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())

	cfg := DefaultConfig()
	cfg.Type = ""
	assert.Error(t, cfg.Validate())

	cfg.Type = "chroma"
	assert.Error(t, cfg.Validate())

	cfg.Type = TypeQdrant
	cfg.Qdrant = nil
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Type = TypeSQLite
	cfg.SQLite.Path = ""
	assert.Error(t, cfg.Validate())
}

func TestNewMemory(t *testing.T) {
	db, err := New(DefaultConfig(), embedding.NewHashingEmbedder(32), nil)
	require.NoError(t, err)
	_, ok := db.(*memory.Store)
	assert.True(t, ok)
}

func TestNewSQLite(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Type = TypeSQLite
	cfg.SQLite.Path = filepath.Join(t.TempDir(), "backend.db")

	db, err := New(cfg, embedding.NewHashingEmbedder(32), nil)
	require.NoError(t, err)
	_, ok := db.(*sqlite.Store)
	assert.True(t, ok)

	require.NoError(t, embeddingdb.Save(context.Background(), db, "c", "hello", nil))
	closer, ok := db.(io.Closer)
	require.True(t, ok)
	assert.NoError(t, closer.Close())
}

func TestNewRequiresEmbedder(t *testing.T) {
	_, err := New(DefaultConfig(), nil, nil)
	assert.Error(t, err)
}

func TestFXModuleInstrumentsBackend(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)

	var (
		mu  sync.Mutex
		ops []observability.OperationContext
	)
	obs := observability.ObserverFunc(func(c observability.OperationContext) {
		mu.Lock()
		defer mu.Unlock()
		ops = append(ops, c)
	})

	var (
		db    embeddingdb.DB
		store *embeddingdb.Store
	)
	app := fxtest.New(t,
		fx.Provide(
			func() Config { return DefaultConfig() },
			func() embedding.Embedder { return embedding.NewHashingEmbedder(32) },
			func() *logger.Logger { return logger.NewWithZap(zap.New(core), false) },
			func() observability.Observer { return obs },
		),
		FXModule,
		fx.Populate(&db, &store),
	)
	app.RequireStart()
	defer app.RequireStop()

	_, ok := db.(*embeddingdb.Instrumented)
	require.True(t, ok, "the backend is instrumented")

	ctx := context.Background()
	require.NoError(t, store.Save(ctx, "notes", "remember the milk", nil))
	hit, err := store.FindOne(ctx, "notes", "milk")
	require.NoError(t, err)
	require.NotNil(t, hit)

	mu.Lock()
	require.Len(t, ops, 2)
	assert.Equal(t, "save_many", ops[0].Operation)
	assert.Equal(t, "search", ops[1].Operation)
	assert.Equal(t, TypeMemory, ops[1].SubResource)
	assert.Equal(t, "notes", ops[1].Resource)
	assert.EqualValues(t, 1, ops[1].Size)
	mu.Unlock()

	assert.Equal(t, 2, logs.FilterMessage("embeddingdb operation completed").Len())
	assert.Equal(t, 1, logs.FilterMessage("[Memory] documents saved").Len(), "the logger reaches the memory backend")
}
