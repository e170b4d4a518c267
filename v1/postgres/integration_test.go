package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/go-connections/nat"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
	"go.uber.org/mock/gomock"

	"github.com/Aleph-Alpha/microcore/v1/embedding"
	"github.com/Aleph-Alpha/microcore/v1/embeddingdb"
	"github.com/Aleph-Alpha/microcore/v1/embeddingdb/dbtest"
)

// PostgresContainer represents a pgvector enabled Postgres container for testing
type PostgresContainer struct {
	testcontainers.Container
	Config Config
}

// setupPostgresContainer sets up a Postgres container for testing
func setupPostgresContainer(ctx context.Context) (*PostgresContainer, error) {
	port, err := getFreePort()
	if err != nil {
		return nil, fmt.Errorf("could not get free port: %w", err)
	}

	portStr := fmt.Sprintf("%d", port)
	portBindings := nat.PortMap{
		"5432/tcp": []nat.PortBinding{{HostPort: portStr}},
	}

	req := testcontainers.ContainerRequest{
		Image: "pgvector/pgvector:pg16",
		Env: map[string]string{
			"POSTGRES_USER":     "testuser",
			"POSTGRES_PASSWORD": "testpass",
			"POSTGRES_DB":       "testdb",
		},
		ExposedPorts: []string{"5432/tcp"},
		HostConfigModifier: func(cfg *container.HostConfig) {
			cfg.PortBindings = portBindings
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start postgres container: %w", err)
	}

	host, err := c.Host(ctx)
	if err != nil {
		_ = c.Terminate(ctx)
		return nil, fmt.Errorf("failed to get host: %w", err)
	}

	mappedPort, err := c.MappedPort(ctx, "5432")
	if err != nil {
		_ = c.Terminate(ctx)
		return nil, fmt.Errorf("failed to get mapped port: %w", err)
	}

	cfg := DefaultConfig()
	cfg.Connection = Connection{
		Host:     host,
		Port:     mappedPort.Port(),
		User:     "testuser",
		Password: "testpass",
		DbName:   "testdb",
		SSLMode:  "disable",
	}
	cfg.ConnectionDetails.HealthCheckInterval = time.Second

	if err := waitForPostgresReady(cfg.Connection, 30*time.Second); err != nil {
		_ = c.Terminate(ctx)
		return nil, fmt.Errorf("postgres container not ready: %w", err)
	}

	return &PostgresContainer{Container: c, Config: cfg}, nil
}

// getFreePort gets a free port from the OS
func getFreePort() (int, error) {
	l, err := net.Listen("tcp", "localhost:0")
	if err != nil {
		return 0, err
	}
	defer func() { _ = l.Close() }()

	return l.Addr().(*net.TCPAddr).Port, nil
}

// waitForPostgresReady pings the database through lib/pq until it answers or
// the timeout expires.
func waitForPostgresReady(conn Connection, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		db, err := sql.Open("postgres", conn.URL())
		if err == nil {
			err = db.Ping()
			_ = db.Close()
			if err == nil {
				return nil
			}
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("timed out waiting for PostgreSQL to be ready after %s: %w", timeout, err)
		}
		time.Sleep(500 * time.Millisecond)
	}
}

func startPostgres(t *testing.T) Config {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	pc, err := setupPostgresContainer(ctx)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := pc.Terminate(ctx); err != nil {
			t.Errorf("failed to terminate container: %s", err)
		}
	})
	return pc.Config
}

func newMockLogger(t *testing.T) *MockLogger {
	ctrl := gomock.NewController(t)
	log := NewMockLogger(ctrl)
	log.EXPECT().Info(gomock.Any(), gomock.Any(), gomock.Any()).AnyTimes()
	log.EXPECT().Debug(gomock.Any(), gomock.Any(), gomock.Any()).AnyTimes()
	log.EXPECT().Error(gomock.Any(), gomock.Any(), gomock.Any()).AnyTimes()
	return log
}

// TestPostgresWithFXModule starts the backend through FXModule and runs the
// embeddingdb conformance suite against it.
func TestPostgresWithFXModule(t *testing.T) {
	cfg := startPostgres(t)
	ctx := context.Background()

	var (
		pg    *Postgres
		store *Store
	)
	app := fxtest.New(t,
		fx.Provide(
			func() Config { return cfg },
			func() Logger { return newMockLogger(t) },
			func() embedding.Embedder { return embedding.NewHashingEmbedder(64) },
		),
		FXModule,
		fx.Populate(&pg, &store),
	)
	require.NoError(t, app.Start(ctx))
	defer app.RequireStop()

	require.NoError(t, pg.healthCheck())

	dbtest.Run(t, func(t *testing.T) embeddingdb.DB { return store })

	names, err := store.Collections(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, names)
}

func TestStoreFeatures(t *testing.T) {
	cfg := startPostgres(t)
	ctx := context.Background()

	pg, err := NewPostgres(cfg, newMockLogger(t))
	require.NoError(t, err)
	defer func() { _ = pg.Close() }()

	t.Run("HNSWIndexAndExtras", func(t *testing.T) {
		sc := cfg.Store
		sc.Table = "hnsw_docs"
		sc.Index = IndexHNSW
		store, err := NewStore(pg, embedding.NewHashingEmbedder(32), sc)
		require.NoError(t, err)

		require.NoError(t, store.SaveMany(ctx, "c", embeddingdb.Docs("red apple", "green pear", "blue sky")))
		hit, err := embeddingdb.FindOne(ctx, store, "c", embeddingdb.Text("green pear"),
			embeddingdb.WithExtra(ExtraHNSWEfSearch, 64),
			embeddingdb.WithExtra(ExtraIVFFlatProbes, 4),
		)
		require.NoError(t, err)
		require.NotNil(t, hit)
		assert.Equal(t, "green pear", hit.String())
	})

	t.Run("DimensionMismatch", func(t *testing.T) {
		sc := cfg.Store
		sc.Table = "dims_docs"
		_, err := NewStore(pg, embedding.NewHashingEmbedder(16), sc)
		require.NoError(t, err)

		_, err = NewStore(pg, embedding.NewHashingEmbedder(24), sc)
		assert.ErrorIs(t, err, ErrDimensionMismatch)
	})

	t.Run("L2Distance", func(t *testing.T) {
		sc := cfg.Store
		sc.Table = "l2_docs"
		sc.Distance = DistanceL2
		store, err := NewStore(pg, embedding.NewHashingEmbedder(32), sc)
		require.NoError(t, err)

		require.NoError(t, store.SaveMany(ctx, "c", embeddingdb.Docs("alpha", "beta")))
		res, err := store.Search(ctx, "c", embeddingdb.Text("alpha"), embeddingdb.SearchParams{NResults: 2})
		require.NoError(t, err)
		require.Len(t, res, 2)
		assert.Equal(t, "alpha", res[0].String())
		assert.InDelta(t, 0, res[0].Distance(), 1e-5)
		assert.Greater(t, res[1].Distance(), 0.0)
	})

	t.Run("TimeMetadata", func(t *testing.T) {
		store, err := NewStore(pg, embedding.NewHashingEmbedder(64), cfg.Store)
		require.NoError(t, err)

		when := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
		require.NoError(t, embeddingdb.Save(ctx, store, "times", "dated", map[string]any{"when": when}))
		require.NoError(t, embeddingdb.Save(ctx, store, "times", "undated", nil))

		res, err := embeddingdb.FindAll(ctx, store, "times", embeddingdb.Text("dated"),
			embeddingdb.WithWhere(embeddingdb.Where{"when": when}))
		require.NoError(t, err)
		require.Len(t, res, 1)
		assert.Equal(t, "2024-01-02T03:04:05Z", res[0].Metadata()["when"])
	})

	t.Run("ClosedClient", func(t *testing.T) {
		other, err := NewPostgres(cfg, nil)
		require.NoError(t, err)
		store, err := NewStore(other, embedding.NewHashingEmbedder(64), cfg.Store)
		require.NoError(t, err)

		require.NoError(t, other.Close())
		require.NoError(t, other.Close())

		_, err = store.Count(ctx, "anything")
		assert.ErrorIs(t, err, ErrNotConnected)
	})
}
