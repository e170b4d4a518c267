package qdrant

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/go-connections/nat"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"

	"github.com/Aleph-Alpha/microcore/v1/embedding"
	"github.com/Aleph-Alpha/microcore/v1/embeddingdb"
	"github.com/Aleph-Alpha/microcore/v1/embeddingdb/dbtest"
)

// QdrantContainer represents a Qdrant container for testing
type QdrantContainer struct {
	testcontainers.Container
	Host string
	Port string
}

// setupQdrantContainer sets up a Qdrant container for testing
func setupQdrantContainer(ctx context.Context) (*QdrantContainer, error) {
	port, err := getFreePort()
	if err != nil {
		return nil, fmt.Errorf("could not get free port: %w", err)
	}

	portStr := fmt.Sprintf("%d", port)
	portBindings := nat.PortMap{
		"6334/tcp": []nat.PortBinding{{HostPort: portStr}},
	}

	req := testcontainers.ContainerRequest{
		Image: "qdrant/qdrant:v1.11.0",
		Env: map[string]string{
			"QDRANT__SERVICE__GRPC_PORT": "6334",
		},
		ExposedPorts: []string{"6334/tcp"},
		HostConfigModifier: func(cfg *container.HostConfig) {
			cfg.PortBindings = portBindings
		},
		WaitingFor: wait.ForListeningPort("6334/tcp").WithStartupTimeout(60 * time.Second),
	}

	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start qdrant container: %w", err)
	}

	host, err := c.Host(ctx)
	if err != nil {
		_ = c.Terminate(ctx)
		return nil, fmt.Errorf("failed to get host: %w", err)
	}

	mappedPort, err := c.MappedPort(ctx, "6334")
	if err != nil {
		_ = c.Terminate(ctx)
		return nil, fmt.Errorf("failed to get mapped port: %w", err)
	}
	portStr = mappedPort.Port()

	if err := waitForQdrantReady(host, portStr, 30*time.Second); err != nil {
		_ = c.Terminate(ctx)
		return nil, fmt.Errorf("qdrant container not ready: %w", err)
	}

	return &QdrantContainer{Container: c, Host: host, Port: portStr}, nil
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

// waitForQdrantReady attempts to connect to Qdrant until it's ready or times out
func waitForQdrantReady(host, port string, timeout time.Duration) error {
	startTime := time.Now()
	for {
		if time.Since(startTime) > timeout {
			return fmt.Errorf("timed out waiting for Qdrant to be ready after %s", timeout)
		}

		conn, err := net.DialTimeout("tcp", net.JoinHostPort(host, port), 2*time.Second)
		if err == nil {
			_ = conn.Close()
			// the gRPC server accepts connections slightly before it serves
			time.Sleep(2 * time.Second)
			return nil
		}

		time.Sleep(500 * time.Millisecond)
	}
}

func startQdrant(t *testing.T) *Config {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	containerInstance, err := setupQdrantContainer(ctx)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := containerInstance.Terminate(ctx); err != nil {
			t.Errorf("failed to terminate container: %s", err)
		}
	})

	portNum, err := strconv.Atoi(containerInstance.Port)
	require.NoError(t, err)

	return &Config{
		Endpoint:           containerInstance.Host,
		Port:               portNum,
		Distance:           DistanceCosine,
		CheckCompatibility: false,
		Timeout:            10 * time.Second,
		ConnectTimeout:     5 * time.Second,
	}
}

// TestQdrantWithFXModule starts the backend through FXModule and runs the
// embeddingdb conformance suite against it.
func TestQdrantWithFXModule(t *testing.T) {
	cfg := startQdrant(t)
	ctx := context.Background()

	var (
		client  *QdrantClient
		adapter *Adapter
	)

	app := fxtest.New(t,
		fx.Provide(
			func() *Config { return cfg },
			func() embedding.Embedder { return embedding.NewHashingEmbedder(64) },
		),
		FXModule,
		fx.Populate(&client, &adapter),
	)
	require.NoError(t, app.Start(ctx))
	defer app.RequireStop()

	require.NotNil(t, client)
	require.NotNil(t, adapter)
	assert.NoError(t, client.healthCheck())

	dbtest.Run(t, func(t *testing.T) embeddingdb.DB { return adapter })
}

func TestAdapterCollectionInfo(t *testing.T) {
	cfg := startQdrant(t)
	ctx := context.Background()

	client, err := NewQdrantClient(QdrantParams{Config: cfg})
	require.NoError(t, err)
	defer func() { _ = client.Close() }()

	adapter, err := NewAdapter(client, embedding.NewHashingEmbedder(32))
	require.NoError(t, err)

	t.Run("EnsureCollectionIsIdempotent", func(t *testing.T) {
		require.NoError(t, adapter.EnsureCollection(ctx, "ensure_me"))
		require.NoError(t, adapter.EnsureCollection(ctx, "ensure_me"))
		assert.ErrorIs(t, adapter.EnsureCollection(ctx, ""), embeddingdb.ErrInvalidArgument)

		names, err := adapter.ListCollections(ctx)
		require.NoError(t, err)
		assert.Contains(t, names, "ensure_me")
	})

	t.Run("GetCollection", func(t *testing.T) {
		require.NoError(t, adapter.SaveMany(ctx, "info", embeddingdb.Docs("a", "b", "c")))

		col, err := adapter.GetCollection(ctx, "info")
		require.NoError(t, err)
		assert.Equal(t, "info", col.Name)
		assert.Equal(t, 32, col.VectorSize)
		assert.Equal(t, "Cosine", col.Distance)
		assert.EqualValues(t, 3, col.Points)

		_, err = adapter.GetCollection(ctx, "does_not_exist")
		assert.Error(t, err)
	})

	t.Run("NonUUIDIDsRoundTrip", func(t *testing.T) {
		docs := []embeddingdb.Document{
			{ID: "readme.md#intro", Text: "introduction"},
			{ID: "7C9E6679-7425-40DE-944B-E07FC1F90AE7", Text: "upper case uuid"},
		}
		require.NoError(t, adapter.SaveMany(ctx, "ids", docs))

		all, err := adapter.GetAll(ctx, "ids")
		require.NoError(t, err)
		got := make([]string, len(all))
		for i, r := range all {
			got[i] = r.ID()
		}
		assert.ElementsMatch(t, []string{"readme.md#intro", "7C9E6679-7425-40DE-944B-E07FC1F90AE7"}, got)

		require.NoError(t, adapter.Delete(ctx, "ids", embeddingdb.ByID("readme.md#intro")))
		n, err := adapter.Count(ctx, "ids")
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})

	t.Run("SearchExtras", func(t *testing.T) {
		require.NoError(t, adapter.SaveMany(ctx, "extras", embeddingdb.Docs("red apple", "green pear", "blue sky")))

		res, err := embeddingdb.Find(ctx, adapter, "extras", embeddingdb.Text("red apple"),
			embeddingdb.WithExtra(ExtraExact, true),
			embeddingdb.WithExtra(ExtraHnswEf, 64),
			embeddingdb.WithExtra(ExtraScoreThreshold, 0.99),
		)
		require.NoError(t, err)
		require.Len(t, res, 1)
		assert.Equal(t, "red apple", res[0].String())
	})

	t.Run("GetAllPagesThroughLargeCollections", func(t *testing.T) {
		texts := make([]string, scrollPageSize*2+7)
		for i := range texts {
			texts[i] = fmt.Sprintf("document number %d", i)
		}
		require.NoError(t, adapter.SaveMany(ctx, "large", embeddingdb.Docs(texts...)))

		all, err := adapter.GetAll(ctx, "large")
		require.NoError(t, err)
		assert.Len(t, all, len(texts))

		n, err := adapter.Count(ctx, "large")
		require.NoError(t, err)
		assert.Equal(t, len(texts), n)
	})
}

func TestNewQdrantClientFailsFast(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	port, err := getFreePort()
	require.NoError(t, err)

	_, err = NewQdrantClient(QdrantParams{Config: &Config{
		Endpoint:       "127.0.0.1",
		Port:           port,
		ConnectTimeout: time.Second,
	}})
	assert.Error(t, err)
}
