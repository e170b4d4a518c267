package memory

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Aleph-Alpha/microcore/v1/embedding"
	"github.com/Aleph-Alpha/microcore/v1/embeddingdb"
	"github.com/Aleph-Alpha/microcore/v1/embeddingdb/dbtest"
	"github.com/Aleph-Alpha/microcore/v1/logger"
)

func newTestStore(t *testing.T, metric string) *Store {
	t.Helper()
	s, err := New(Config{Metric: metric}, embedding.NewHashingEmbedder(embedding.DefaultHashingDimensions), nil)
	require.NoError(t, err)
	return s
}

func TestConformance(t *testing.T) {
	s := newTestStore(t, MetricCosine)
	dbtest.Run(t, func(t *testing.T) embeddingdb.DB { return s })
}

func TestConformanceFreshStorePerTest(t *testing.T) {
	dbtest.Run(t, func(t *testing.T) embeddingdb.DB { return newTestStore(t, "") })
}

func TestNewRejectsBadConfig(t *testing.T) {
	_, err := New(Config{Metric: "manhattan"}, embedding.NewHashingEmbedder(8), nil)
	assert.Error(t, err)

	_, err = New(DefaultConfig(), nil, nil)
	assert.Error(t, err)
}

func TestMetricsOrderNeighbours(t *testing.T) {
	for _, metric := range []string{MetricCosine, MetricL2, MetricDot} {
		t.Run(metric, func(t *testing.T) {
			s := newTestStore(t, metric)
			ctx := context.Background()
			require.NoError(t, s.SaveMany(ctx, "c", embeddingdb.Docs("green tea leaves", "black coffee beans", "green tea")))

			res, err := s.Search(ctx, "c", embeddingdb.Text("green tea"), embeddingdb.SearchParams{NResults: 2})
			require.NoError(t, err)
			require.Len(t, res, 2)
			assert.Equal(t, "green tea", res[0].String())
			assert.Equal(t, "green tea leaves", res[1].String())
		})
	}
}

func TestGetAllKeepsInsertionOrder(t *testing.T) {
	s := newTestStore(t, MetricCosine)
	ctx := context.Background()
	require.NoError(t, s.SaveMany(ctx, "c", embeddingdb.Docs("one", "two", "three")))
	require.NoError(t, s.SaveMany(ctx, "c", []embeddingdb.Document{{ID: "x", Text: "four"}}))

	all, err := s.GetAll(ctx, "c")
	require.NoError(t, err)
	assert.Equal(t, []string{"one", "two", "three", "four"}, embeddingdb.Strings(all))
	for _, r := range all {
		assert.Zero(t, r.Distance())
	}

	require.NoError(t, s.Delete(ctx, "c", embeddingdb.ByIDs(all[1].ID())))
	all, err = s.GetAll(ctx, "c")
	require.NoError(t, err)
	assert.Equal(t, []string{"one", "three", "four"}, embeddingdb.Strings(all))

	// Upserting an existing id keeps its position.
	require.NoError(t, s.SaveMany(ctx, "c", []embeddingdb.Document{{ID: "x", Text: "FOUR"}}))
	all, err = s.GetAll(ctx, "c")
	require.NoError(t, err)
	assert.Equal(t, []string{"one", "three", "FOUR"}, embeddingdb.Strings(all))
}

func TestMetadataIsCopied(t *testing.T) {
	s := newTestStore(t, MetricCosine)
	ctx := context.Background()
	meta := map[string]any{"k": "v"}
	require.NoError(t, s.SaveMany(ctx, "c", []embeddingdb.Document{{Text: "t", Metadata: meta}}))
	meta["k"] = "changed"

	all, err := s.GetAll(ctx, "c")
	require.NoError(t, err)
	require.Len(t, all, 1)
	got := all[0].Metadata()
	assert.Equal(t, "v", got["k"])

	got["k"] = "mutated"
	all, err = s.GetAll(ctx, "c")
	require.NoError(t, err)
	assert.Equal(t, "v", all[0].Metadata()["k"])
}

type failingEmbedder struct{}

func (failingEmbedder) Embed(context.Context, []string) ([][]float32, error) {
	return nil, errors.New("boom")
}

func (failingEmbedder) Dimensions() int { return 4 }

func TestEmbedderErrorsPropagate(t *testing.T) {
	s, err := New(DefaultConfig(), failingEmbedder{}, nil)
	require.NoError(t, err)

	err = s.SaveMany(context.Background(), "c", embeddingdb.Docs("x"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")

	// An empty collection short-circuits before embedding.
	res, err := s.Search(context.Background(), "c", embeddingdb.Text("x"), embeddingdb.SearchParams{})
	require.NoError(t, err)
	assert.Empty(t, res)
}

func TestCollections(t *testing.T) {
	s := newTestStore(t, MetricCosine)
	ctx := context.Background()
	require.NoError(t, s.SaveMany(ctx, "b", embeddingdb.Docs("x")))
	require.NoError(t, s.SaveMany(ctx, "a", embeddingdb.Docs("y")))
	assert.Equal(t, []string{"a", "b"}, s.Collections())

	all, err := s.GetAll(ctx, "a")
	require.NoError(t, err)
	require.NoError(t, s.Delete(ctx, "a", embeddingdb.ByID(all[0].ID())))
	assert.Equal(t, []string{"b"}, s.Collections())
}

func TestDistanceFunctions(t *testing.T) {
	a := []float32{1, 0}
	b := []float32{0, 1}

	assert.InDelta(t, 0, cosineDistance(a, a), 1e-9)
	assert.InDelta(t, 1, cosineDistance(a, b), 1e-9)
	assert.InDelta(t, 1, cosineDistance(a, []float32{0, 0}), 1e-9)
	assert.InDelta(t, math.Sqrt2, l2Distance(a, b), 1e-9)
	assert.InDelta(t, -1, dotDistance(a, a), 1e-9)
	assert.True(t, math.IsInf(cosineDistance(a, []float32{1}), 1))
}

func TestStoreLogsWrites(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	s, err := New(DefaultConfig(), embedding.NewHashingEmbedder(16), logger.NewWithZap(zap.New(core), false))
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, s.SaveMany(ctx, "notes", embeddingdb.Docs("a", "b")))
	require.NoError(t, s.Clear(ctx, "notes"))
	require.NoError(t, s.Clear(ctx, "notes"))

	saved := logs.FilterMessage("[Memory] documents saved").All()
	require.Len(t, saved, 1)
	assert.EqualValues(t, 2, saved[0].ContextMap()["count"])
	assert.Equal(t, "notes", saved[0].ContextMap()["collection"])
	assert.Equal(t, 1, logs.FilterMessage("[Memory] collection cleared").Len())
}
