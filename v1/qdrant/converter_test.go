package qdrant

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	qdrant "github.com/qdrant/go-client/qdrant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/Aleph-Alpha/microcore/v1/embeddingdb"
)

func TestPointID(t *testing.T) {
	const u = "7c9e6679-7425-40de-944b-e07fc1f90ae7"

	assert.Equal(t, u, PointID(u))
	assert.Equal(t, u, PointID("7C9E6679-7425-40DE-944B-E07FC1F90AE7"))

	a := PointID("doc-1")
	assert.Equal(t, a, PointID("doc-1"), "derived ids are stable")
	assert.NotEqual(t, a, PointID("doc-2"))
	parsed, err := uuid.Parse(a)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(5), parsed.Version())
}

func TestBuildPointAndBack(t *testing.T) {
	when := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	doc := embeddingdb.Document{
		ID:   "doc-1",
		Text: "hello world",
		Metadata: map[string]any{
			"kind":  "greeting",
			"rank":  3,
			"score": 0.5,
			"ok":    true,
			"tags":  []string{"a", "b"},
			"when":  when,
		},
	}

	p, err := buildPoint(doc, []float32{0.1, 0.2})
	require.NoError(t, err)
	assert.Equal(t, PointID("doc-1"), p.GetId().GetUuid())

	r, err := toSearchResult(p.GetId(), p.GetPayload(), 0.25)
	require.NoError(t, err)
	assert.Equal(t, "hello world", r.String())
	assert.Equal(t, "doc-1", r.ID())
	assert.Equal(t, 0.25, r.Distance())

	meta := r.Metadata()
	assert.Equal(t, "greeting", meta["kind"])
	assert.EqualValues(t, 3, meta["rank"])
	assert.Equal(t, 0.5, meta["score"])
	assert.Equal(t, true, meta["ok"])
	assert.Equal(t, []any{"a", "b"}, meta["tags"])
	assert.Equal(t, when.Format(time.RFC3339Nano), meta["when"])
}

func TestToSearchResultFallsBackToPointID(t *testing.T) {
	r, err := toSearchResult(qdrant.NewIDNum(42), map[string]*qdrant.Value{
		PayloadDocument: qdrant.NewValueString("legacy point"),
	}, 0)
	require.NoError(t, err)
	assert.Equal(t, "42", r.ID())
	assert.Equal(t, "legacy point", r.String())
	assert.Empty(t, r.Metadata())

	_, err = toSearchResult(nil, nil, 0)
	assert.Error(t, err)
}

func TestScoreToDistance(t *testing.T) {
	assert.InDelta(t, 0.1, scoreToDistance(qdrant.Distance_Cosine, 0.9), 1e-6)
	assert.InDelta(t, 0.1, scoreToDistance(qdrant.Distance_Dot, 0.9), 1e-6)
	assert.InDelta(t, 2.5, scoreToDistance(qdrant.Distance_Euclid, 2.5), 1e-6)
	assert.InDelta(t, 4, scoreToDistance(qdrant.Distance_Manhattan, 4), 1e-6)
}

func TestBuildFilter(t *testing.T) {
	f, err := buildFilter(nil)
	require.NoError(t, err)
	assert.Nil(t, f)

	when := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	f, err = buildFilter(embeddingdb.Where{
		"kind": "fruit",
		"rank": 3,
		"ok":   false,
		"when": when,
		"gone": nil,
	})
	require.NoError(t, err)
	require.Len(t, f.Must, 5)

	// Conditions are sorted by key.
	keys := make([]string, len(f.Must))
	for i, c := range f.Must {
		switch cond := c.ConditionOneOf.(type) {
		case *qdrant.Condition_Field:
			keys[i] = cond.Field.GetKey()
		case *qdrant.Condition_IsNull:
			keys[i] = cond.IsNull.GetKey()
		default:
			t.Fatalf("unexpected condition %T", cond)
		}
	}
	assert.Equal(t, []string{"metadata.gone", "metadata.kind", "metadata.ok", "metadata.rank", "metadata.when"}, keys)

	kind := f.Must[1].GetField()
	assert.Equal(t, "fruit", kind.GetMatch().GetKeyword())

	ok := f.Must[2].GetField()
	assert.False(t, ok.GetMatch().GetBoolean())

	rank := f.Must[3].GetField().GetRange()
	require.NotNil(t, rank)
	assert.Equal(t, 3.0, rank.GetGte())
	assert.Equal(t, 3.0, rank.GetLte())

	dt := f.Must[4].GetField().GetDatetimeRange()
	require.NotNil(t, dt)
	assert.Equal(t, when.Unix(), dt.GetGte().GetSeconds())
}

func TestBuildFilterRejectsUnsupportedValues(t *testing.T) {
	_, err := buildFilter(embeddingdb.Where{"tags": []string{"a"}})
	assert.ErrorIs(t, err, embeddingdb.ErrInvalidArgument)
}

func TestIsNotFound(t *testing.T) {
	nf := status.Error(codes.NotFound, "Collection `x` doesn't exist!")
	assert.True(t, isNotFound(nf))
	assert.True(t, isNotFound(fmt.Errorf("query: %w", nf)))
	assert.False(t, isNotFound(status.Error(codes.Internal, "boom")))
	assert.False(t, isNotFound(nil))
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())
	assert.Error(t, FromEndpoint("").Validate())
	assert.Error(t, DefaultConfig().WithPort(70000).Validate())
	assert.Error(t, DefaultConfig().WithDistance("hamming").Validate())

	d, err := DefaultConfig().WithDistance("Dot").qdrantDistance()
	require.NoError(t, err)
	assert.Equal(t, qdrant.Distance_Dot, d)
}

func TestBuildSearchParams(t *testing.T) {
	assert.Nil(t, buildSearchParams(embeddingdb.SearchParams{}))

	sp := buildSearchParams(embeddingdb.NewSearchParams(
		embeddingdb.WithExtra(ExtraHnswEf, 128),
		embeddingdb.WithExtra(ExtraExact, true),
	))
	require.NotNil(t, sp)
	assert.Equal(t, uint64(128), sp.GetHnswEf())
	assert.True(t, sp.GetExact())
}
