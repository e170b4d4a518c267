// Package dbtest is a conformance suite for embeddingdb.DB implementations.
//
// A backend test calls Run with a factory that returns a ready database:
//
//	func TestConformance(t *testing.T) {
//	    dbtest.Run(t, func(t *testing.T) embeddingdb.DB { return memory.New(memory.DefaultConfig(), emb, nil) })
//	}
//
// The factory may return the same database for every subtest; each subtest
// works in its own collection. The suite assumes an embedder for which a
// document is nearest to a query with identical text, which holds for
// embedding.NewHashingEmbedder and real models alike.
package dbtest

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aleph-Alpha/microcore/v1/embeddingdb"
)

// Factory returns the database under test.
type Factory func(t *testing.T) embeddingdb.DB

var collectionSeq atomic.Int64

// Collection returns a collection name that no other subtest uses.
func Collection(prefix string) string {
	return fmt.Sprintf("%s_%d", prefix, collectionSeq.Add(1))
}

var corpus = []embeddingdb.Document{
	{Text: "apples are red fruit", Metadata: map[string]any{"kind": "fruit", "rank": 1}},
	{Text: "bananas are yellow fruit", Metadata: map[string]any{"kind": "fruit", "rank": 2}},
	{Text: "carrots grow underground", Metadata: map[string]any{"kind": "vegetable", "rank": 3}},
	{Text: "the ocean is deep and blue", Metadata: map[string]any{"kind": "place", "rank": 4}},
	{Text: "mountains reach the clouds", Metadata: map[string]any{"kind": "place", "rank": 5}},
	{Text: "kettles boil water for tea", Metadata: map[string]any{"kind": "object", "rank": 6}},
	{Text: "violins play quiet music"},
}

// Run executes every conformance check against the database from newDB.
func Run(t *testing.T, newDB Factory) {
	t.Helper()

	tests := []struct {
		name string
		fn   func(t *testing.T, db embeddingdb.DB)
	}{
		{"SaveManyIncreasesCount", testSaveManyIncreasesCount},
		{"MissingCollectionIsEmpty", testMissingCollectionIsEmpty},
		{"FindOneOnEmptyCollection", testFindOneOnEmptyCollection},
		{"SearchRanksExactTextFirst", testSearchRanksExactTextFirst},
		{"SearchDefaultLimit", testSearchDefaultLimit},
		{"FindAllMatchesCountBoundedSearch", testFindAllMatchesCountBoundedSearch},
		{"SearchWhereFilter", testSearchWhereFilter},
		{"BatchQuery", testBatchQuery},
		{"GetAllReturnsEverything", testGetAllReturnsEverything},
		{"ClearEmptiesCollection", testClearEmptiesCollection},
		{"DeleteByID", testDeleteByID},
		{"DeleteNonexistentID", testDeleteNonexistentID},
		{"DeleteByWhere", testDeleteByWhere},
		{"SaveWithIDUpserts", testSaveWithIDUpserts},
		{"CollectionsAreIsolated", testCollectionsAreIsolated},
		{"InvalidArguments", testInvalidArguments},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.fn(t, newDB(t))
		})
	}
}

func seed(t *testing.T, db embeddingdb.DB, collection string) {
	t.Helper()
	require.NoError(t, db.SaveMany(context.Background(), collection, corpus))
}

func testSaveManyIncreasesCount(t *testing.T, db embeddingdb.DB) {
	ctx := context.Background()
	c := Collection("count")

	before, err := db.Count(ctx, c)
	require.NoError(t, err)
	assert.Equal(t, 0, before)

	seed(t, db, c)
	after, err := db.Count(ctx, c)
	require.NoError(t, err)
	assert.Equal(t, before+len(corpus), after)

	require.NoError(t, embeddingdb.Save(ctx, db, c, "one more", nil))
	after, err = db.Count(ctx, c)
	require.NoError(t, err)
	assert.Equal(t, len(corpus)+1, after)

	require.NoError(t, db.SaveMany(ctx, c, nil))
	after, err = db.Count(ctx, c)
	require.NoError(t, err)
	assert.Equal(t, len(corpus)+1, after)
}

func testMissingCollectionIsEmpty(t *testing.T, db embeddingdb.DB) {
	ctx := context.Background()
	c := Collection("missing")

	res, err := db.Search(ctx, c, embeddingdb.Text("anything"), embeddingdb.SearchParams{})
	require.NoError(t, err)
	assert.Empty(t, res)

	all, err := db.GetAll(ctx, c)
	require.NoError(t, err)
	assert.Empty(t, all)

	require.NoError(t, db.Delete(ctx, c, embeddingdb.ByID("nope")))
	require.NoError(t, db.Clear(ctx, c))
}

func testFindOneOnEmptyCollection(t *testing.T, db embeddingdb.DB) {
	hit, err := embeddingdb.FindOne(context.Background(), db, Collection("findone"), embeddingdb.Text("tea"))
	require.NoError(t, err)
	assert.Nil(t, hit)
}

func testSearchRanksExactTextFirst(t *testing.T, db embeddingdb.DB) {
	ctx := context.Background()
	c := Collection("rank")
	seed(t, db, c)

	hit, err := embeddingdb.FindOne(ctx, db, c, embeddingdb.Text("carrots grow underground"))
	require.NoError(t, err)
	require.NotNil(t, hit)
	assert.True(t, hit.Equal("carrots grow underground"))
	assert.NotEmpty(t, hit.ID())
	assert.InDelta(t, 0, hit.Distance(), 1e-4)
	assert.Equal(t, "vegetable", hit.Metadata()["kind"])

	res, err := db.Search(ctx, c, embeddingdb.Text("carrots grow underground"), embeddingdb.SearchParams{NResults: 3})
	require.NoError(t, err)
	require.Len(t, res, 3)
	for i := 1; i < len(res); i++ {
		assert.LessOrEqual(t, res[i-1].Distance(), res[i].Distance())
	}
}

func testSearchDefaultLimit(t *testing.T, db embeddingdb.DB) {
	ctx := context.Background()
	c := Collection("limit")
	seed(t, db, c)

	res, err := db.Search(ctx, c, embeddingdb.Text("fruit"), embeddingdb.SearchParams{})
	require.NoError(t, err)
	assert.Len(t, res, embeddingdb.DefaultNResults)
}

func testFindAllMatchesCountBoundedSearch(t *testing.T, db embeddingdb.DB) {
	ctx := context.Background()
	c := Collection("findall")
	seed(t, db, c)

	count, err := db.Count(ctx, c)
	require.NoError(t, err)

	all, err := embeddingdb.FindAll(ctx, db, c, embeddingdb.Text("fruit"))
	require.NoError(t, err)
	assert.LessOrEqual(t, len(all), count)

	bounded, err := db.Search(ctx, c, embeddingdb.Text("fruit"), embeddingdb.SearchParams{NResults: count})
	require.NoError(t, err)
	assert.Equal(t, len(bounded), len(all))
	assert.ElementsMatch(t, embeddingdb.Strings(bounded), embeddingdb.Strings(all))
}

func testSearchWhereFilter(t *testing.T, db embeddingdb.DB) {
	ctx := context.Background()
	c := Collection("where")
	seed(t, db, c)

	res, err := embeddingdb.FindAll(ctx, db, c, embeddingdb.Text("anything"), embeddingdb.WithWhere(embeddingdb.Where{"kind": "place"}))
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"the ocean is deep and blue", "mountains reach the clouds"}, embeddingdb.Strings(res))
	for _, r := range res {
		assert.Equal(t, "place", r.Metadata()["kind"])
	}

	res, err = embeddingdb.FindAll(ctx, db, c, embeddingdb.Text("anything"), embeddingdb.WithWhere(embeddingdb.Where{"rank": 3}))
	require.NoError(t, err)
	assert.Equal(t, []string{"carrots grow underground"}, embeddingdb.Strings(res))

	res, err = embeddingdb.FindAll(ctx, db, c, embeddingdb.Text("anything"), embeddingdb.WithWhere(embeddingdb.Where{"kind": "nothing"}))
	require.NoError(t, err)
	assert.Empty(t, res)
}

func testBatchQuery(t *testing.T, db embeddingdb.DB) {
	ctx := context.Background()
	c := Collection("batch")
	seed(t, db, c)

	res, err := db.Search(ctx, c, embeddingdb.Texts("apples are red fruit", "kettles boil water for tea"), embeddingdb.SearchParams{NResults: 2})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"apples are red fruit", "kettles boil water for tea"}, embeddingdb.Strings(res))
}

func testGetAllReturnsEverything(t *testing.T, db embeddingdb.DB) {
	ctx := context.Background()
	c := Collection("getall")
	seed(t, db, c)

	all, err := db.GetAll(ctx, c)
	require.NoError(t, err)
	require.Len(t, all, len(corpus))

	want := make([]string, len(corpus))
	for i, d := range corpus {
		want[i] = d.Text
	}
	assert.ElementsMatch(t, want, embeddingdb.Strings(all))
	for _, r := range all {
		assert.NotEmpty(t, r.ID())
		assert.NotNil(t, r.Metadata())
	}
}

func testClearEmptiesCollection(t *testing.T, db embeddingdb.DB) {
	ctx := context.Background()
	c := Collection("clear")
	seed(t, db, c)

	require.NoError(t, db.Clear(ctx, c))

	all, err := db.GetAll(ctx, c)
	require.NoError(t, err)
	assert.Empty(t, all)

	n, err := db.Count(ctx, c)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	// The collection is usable again afterwards.
	require.NoError(t, embeddingdb.Save(ctx, db, c, "fresh start", nil))
	n, err = db.Count(ctx, c)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func testDeleteByID(t *testing.T, db embeddingdb.DB) {
	ctx := context.Background()
	c := Collection("delid")
	seed(t, db, c)

	all, err := db.GetAll(ctx, c)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(all), 2)

	require.NoError(t, db.Delete(ctx, c, embeddingdb.ByID(all[0].ID())))
	n, err := db.Count(ctx, c)
	require.NoError(t, err)
	assert.Equal(t, len(corpus)-1, n)

	require.NoError(t, db.Delete(ctx, c, embeddingdb.ByIDs(all[1].ID(), "not-there")))
	n, err = db.Count(ctx, c)
	require.NoError(t, err)
	assert.Equal(t, len(corpus)-2, n)
}

func testDeleteNonexistentID(t *testing.T, db embeddingdb.DB) {
	ctx := context.Background()
	c := Collection("delnone")
	seed(t, db, c)

	require.NoError(t, db.Delete(ctx, c, embeddingdb.ByID("nonexistent-id")))
	n, err := db.Count(ctx, c)
	require.NoError(t, err)
	assert.Equal(t, len(corpus), n)
}

func testDeleteByWhere(t *testing.T, db embeddingdb.DB) {
	ctx := context.Background()
	c := Collection("delwhere")
	seed(t, db, c)

	require.NoError(t, db.Delete(ctx, c, embeddingdb.ByWhere(embeddingdb.Where{"kind": "fruit"})))

	n, err := db.Count(ctx, c)
	require.NoError(t, err)
	assert.Equal(t, len(corpus)-2, n)

	res, err := embeddingdb.FindAll(ctx, db, c, embeddingdb.Text("fruit"), embeddingdb.WithWhere(embeddingdb.Where{"kind": "fruit"}))
	require.NoError(t, err)
	assert.Empty(t, res)
}

func testSaveWithIDUpserts(t *testing.T, db embeddingdb.DB) {
	ctx := context.Background()
	c := Collection("upsert")

	require.NoError(t, db.SaveMany(ctx, c, []embeddingdb.Document{{ID: "doc-1", Text: "first version"}}))
	require.NoError(t, db.SaveMany(ctx, c, []embeddingdb.Document{{ID: "doc-1", Text: "second version", Metadata: map[string]any{"v": 2}}}))

	all, err := db.GetAll(ctx, c)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "doc-1", all[0].ID())
	assert.True(t, all[0].Equal("second version"))
	assert.EqualValues(t, 2, all[0].Metadata()["v"])

	require.NoError(t, db.Delete(ctx, c, embeddingdb.ByID("doc-1")))
	n, err := db.Count(ctx, c)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func testCollectionsAreIsolated(t *testing.T, db embeddingdb.DB) {
	ctx := context.Background()
	a, b := Collection("iso_a"), Collection("iso_b")

	require.NoError(t, db.SaveMany(ctx, a, embeddingdb.Docs("only in a")))
	require.NoError(t, db.SaveMany(ctx, b, embeddingdb.Docs("only in b", "also in b")))

	na, err := db.Count(ctx, a)
	require.NoError(t, err)
	nb, err := db.Count(ctx, b)
	require.NoError(t, err)
	assert.Equal(t, 1, na)
	assert.Equal(t, 2, nb)

	require.NoError(t, db.Clear(ctx, a))
	nb, err = db.Count(ctx, b)
	require.NoError(t, err)
	assert.Equal(t, 2, nb)
}

func testInvalidArguments(t *testing.T, db embeddingdb.DB) {
	ctx := context.Background()

	_, err := db.Search(ctx, "", embeddingdb.Text("q"), embeddingdb.SearchParams{})
	assert.True(t, errors.Is(err, embeddingdb.ErrInvalidArgument), "empty collection: %v", err)

	_, err = db.Search(ctx, Collection("invalid"), nil, embeddingdb.SearchParams{})
	assert.True(t, errors.Is(err, embeddingdb.ErrInvalidArgument), "empty query: %v", err)

	err = db.Delete(ctx, Collection("invalid"), embeddingdb.Selector{})
	assert.True(t, errors.Is(err, embeddingdb.ErrInvalidArgument), "empty selector: %v", err)

	err = db.SaveMany(ctx, "", embeddingdb.Docs("x"))
	assert.True(t, errors.Is(err, embeddingdb.ErrInvalidArgument), "save into empty collection: %v", err)
}
