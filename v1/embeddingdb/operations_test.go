package embeddingdb

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestFindIsSearchAlias(t *testing.T) {
	ctrl := gomock.NewController(t)
	db := NewMockDB(ctrl)
	ctx := context.Background()

	want := []SearchResult{NewSearchResult("a", "1", 0.1, nil)}
	db.EXPECT().
		Search(ctx, "docs", Query{"q"}, SearchParams{NResults: 3, Where: Where{"lang": "en"}}).
		Return(want, nil)

	got, err := Find(ctx, db, "docs", Text("q"), WithLimit(3), WithWhere(Where{"lang": "en"}))
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestFindAllUsesNoLimit(t *testing.T) {
	ctrl := gomock.NewController(t)
	db := NewMockDB(ctrl)
	ctx := context.Background()

	db.EXPECT().
		Search(ctx, "docs", Query{"q"}, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, _ Query, p SearchParams) ([]SearchResult, error) {
			_, bounded := p.Limit()
			assert.False(t, bounded)
			assert.Equal(t, Where{"k": 1}, p.Where)
			assert.Equal(t, 64, p.Extra["hnsw_ef"])
			return nil, nil
		})

	_, err := FindAll(ctx, db, "docs", Text("q"), WithLimit(2), WithWhere(Where{"k": 1}), WithExtra("hnsw_ef", 64))
	require.NoError(t, err)
}

func TestFindOneReturnsNilOnEmpty(t *testing.T) {
	ctrl := gomock.NewController(t)
	db := NewMockDB(ctrl)
	ctx := context.Background()

	db.EXPECT().Search(ctx, "empty", Query{"q"}, SearchParams{NResults: 1}).Return([]SearchResult{}, nil)

	got, err := FindOne(ctx, db, "empty", Text("q"))
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestFindOneReturnsFirst(t *testing.T) {
	ctrl := gomock.NewController(t)
	db := NewMockDB(ctrl)
	ctx := context.Background()

	db.EXPECT().Search(ctx, "docs", Query{"q"}, SearchParams{NResults: 1}).
		Return([]SearchResult{NewSearchResult("best", "1", 0, nil)}, nil)

	got, err := FindOne(ctx, db, "docs", Text("q"), WithNoLimit())
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.Equal("best"))
}

func TestFindOnePropagatesError(t *testing.T) {
	ctrl := gomock.NewController(t)
	db := NewMockDB(ctrl)
	boom := errors.New("boom")

	db.EXPECT().Search(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, boom)

	got, err := FindOne(context.Background(), db, "docs", Text("q"))
	assert.ErrorIs(t, err, boom)
	assert.Nil(t, got)
}

func TestSaveWrapsSaveMany(t *testing.T) {
	ctrl := gomock.NewController(t)
	db := NewMockDB(ctrl)
	ctx := context.Background()

	db.EXPECT().SaveMany(ctx, "docs", []Document{{Text: "hello", Metadata: map[string]any{"a": 1}}}).Return(nil)

	require.NoError(t, Save(ctx, db, "docs", "hello", map[string]any{"a": 1}))
}

func TestStoreDelegates(t *testing.T) {
	ctrl := gomock.NewController(t)
	db := NewMockDB(ctrl)
	ctx := context.Background()
	store := NewStore(db)

	gomock.InOrder(
		db.EXPECT().SaveMany(ctx, "c", []Document{{Text: "a"}, {Text: "b"}}).Return(nil),
		db.EXPECT().Count(ctx, "c").Return(2, nil),
		db.EXPECT().Search(ctx, "c", Query{"x", "y"}, SearchParams{}).Return(nil, nil),
		db.EXPECT().Delete(ctx, "c", ByIDs("1", "2")).Return(nil),
		db.EXPECT().Delete(ctx, "c", ByWhere(Where{"k": "v"})).Return(nil),
		db.EXPECT().GetAll(ctx, "c").Return(nil, nil),
		db.EXPECT().Clear(ctx, "c").Return(nil),
	)

	require.NoError(t, store.SaveTexts(ctx, "c", "a", "b"))
	n, err := store.Count(ctx, "c")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	_, err = store.SearchMany(ctx, "c", []string{"x", "y"})
	require.NoError(t, err)
	require.NoError(t, store.DeleteIDs(ctx, "c", "1", "2"))
	require.NoError(t, store.DeleteIDs(ctx, "c"))
	require.NoError(t, store.DeleteWhere(ctx, "c", Where{"k": "v"}))
	_, err = store.GetAll(ctx, "c")
	require.NoError(t, err)
	require.NoError(t, store.Clear(ctx, "c"))
	assert.Same(t, db, store.DB())
}

func TestSearchParamsLimit(t *testing.T) {
	n, bounded := SearchParams{}.Limit()
	assert.Equal(t, DefaultNResults, n)
	assert.True(t, bounded)

	n, bounded = SearchParams{NResults: 7}.Limit()
	assert.Equal(t, 7, n)
	assert.True(t, bounded)

	_, bounded = NewSearchParams(WithLimit(3), WithNoLimit()).Limit()
	assert.False(t, bounded)

	_, bounded = NewSearchParams(WithNoLimit(), WithLimit(3)).Limit()
	assert.True(t, bounded)
}

func TestExtraValue(t *testing.T) {
	p := NewSearchParams(WithExtra("exact", true))

	v, ok := ExtraValue[bool](p, "exact")
	assert.True(t, ok)
	assert.True(t, v)

	_, ok = ExtraValue[int](p, "exact")
	assert.False(t, ok)
	_, ok = ExtraValue[int](p, "missing")
	assert.False(t, ok)
}
