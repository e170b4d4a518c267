package embeddingdb

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWhereMatches(t *testing.T) {
	meta := map[string]any{"lang": "en", "year": 2024, "score": 0.5, "draft": false, "tags": []any{"a"}}

	tests := []struct {
		name  string
		where Where
		want  bool
	}{
		{"empty matches everything", Where{}, true},
		{"nil matches everything", nil, true},
		{"string equal", Where{"lang": "en"}, true},
		{"string differs", Where{"lang": "de"}, false},
		{"int vs float64", Where{"year": 2024.0}, true},
		{"int64 vs int", Where{"year": int64(2024)}, true},
		{"json number", Where{"score": json.Number("0.5")}, true},
		{"bool", Where{"draft": false}, true},
		{"bool vs number", Where{"draft": 0}, false},
		{"slice deep equal", Where{"tags": []any{"a"}}, true},
		{"missing key", Where{"author": "x"}, false},
		{"all keys must match", Where{"lang": "en", "year": 2023}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.where.Matches(meta))
		})
	}
}

func TestSelectorValidate(t *testing.T) {
	assert.NoError(t, ByID("x").Validate())
	assert.NoError(t, ByWhere(Where{"a": 1}).Validate())

	err := Selector{}.Validate()
	assert.True(t, errors.Is(err, ErrInvalidArgument))

	err = Selector{IDs: []string{"x"}, Where: Where{"a": 1}}.Validate()
	assert.True(t, errors.Is(err, ErrInvalidArgument))
}

func TestValidateCollectionAndQuery(t *testing.T) {
	assert.ErrorIs(t, ValidateCollection(""), ErrInvalidArgument)
	assert.NoError(t, ValidateCollection("docs"))
	assert.ErrorIs(t, ValidateQuery(nil), ErrInvalidArgument)
	assert.NoError(t, ValidateQuery(Text("")))
}

func TestDocs(t *testing.T) {
	docs := Docs("a", "b")
	require.Len(t, docs, 2)
	assert.Equal(t, "b", docs[1].Text)
	assert.Nil(t, docs[1].Metadata)

	d := Doc("c", map[string]any{"k": "v"})
	assert.Equal(t, "v", d.Metadata["k"])
}

func TestSearchResultBehavesAsText(t *testing.T) {
	r := NewSearchResult("hello", "x1", 0.2, map[string]any{"lang": "en"})

	assert.True(t, r.Equal("hello"))
	assert.Equal(t, "hello", r.String())
	assert.Equal(t, "hello", fmt.Sprintf("%s", r))
	assert.Equal(t, "x1", r.ID())
	assert.Equal(t, 0.2, r.Distance())
	assert.Equal(t, map[string]any{"lang": "en"}, r.Metadata())

	id, ok := r.Attr("id")
	require.True(t, ok)
	assert.Equal(t, "x1", id)

	data, err := json.Marshal([]SearchResult{r})
	require.NoError(t, err)
	assert.JSONEq(t, `["hello"]`, string(data))
}

func TestSearchResultEqualityIgnoresAttributes(t *testing.T) {
	a := NewSearchResult("same", "1", 0.1, nil)
	b := NewSearchResult("same", "2", 0.9, map[string]any{"k": 1})

	assert.True(t, a.Equal(b))
	assert.Equal(t, a.Key(), b.Key())
	assert.Empty(t, a.Metadata())
	assert.NotNil(t, a.Metadata())
}

func TestSearchResultMetadataIsCopy(t *testing.T) {
	r := NewSearchResult("t", "1", 0, map[string]any{"k": 1})
	r.Metadata()["k"] = 2
	assert.Equal(t, 1, r.Metadata()["k"])
}

func TestSearchResultCall(t *testing.T) {
	r := NewSearchResult("hello", "x1", 0, nil)
	out, err := r.Call("upper")
	require.NoError(t, err)
	assert.Equal(t, "HELLO", fmt.Sprint(out))
}

func TestStrings(t *testing.T) {
	rs := []SearchResult{NewSearchResult("a", "1", 0, nil), NewSearchResult("b", "2", 0, nil)}
	assert.Equal(t, []string{"a", "b"}, Strings(rs))
}
