package embeddingdb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeResultsKeepsSmallestDistance(t *testing.T) {
	first := []SearchResult{
		NewSearchResult("a", "1", 0.3, nil),
		NewSearchResult("b", "2", 0.5, nil),
	}
	second := []SearchResult{
		NewSearchResult("b", "2", 0.1, nil),
		NewSearchResult("c", "3", 0.4, nil),
	}

	merged := MergeResults([][]SearchResult{first, second}, SearchParams{Unlimited: true})
	require.Len(t, merged, 3)
	assert.Equal(t, []string{"b", "a", "c"}, Strings(merged))
	assert.Equal(t, 0.1, merged[0].Distance())
}

func TestMergeResultsAppliesLimit(t *testing.T) {
	list := []SearchResult{
		NewSearchResult("a", "1", 0.1, nil),
		NewSearchResult("b", "2", 0.2, nil),
		NewSearchResult("c", "3", 0.3, nil),
	}

	merged := MergeResults([][]SearchResult{list}, SearchParams{NResults: 2})
	assert.Equal(t, []string{"a", "b"}, Strings(merged))

	// Defaults to DefaultNResults.
	many := make([]SearchResult, 0, 10)
	for i := 0; i < 10; i++ {
		many = append(many, NewSearchResult("x", string(rune('a'+i)), float64(i), nil))
	}
	assert.Len(t, MergeResults([][]SearchResult{many}, SearchParams{}), DefaultNResults)
}

func TestMergeResultsStableOnTies(t *testing.T) {
	list := []SearchResult{
		NewSearchResult("first", "1", 0.5, nil),
		NewSearchResult("second", "2", 0.5, nil),
	}
	merged := MergeResults([][]SearchResult{list}, SearchParams{Unlimited: true})
	assert.Equal(t, []string{"first", "second"}, Strings(merged))
}

func TestMergeResultsEmpty(t *testing.T) {
	merged := MergeResults(nil, SearchParams{})
	assert.NotNil(t, merged)
	assert.Empty(t, merged)

	merged = MergeResults([][]SearchResult{nil}, SearchParams{})
	assert.NotNil(t, merged)
	assert.Empty(t, merged)
}
