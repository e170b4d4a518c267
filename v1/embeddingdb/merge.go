package embeddingdb

import (
	"cmp"
	"slices"
)

// MergeResults combines the result lists of a batch query into one list.
//
// A document found by several queries is kept once, with its smallest
// distance. The merged list is ordered by ascending distance (ties keep the
// order in which documents were first seen) and truncated to the limit
// described by params.
func MergeResults(lists [][]SearchResult, params SearchParams) []SearchResult {
	var merged []SearchResult
	if len(lists) == 1 {
		merged = slices.Clone(lists[0])
	} else {
		index := make(map[string]int)
		for _, list := range lists {
			for _, r := range list {
				key := r.ID()
				if key == "" {
					key = "text:" + r.String()
				}
				if i, ok := index[key]; ok {
					if r.Distance() < merged[i].Distance() {
						merged[i] = r
					}
					continue
				}
				index[key] = len(merged)
				merged = append(merged, r)
			}
		}
	}

	slices.SortStableFunc(merged, func(a, b SearchResult) int {
		return cmp.Compare(a.Distance(), b.Distance())
	})

	if n, bounded := params.Limit(); bounded && len(merged) > n {
		merged = merged[:n]
	}
	if merged == nil {
		merged = []SearchResult{}
	}
	return merged
}
