package embeddingdb

import (
	"maps"

	"github.com/Aleph-Alpha/microcore/v1/extstr"
)

// Attribute names attached to every SearchResult.
const (
	AttrID       = "id"
	AttrDistance = "distance"
	AttrMetadata = "metadata"
)

// SearchResult is a stored document as returned by a search. It behaves like
// its text (String, Equal, Key, JSON encoding) and carries the document id,
// its distance to the query and its metadata as attributes.
type SearchResult struct {
	value extstr.String
}

// NewSearchResult builds a result. A nil metadata map is stored as empty.
func NewSearchResult(text, id string, distance float64, metadata map[string]any) SearchResult {
	if metadata == nil {
		metadata = map[string]any{}
	}
	return SearchResult{value: extstr.New(text, map[string]any{
		AttrID:       id,
		AttrDistance: distance,
		AttrMetadata: metadata,
	})}
}

// String returns the document text.
func (r SearchResult) String() string { return r.value.String() }

// ID returns the document id.
func (r SearchResult) ID() string {
	id, _ := extstr.AttrAs[string](r.value, AttrID)
	return id
}

// Distance returns the distance between the query and the document; smaller
// is more similar. It is 0 for results of GetAll.
func (r SearchResult) Distance() float64 {
	d, _ := extstr.AttrAs[float64](r.value, AttrDistance)
	return d
}

// Metadata returns a copy of the document metadata.
func (r SearchResult) Metadata() map[string]any {
	m, _ := extstr.AttrAs[map[string]any](r.value, AttrMetadata)
	if m == nil {
		return map[string]any{}
	}
	return maps.Clone(m)
}

// WithDistance returns a copy of r with a different distance.
func (r SearchResult) WithDistance(d float64) SearchResult {
	return SearchResult{value: r.value.With(AttrDistance, d)}
}

// Equal compares texts only. See extstr.String.Equal.
func (r SearchResult) Equal(other any) bool {
	if o, ok := other.(SearchResult); ok {
		return r.value.Equal(o.value)
	}
	return r.value.Equal(other)
}

// Key returns the text, for use as a map key.
func (r SearchResult) Key() string { return r.value.Key() }

// Attr returns the named attribute.
func (r SearchResult) Attr(name string) (any, bool) { return r.value.Attr(name) }

// Call invokes a registered function on the text. See extstr.String.Call.
func (r SearchResult) Call(name string, args ...any) (any, error) {
	return r.value.Call(name, args...)
}

// Value returns the underlying tagged string.
func (r SearchResult) Value() extstr.String { return r.value }

// MarshalJSON encodes the result as its text.
func (r SearchResult) MarshalJSON() ([]byte, error) { return r.value.MarshalJSON() }

// Strings returns the texts of results.
func Strings(results []SearchResult) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.String()
	}
	return out
}
