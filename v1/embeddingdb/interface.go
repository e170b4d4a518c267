package embeddingdb

import "context"

// DefaultNResults is the number of results Search returns when SearchParams
// does not ask for a specific amount.
const DefaultNResults = 5

// DB is the contract every embedding database backend implements.
//
// Collections are plain names: they exist as soon as something is saved into
// them and are never created or listed explicitly. Operations on a collection
// that does not exist behave as if it were empty. "Nothing found" is never an
// error: searches return an empty slice and a nil error.
//
// Implementations must be safe for concurrent use.
//
//go:generate mockgen -source=interface.go -destination=mock_db.go -package=embeddingdb
type DB interface {
	// Search returns the documents of collection most similar to query,
	// ordered by ascending distance. params selects how many results to
	// return, an optional metadata filter and backend specific extras.
	// When query holds several texts, the per-query results are merged
	// (see MergeResults).
	Search(ctx context.Context, collection string, query Query, params SearchParams) ([]SearchResult, error)

	// GetAll returns every document in collection without ranking.
	GetAll(ctx context.Context, collection string) ([]SearchResult, error)

	// SaveMany stores items in collection, creating the collection if needed.
	SaveMany(ctx context.Context, collection string, items []Document) error

	// Clear removes every document from collection.
	Clear(ctx context.Context, collection string) error

	// Count returns the exact number of documents in collection.
	Count(ctx context.Context, collection string) (int, error)

	// Delete removes the documents selected by what. Ids that do not exist
	// are ignored.
	Delete(ctx context.Context, collection string, what Selector) error
}

// SearchParams controls a Search call.
type SearchParams struct {
	// NResults is the maximum number of results. Values <= 0 mean
	// DefaultNResults. Ignored when Unlimited is set.
	NResults int

	// Unlimited removes the result bound: every matching document is returned.
	Unlimited bool

	// Where restricts the search to documents whose metadata matches.
	Where Where

	// Extra carries backend specific options. Backends ignore keys they do
	// not understand.
	Extra map[string]any
}

// Limit resolves the effective result bound. bounded is false when the search
// is unlimited.
func (p SearchParams) Limit() (n int, bounded bool) {
	if p.Unlimited {
		return 0, false
	}
	if p.NResults <= 0 {
		return DefaultNResults, true
	}
	return p.NResults, true
}

// ExtraValue returns the Extra entry key converted to T.
func ExtraValue[T any](p SearchParams, key string) (T, bool) {
	var zero T
	v, ok := p.Extra[key]
	if !ok {
		return zero, false
	}
	t, ok := v.(T)
	return t, ok
}
