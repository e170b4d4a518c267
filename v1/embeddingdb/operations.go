package embeddingdb

import "context"

// SearchOption adjusts SearchParams for the derived operations.
type SearchOption func(*SearchParams)

// WithLimit bounds the number of results to n.
func WithLimit(n int) SearchOption {
	return func(p *SearchParams) {
		p.NResults = n
		p.Unlimited = false
	}
}

// WithNoLimit returns every matching document.
func WithNoLimit() SearchOption {
	return func(p *SearchParams) {
		p.Unlimited = true
	}
}

// WithWhere filters by metadata.
func WithWhere(where Where) SearchOption {
	return func(p *SearchParams) {
		p.Where = where
	}
}

// WithExtra sets a backend specific option.
func WithExtra(key string, value any) SearchOption {
	return func(p *SearchParams) {
		if p.Extra == nil {
			p.Extra = make(map[string]any)
		}
		p.Extra[key] = value
	}
}

// NewSearchParams applies opts to the default parameters.
func NewSearchParams(opts ...SearchOption) SearchParams {
	var p SearchParams
	for _, opt := range opts {
		opt(&p)
	}
	return p
}

// Find is an alias for db.Search taking functional options.
func Find(ctx context.Context, db DB, collection string, query Query, opts ...SearchOption) ([]SearchResult, error) {
	return db.Search(ctx, collection, query, NewSearchParams(opts...))
}

// FindAll returns every document of collection that matches the options,
// ranked by similarity to query. Any limit in opts is overridden.
func FindAll(ctx context.Context, db DB, collection string, query Query, opts ...SearchOption) ([]SearchResult, error) {
	params := NewSearchParams(opts...)
	params.Unlimited = true
	return db.Search(ctx, collection, query, params)
}

// FindOne returns the document most similar to query, or nil when the
// collection holds nothing that matches.
func FindOne(ctx context.Context, db DB, collection string, query Query, opts ...SearchOption) (*SearchResult, error) {
	params := NewSearchParams(opts...)
	params.NResults = 1
	params.Unlimited = false

	results, err := db.Search(ctx, collection, query, params)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}
	return &results[0], nil
}

// Save stores a single document.
func Save(ctx context.Context, db DB, collection, text string, metadata map[string]any) error {
	return db.SaveMany(ctx, collection, []Document{{Text: text, Metadata: metadata}})
}
