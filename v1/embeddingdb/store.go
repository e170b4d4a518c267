package embeddingdb

import "context"

// Store wraps a DB with string based convenience methods. Every method is a
// thin layer over the DB primitives or the package level derived operations,
// so any backend gets them for free.
type Store struct {
	db DB
}

// NewStore wraps db.
func NewStore(db DB) *Store {
	return &Store{db: db}
}

// DB returns the wrapped database.
func (s *Store) DB() DB {
	return s.db
}

// Search runs a single-text similarity search.
func (s *Store) Search(ctx context.Context, collection, query string, opts ...SearchOption) ([]SearchResult, error) {
	return Find(ctx, s.db, collection, Text(query), opts...)
}

// SearchMany runs a batch search; per-query results are merged.
func (s *Store) SearchMany(ctx context.Context, collection string, queries []string, opts ...SearchOption) ([]SearchResult, error) {
	return Find(ctx, s.db, collection, Texts(queries...), opts...)
}

// Find is an alias for Search.
func (s *Store) Find(ctx context.Context, collection, query string, opts ...SearchOption) ([]SearchResult, error) {
	return s.Search(ctx, collection, query, opts...)
}

// FindAll returns every matching document ranked by similarity to query.
func (s *Store) FindAll(ctx context.Context, collection, query string, opts ...SearchOption) ([]SearchResult, error) {
	return FindAll(ctx, s.db, collection, Text(query), opts...)
}

// FindOne returns the most similar document or nil.
func (s *Store) FindOne(ctx context.Context, collection, query string, opts ...SearchOption) (*SearchResult, error) {
	return FindOne(ctx, s.db, collection, Text(query), opts...)
}

// GetAll returns every document in collection.
func (s *Store) GetAll(ctx context.Context, collection string) ([]SearchResult, error) {
	return s.db.GetAll(ctx, collection)
}

// Save stores one document.
func (s *Store) Save(ctx context.Context, collection, text string, metadata map[string]any) error {
	return Save(ctx, s.db, collection, text, metadata)
}

// SaveMany stores documents.
func (s *Store) SaveMany(ctx context.Context, collection string, items ...Document) error {
	return s.db.SaveMany(ctx, collection, items)
}

// SaveTexts stores bare texts without metadata.
func (s *Store) SaveTexts(ctx context.Context, collection string, texts ...string) error {
	return s.db.SaveMany(ctx, collection, Docs(texts...))
}

// Clear empties collection.
func (s *Store) Clear(ctx context.Context, collection string) error {
	return s.db.Clear(ctx, collection)
}

// Count returns the number of documents in collection.
func (s *Store) Count(ctx context.Context, collection string) (int, error) {
	return s.db.Count(ctx, collection)
}

// Delete removes the selected documents.
func (s *Store) Delete(ctx context.Context, collection string, what Selector) error {
	return s.db.Delete(ctx, collection, what)
}

// DeleteIDs removes documents by id.
func (s *Store) DeleteIDs(ctx context.Context, collection string, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	return s.db.Delete(ctx, collection, ByIDs(ids...))
}

// DeleteWhere removes documents whose metadata matches where.
func (s *Store) DeleteWhere(ctx context.Context, collection string, where Where) error {
	return s.db.Delete(ctx, collection, ByWhere(where))
}
