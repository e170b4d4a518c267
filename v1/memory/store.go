package memory

import (
	"cmp"
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/Aleph-Alpha/microcore/v1/embedding"
	"github.com/Aleph-Alpha/microcore/v1/embeddingdb"
)

type record struct {
	id       string
	text     string
	metadata map[string]any
	vector   []float32
}

type collection struct {
	records []record
	index   map[string]int
}

func newCollection() *collection {
	return &collection{index: make(map[string]int)}
}

func (c *collection) upsert(r record) {
	if i, ok := c.index[r.id]; ok {
		c.records[i] = r
		return
	}
	c.index[r.id] = len(c.records)
	c.records = append(c.records, r)
}

// keep retains the records for which fn returns true and rebuilds the index.
func (c *collection) keep(fn func(r record) bool) {
	kept := c.records[:0]
	for _, r := range c.records {
		if fn(r) {
			kept = append(kept, r)
		}
	}
	clear(c.records[len(kept):])
	c.records = kept
	c.index = make(map[string]int, len(kept))
	for i, r := range kept {
		c.index[r.id] = i
	}
}

// Logger is the subset of the logger package used by this package.
type Logger interface {
	Debug(msg string, err error, fields ...map[string]interface{})
}

type nopLogger struct{}

func (nopLogger) Debug(string, error, ...map[string]interface{}) {}

// Store is an embeddingdb.DB that keeps everything in process memory and
// searches by brute force. Documents are lost when the process exits.
type Store struct {
	mu          sync.RWMutex
	collections map[string]*collection
	embedder    embedding.Embedder
	distance    distanceFunc
	log         Logger
}

var _ embeddingdb.DB = (*Store)(nil)

// New creates an empty store. log may be nil.
func New(cfg Config, embedder embedding.Embedder, log Logger) (*Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if embedder == nil {
		return nil, fmt.Errorf("[Memory] embedder is required")
	}
	if log == nil {
		log = nopLogger{}
	}
	return &Store{
		collections: make(map[string]*collection),
		embedder:    embedder,
		distance:    distanceFor(cfg.Metric),
		log:         log,
	}, nil
}

func (s *Store) Search(ctx context.Context, name string, query embeddingdb.Query, params embeddingdb.SearchParams) ([]embeddingdb.SearchResult, error) {
	if err := embeddingdb.ValidateCollection(name); err != nil {
		return nil, err
	}
	if err := embeddingdb.ValidateQuery(query); err != nil {
		return nil, err
	}

	s.mu.RLock()
	empty := s.collections[name] == nil || len(s.collections[name].records) == 0
	s.mu.RUnlock()
	if empty {
		return []embeddingdb.SearchResult{}, nil
	}

	vectors, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("[Memory] failed to embed query: %w", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	c := s.collections[name]
	if c == nil {
		return []embeddingdb.SearchResult{}, nil
	}

	lists := make([][]embeddingdb.SearchResult, len(vectors))
	for qi, qv := range vectors {
		var hits []embeddingdb.SearchResult
		for _, r := range c.records {
			if !params.Where.Matches(r.metadata) {
				continue
			}
			hits = append(hits, embeddingdb.NewSearchResult(r.text, r.id, s.distance(qv, r.vector), maps.Clone(r.metadata)))
		}
		slices.SortStableFunc(hits, func(a, b embeddingdb.SearchResult) int {
			return cmp.Compare(a.Distance(), b.Distance())
		})
		if n, bounded := params.Limit(); bounded && len(hits) > n {
			hits = hits[:n]
		}
		lists[qi] = hits
	}
	return embeddingdb.MergeResults(lists, params), nil
}

func (s *Store) GetAll(_ context.Context, name string) ([]embeddingdb.SearchResult, error) {
	if err := embeddingdb.ValidateCollection(name); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []embeddingdb.SearchResult{}
	if c := s.collections[name]; c != nil {
		for _, r := range c.records {
			out = append(out, embeddingdb.NewSearchResult(r.text, r.id, 0, maps.Clone(r.metadata)))
		}
	}
	return out, nil
}

func (s *Store) SaveMany(ctx context.Context, name string, items []embeddingdb.Document) error {
	if err := embeddingdb.ValidateCollection(name); err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}

	texts := make([]string, len(items))
	for i, item := range items {
		texts[i] = item.Text
	}
	vectors, err := s.embedder.Embed(ctx, texts)
	if err != nil {
		return fmt.Errorf("[Memory] failed to embed documents: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.collections[name]
	if c == nil {
		c = newCollection()
		s.collections[name] = c
	}
	for i, item := range items {
		id := item.ID
		if id == "" {
			id = uuid.NewString()
		}
		metadata := maps.Clone(item.Metadata)
		if metadata == nil {
			metadata = map[string]any{}
		}
		c.upsert(record{id: id, text: item.Text, metadata: metadata, vector: vectors[i]})
	}
	s.log.Debug("[Memory] documents saved", nil, map[string]interface{}{
		"collection": name,
		"count":      len(items),
	})
	return nil
}

func (s *Store) Clear(_ context.Context, name string) error {
	if err := embeddingdb.ValidateCollection(name); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.collections[name]; ok {
		delete(s.collections, name)
		s.log.Debug("[Memory] collection cleared", nil, map[string]interface{}{"collection": name})
	}
	return nil
}

func (s *Store) Count(_ context.Context, name string) (int, error) {
	if err := embeddingdb.ValidateCollection(name); err != nil {
		return 0, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if c := s.collections[name]; c != nil {
		return len(c.records), nil
	}
	return 0, nil
}

func (s *Store) Delete(_ context.Context, name string, what embeddingdb.Selector) error {
	if err := embeddingdb.ValidateCollection(name); err != nil {
		return err
	}
	if err := what.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.collections[name]
	if c == nil {
		return nil
	}
	if len(what.IDs) > 0 {
		drop := make(map[string]struct{}, len(what.IDs))
		for _, id := range what.IDs {
			drop[id] = struct{}{}
		}
		c.keep(func(r record) bool {
			_, found := drop[r.id]
			return !found
		})
		return nil
	}
	c.keep(func(r record) bool { return !what.Where.Matches(r.metadata) })
	return nil
}

// Collections returns the names of the non-empty collections.
func (s *Store) Collections() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.collections))
	for name, c := range s.collections {
		if len(c.records) > 0 {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return names
}
