package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/Aleph-Alpha/microcore/v1/embedding"
	"github.com/Aleph-Alpha/microcore/v1/embeddingdb"
)

// Search extras understood by Store.Search.
const (
	// ExtraIVFFlatProbes sets ivfflat.probes for the query (int).
	ExtraIVFFlatProbes = "ivfflat_probes"

	// ExtraHNSWEfSearch sets hnsw.ef_search for the query (int).
	ExtraHNSWEfSearch = "hnsw_ef_search"
)

const (
	maxConcurrentSearches = 10
	schemaTimeout         = 30 * time.Second
)

type documentRow struct {
	ID       string
	Document string
	Metadata string
	Distance float64
}

// Store is an embeddingdb.DB backed by a PostgreSQL table with a pgvector
// column. All collections share one table keyed by (collection, id).
type Store struct {
	pg       *Postgres
	embedder embedding.Embedder
	log      Logger
	cfg      StoreConfig
	table    string
	operator string
}

var _ embeddingdb.DB = (*Store)(nil)

// NewStore creates the pgvector extension and the document table if they
// do not exist yet. The embedding column is sized after embedder; an
// existing table with a different size is rejected with ErrDimensionMismatch.
func NewStore(pg *Postgres, embedder embedding.Embedder, cfg StoreConfig) (*Store, error) {
	if pg == nil {
		return nil, fmt.Errorf("[Postgres] client is required")
	}
	if embedder == nil {
		return nil, fmt.Errorf("[Postgres] embedder is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Table == "" {
		cfg.Table = DefaultTable
	}
	op, _ := distanceOperator(cfg.Distance)

	s := &Store{
		pg:       pg,
		embedder: embedder,
		log:      pg.log,
		cfg:      cfg,
		table:    `"` + cfg.Table + `"`,
		operator: op,
	}

	ctx, cancel := context.WithTimeout(context.Background(), schemaTimeout)
	defer cancel()
	if err := s.ensureSchema(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) db(ctx context.Context) (*gorm.DB, error) {
	db := s.pg.DB()
	if db == nil {
		return nil, ErrNotConnected
	}
	return db.WithContext(ctx), nil
}

func (s *Store) ensureSchema(ctx context.Context) error {
	db, err := s.db(ctx)
	if err != nil {
		return err
	}

	if !s.cfg.SkipExtension {
		if err := db.Exec("CREATE EXTENSION IF NOT EXISTS vector").Error; err != nil {
			return fmt.Errorf("[Postgres] %w: %w", ErrExtensionUnavailable, err)
		}
	}

	dims := s.embedder.Dimensions()
	statements := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			seq BIGSERIAL,
			collection TEXT NOT NULL,
			id TEXT NOT NULL,
			document TEXT NOT NULL,
			metadata JSONB NOT NULL DEFAULT '{}'::jsonb,
			embedding vector(%d) NOT NULL,
			PRIMARY KEY (collection, id)
		)`, s.table, dims),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS "%s_collection_seq_idx" ON %s (collection, seq)`, s.cfg.Table, s.table),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS "%s_metadata_idx" ON %s USING gin (metadata jsonb_path_ops)`, s.cfg.Table, s.table),
	}
	if s.cfg.Index == IndexHNSW {
		statements = append(statements, fmt.Sprintf(
			`CREATE INDEX IF NOT EXISTS "%s_embedding_hnsw_idx" ON %s USING hnsw (embedding %s)`,
			s.cfg.Table, s.table, operatorClass(s.cfg.Distance)))
	}

	for _, stmt := range statements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("[Postgres] failed to create schema: %w", TranslateError(err))
		}
	}

	var existing int
	err = db.Raw(
		`SELECT atttypmod FROM pg_attribute WHERE attrelid = ?::regclass AND attname = 'embedding'`,
		s.table,
	).Scan(&existing).Error
	if err != nil {
		return fmt.Errorf("[Postgres] failed to inspect table: %w", err)
	}
	if existing > 0 && existing != dims {
		return fmt.Errorf("[Postgres] %w: table %s stores %d dimensions, embedder produces %d",
			ErrDimensionMismatch, s.cfg.Table, existing, dims)
	}

	s.log.Debug("[Postgres] schema ready", nil, map[string]interface{}{
		"table":      s.cfg.Table,
		"dimensions": dims,
	})
	return nil
}

// searchSettings turns the search extras into SET LOCAL statements.
func searchSettings(params embeddingdb.SearchParams) []string {
	var out []string
	if n, ok := embeddingdb.ExtraValue[int](params, ExtraIVFFlatProbes); ok && n > 0 {
		out = append(out, fmt.Sprintf("SET LOCAL ivfflat.probes = %d", n))
	}
	if n, ok := embeddingdb.ExtraValue[int](params, ExtraHNSWEfSearch); ok && n > 0 {
		out = append(out, fmt.Sprintf("SET LOCAL hnsw.ef_search = %d", n))
	}
	return out
}

func (s *Store) searchQuery(where string, params embeddingdb.SearchParams) (string, bool) {
	q := fmt.Sprintf(
		`SELECT id, document, metadata::text AS metadata, (embedding %s ?::vector) AS distance FROM %s WHERE collection = ?`,
		s.operator, s.table)
	if where != "" {
		q += ` AND metadata @> ?::jsonb`
	}
	q += ` ORDER BY distance ASC, seq ASC`
	_, bounded := params.Limit()
	if bounded {
		q += ` LIMIT ?`
	}
	return q, bounded
}

func (s *Store) Search(ctx context.Context, collection string, query embeddingdb.Query, params embeddingdb.SearchParams) ([]embeddingdb.SearchResult, error) {
	if err := embeddingdb.ValidateCollection(collection); err != nil {
		return nil, err
	}
	if err := embeddingdb.ValidateQuery(query); err != nil {
		return nil, err
	}
	where, err := whereJSON(params.Where)
	if err != nil {
		return nil, err
	}

	vectors, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("[Postgres] failed to embed query: %w", err)
	}

	lists := make([][]embeddingdb.SearchResult, len(vectors))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentSearches)
	for i, v := range vectors {
		g.Go(func() error {
			hits, err := s.searchOne(gctx, collection, v, where, params)
			if err != nil {
				return err
			}
			lists[i] = hits
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return embeddingdb.MergeResults(lists, params), nil
}

func (s *Store) searchOne(ctx context.Context, collection string, vector []float32, where string, params embeddingdb.SearchParams) ([]embeddingdb.SearchResult, error) {
	literal, err := vectorLiteral(vector)
	if err != nil {
		return nil, err
	}

	q, bounded := s.searchQuery(where, params)
	args := []any{literal, collection}
	if where != "" {
		args = append(args, where)
	}
	if bounded {
		n, _ := params.Limit()
		args = append(args, n)
	}

	var rows []documentRow
	run := func(tx *gorm.DB) error {
		return tx.Raw(q, args...).Scan(&rows).Error
	}

	if settings := searchSettings(params); len(settings) > 0 {
		err = s.pg.Transaction(ctx, func(tx *gorm.DB) error {
			for _, stmt := range settings {
				if err := tx.Exec(stmt).Error; err != nil {
					return err
				}
			}
			return run(tx)
		})
	} else {
		var db *gorm.DB
		if db, err = s.db(ctx); err == nil {
			err = run(db)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("[Postgres] search failed: %w", TranslateError(err))
	}
	return toResults(rows)
}

func toResults(rows []documentRow) ([]embeddingdb.SearchResult, error) {
	out := make([]embeddingdb.SearchResult, 0, len(rows))
	for _, r := range rows {
		meta, err := decodeMetadata(r.Metadata)
		if err != nil {
			return nil, err
		}
		out = append(out, embeddingdb.NewSearchResult(r.Document, r.ID, r.Distance, meta))
	}
	return out, nil
}

func (s *Store) GetAll(ctx context.Context, collection string) ([]embeddingdb.SearchResult, error) {
	if err := embeddingdb.ValidateCollection(collection); err != nil {
		return nil, err
	}
	db, err := s.db(ctx)
	if err != nil {
		return nil, err
	}

	var rows []documentRow
	err = db.Raw(fmt.Sprintf(
		`SELECT id, document, metadata::text AS metadata, 0::float8 AS distance FROM %s WHERE collection = ? ORDER BY seq`,
		s.table), collection).Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("[Postgres] failed to list documents: %w", TranslateError(err))
	}
	return toResults(rows)
}

func (s *Store) SaveMany(ctx context.Context, collection string, items []embeddingdb.Document) error {
	if err := embeddingdb.ValidateCollection(collection); err != nil {
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
		return fmt.Errorf("[Postgres] failed to embed documents: %w", err)
	}

	type row struct {
		id, text, metadata, vector string
	}
	rows := make([]row, len(items))
	for i, item := range items {
		id := item.ID
		if id == "" {
			id = uuid.NewString()
		}
		meta, err := metadataJSON(item.Metadata)
		if err != nil {
			return err
		}
		literal, err := vectorLiteral(vectors[i])
		if err != nil {
			return err
		}
		rows[i] = row{id: id, text: item.Text, metadata: meta, vector: literal}
	}

	upsert := fmt.Sprintf(`INSERT INTO %s (collection, id, document, metadata, embedding)
		VALUES (?, ?, ?, ?::jsonb, ?::vector)
		ON CONFLICT (collection, id) DO UPDATE
		SET document = EXCLUDED.document, metadata = EXCLUDED.metadata, embedding = EXCLUDED.embedding`, s.table)

	err = s.pg.Transaction(ctx, func(tx *gorm.DB) error {
		for _, r := range rows {
			if err := tx.Exec(upsert, collection, r.id, r.text, r.metadata, r.vector).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("[Postgres] failed to save documents: %w", TranslateError(err))
	}

	s.log.Debug("[Postgres] documents saved", nil, map[string]interface{}{
		"collection": collection,
		"count":      len(rows),
	})
	return nil
}

func (s *Store) Clear(ctx context.Context, collection string) error {
	if err := embeddingdb.ValidateCollection(collection); err != nil {
		return err
	}
	db, err := s.db(ctx)
	if err != nil {
		return err
	}
	if err := db.Exec(fmt.Sprintf(`DELETE FROM %s WHERE collection = ?`, s.table), collection).Error; err != nil {
		return fmt.Errorf("[Postgres] failed to clear collection: %w", TranslateError(err))
	}
	return nil
}

func (s *Store) Count(ctx context.Context, collection string) (int, error) {
	if err := embeddingdb.ValidateCollection(collection); err != nil {
		return 0, err
	}
	db, err := s.db(ctx)
	if err != nil {
		return 0, err
	}
	var n int64
	err = db.Raw(fmt.Sprintf(`SELECT count(*) FROM %s WHERE collection = ?`, s.table), collection).Scan(&n).Error
	if err != nil {
		return 0, fmt.Errorf("[Postgres] failed to count documents: %w", TranslateError(err))
	}
	return int(n), nil
}

func (s *Store) Delete(ctx context.Context, collection string, what embeddingdb.Selector) error {
	if err := embeddingdb.ValidateCollection(collection); err != nil {
		return err
	}
	if err := what.Validate(); err != nil {
		return err
	}
	db, err := s.db(ctx)
	if err != nil {
		return err
	}

	if len(what.IDs) > 0 {
		err = db.Exec(fmt.Sprintf(`DELETE FROM %s WHERE collection = ? AND id IN ?`, s.table), collection, what.IDs).Error
	} else {
		var where string
		if where, err = whereJSON(what.Where); err != nil {
			return err
		}
		err = db.Exec(fmt.Sprintf(`DELETE FROM %s WHERE collection = ? AND metadata @> ?::jsonb`, s.table), collection, where).Error
	}
	if err != nil {
		return fmt.Errorf("[Postgres] failed to delete documents: %w", TranslateError(err))
	}
	return nil
}

// Collections returns the names of the collections that hold documents.
func (s *Store) Collections(ctx context.Context) ([]string, error) {
	db, err := s.db(ctx)
	if err != nil {
		return nil, err
	}
	var names []string
	err = db.Raw(fmt.Sprintf(`SELECT DISTINCT collection FROM %s ORDER BY collection`, s.table)).Scan(&names).Error
	if err != nil {
		return nil, fmt.Errorf("[Postgres] failed to list collections: %w", TranslateError(err))
	}
	return names, nil
}
