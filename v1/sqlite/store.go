package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/Aleph-Alpha/microcore/v1/embedding"
	"github.com/Aleph-Alpha/microcore/v1/embeddingdb"
)

func init() {
	sqlite_vec.Auto()
}

// ErrDimensionMismatch is returned when a database file was created for an
// embedder with a different vector size.
var ErrDimensionMismatch = errors.New("vector dimension mismatch")

// Logger is the subset of the logger package used by this package.
type Logger interface {
	Info(msg string, err error, fields ...map[string]interface{})
	Debug(msg string, err error, fields ...map[string]interface{})
}

type nopLogger struct{}

func (nopLogger) Info(string, error, ...map[string]interface{})  {}
func (nopLogger) Debug(string, error, ...map[string]interface{}) {}

// Compile-time interface check.
var _ embeddingdb.DB = (*Store)(nil)

// Store implements embeddingdb.DB on a SQLite file. Vectors are stored as
// sqlite-vec float32 blobs and ranked by brute force with the sqlite-vec
// distance functions, so results are exact.
type Store struct {
	db       *sql.DB
	embedder embedding.Embedder
	log      Logger
	distance string
}

// NewStore opens (or creates) the database at cfg.Path and prepares the
// documents table.
func NewStore(cfg Config, embedder embedding.Embedder, log Logger) (*Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if embedder == nil {
		return nil, fmt.Errorf("[SQLite] embedder is required")
	}
	if log == nil {
		log = nopLogger{}
	}
	fn, _ := distanceFunction(cfg.Distance)

	db, err := sql.Open("sqlite3", cfg.dsn())
	if err != nil {
		return nil, fmt.Errorf("[SQLite] opening database: %w", err)
	}
	if cfg.inMemory() {
		// every connection to :memory: is a separate database
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("[SQLite] pinging database: %w", err)
	}

	if err := migrate(db, embedder.Dimensions()); err != nil {
		_ = db.Close()
		return nil, err
	}

	log.Info("[SQLite] database ready", nil, map[string]interface{}{
		"path":       cfg.Path,
		"dimensions": embedder.Dimensions(),
	})
	return &Store{db: db, embedder: embedder, log: log, distance: fn}, nil
}

func migrate(db *sql.DB, dimensions int) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS documents (
	seq        INTEGER PRIMARY KEY AUTOINCREMENT,
	collection TEXT NOT NULL,
	id         TEXT NOT NULL,
	document   TEXT NOT NULL,
	metadata   TEXT NOT NULL DEFAULT '{}',
	embedding  BLOB NOT NULL,
	UNIQUE (collection, id)
);
CREATE TABLE IF NOT EXISTS settings (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);`
	if _, err := db.Exec(ddl); err != nil {
		return fmt.Errorf("[SQLite] creating tables: %w", err)
	}

	if _, err := db.Exec(`INSERT OR IGNORE INTO settings(key, value) VALUES ('dimensions', ?)`, strconv.Itoa(dimensions)); err != nil {
		return fmt.Errorf("[SQLite] recording dimensions: %w", err)
	}
	var stored string
	if err := db.QueryRow(`SELECT value FROM settings WHERE key = 'dimensions'`).Scan(&stored); err != nil {
		return fmt.Errorf("[SQLite] reading dimensions: %w", err)
	}
	if stored != strconv.Itoa(dimensions) {
		return fmt.Errorf("[SQLite] %w: database stores %s dimensions, embedder produces %d",
			ErrDimensionMismatch, stored, dimensions)
	}
	return nil
}

func (s *Store) Search(ctx context.Context, collection string, query embeddingdb.Query, params embeddingdb.SearchParams) ([]embeddingdb.SearchResult, error) {
	if err := embeddingdb.ValidateCollection(collection); err != nil {
		return nil, err
	}
	if err := embeddingdb.ValidateQuery(query); err != nil {
		return nil, err
	}
	cond, condArgs, err := buildWhere(params.Where)
	if err != nil {
		return nil, err
	}

	vectors, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("[SQLite] failed to embed query: %w", err)
	}

	q := fmt.Sprintf(`SELECT id, document, metadata, %s(embedding, ?) AS distance
FROM documents
WHERE collection = ?`, s.distance)
	if cond != "" {
		q += " AND " + cond
	}
	q += " ORDER BY distance, seq"
	n, bounded := params.Limit()
	if bounded {
		q += " LIMIT ?"
	}

	lists := make([][]embeddingdb.SearchResult, len(vectors))
	for i, v := range vectors {
		blob, err := sqlite_vec.SerializeFloat32(v)
		if err != nil {
			return nil, fmt.Errorf("[SQLite] serializing query vector: %w", err)
		}
		args := append([]any{blob, collection}, condArgs...)
		if bounded {
			args = append(args, n)
		}
		if lists[i], err = s.query(ctx, q, args...); err != nil {
			return nil, fmt.Errorf("[SQLite] searching documents: %w", err)
		}
	}
	return embeddingdb.MergeResults(lists, params), nil
}

func (s *Store) query(ctx context.Context, q string, args ...any) ([]embeddingdb.SearchResult, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	out := []embeddingdb.SearchResult{}
	for rows.Next() {
		var (
			id, text, meta string
			distance       float64
		)
		if err := rows.Scan(&id, &text, &meta, &distance); err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}
		m, err := decodeMetadata(meta)
		if err != nil {
			return nil, err
		}
		out = append(out, embeddingdb.NewSearchResult(text, id, distance, m))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating documents: %w", err)
	}
	return out, nil
}

func (s *Store) GetAll(ctx context.Context, collection string) ([]embeddingdb.SearchResult, error) {
	if err := embeddingdb.ValidateCollection(collection); err != nil {
		return nil, err
	}
	res, err := s.query(ctx,
		`SELECT id, document, metadata, 0.0 FROM documents WHERE collection = ? ORDER BY seq`, collection)
	if err != nil {
		return nil, fmt.Errorf("[SQLite] listing documents: %w", err)
	}
	return res, nil
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
		return fmt.Errorf("[SQLite] failed to embed documents: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("[SQLite] beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	const upsert = `INSERT INTO documents(collection, id, document, metadata, embedding) VALUES (?, ?, ?, ?, ?)
ON CONFLICT(collection, id) DO UPDATE SET
	document = excluded.document,
	metadata = excluded.metadata,
	embedding = excluded.embedding`
	stmt, err := tx.PrepareContext(ctx, upsert)
	if err != nil {
		return fmt.Errorf("[SQLite] preparing upsert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i, item := range items {
		id := item.ID
		if id == "" {
			id = uuid.NewString()
		}
		meta, err := encodeMetadata(item.Metadata)
		if err != nil {
			return err
		}
		blob, err := sqlite_vec.SerializeFloat32(vectors[i])
		if err != nil {
			return fmt.Errorf("[SQLite] serializing embedding: %w", err)
		}
		if _, err := stmt.ExecContext(ctx, collection, id, item.Text, meta, blob); err != nil {
			return fmt.Errorf("[SQLite] upserting document %s: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("[SQLite] committing documents: %w", err)
	}
	s.log.Debug("[SQLite] documents saved", nil, map[string]interface{}{
		"collection": collection,
		"count":      len(items),
	})
	return nil
}

func (s *Store) Clear(ctx context.Context, collection string) error {
	if err := embeddingdb.ValidateCollection(collection); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE collection = ?`, collection); err != nil {
		return fmt.Errorf("[SQLite] clearing collection: %w", err)
	}
	return nil
}

func (s *Store) Count(ctx context.Context, collection string) (int, error) {
	if err := embeddingdb.ValidateCollection(collection); err != nil {
		return 0, err
	}
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM documents WHERE collection = ?`, collection).Scan(&n); err != nil {
		return 0, fmt.Errorf("[SQLite] counting documents: %w", err)
	}
	return n, nil
}

func (s *Store) Delete(ctx context.Context, collection string, what embeddingdb.Selector) error {
	if err := embeddingdb.ValidateCollection(collection); err != nil {
		return err
	}
	if err := what.Validate(); err != nil {
		return err
	}

	var (
		q    string
		args = []any{collection}
	)
	if len(what.IDs) > 0 {
		placeholders := strings.Repeat("?,", len(what.IDs))
		placeholders = placeholders[:len(placeholders)-1]
		for _, id := range what.IDs {
			args = append(args, id)
		}
		q = `DELETE FROM documents WHERE collection = ? AND id IN (` + placeholders + `)`
	} else {
		cond, condArgs, err := buildWhere(what.Where)
		if err != nil {
			return err
		}
		args = append(args, condArgs...)
		q = `DELETE FROM documents WHERE collection = ? AND ` + cond
	}

	if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
		return fmt.Errorf("[SQLite] deleting documents: %w", err)
	}
	return nil
}

// Collections returns the names of the collections that hold documents.
func (s *Store) Collections(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT collection FROM documents ORDER BY collection`)
	if err != nil {
		return nil, fmt.Errorf("[SQLite] listing collections: %w", err)
	}
	defer func() { _ = rows.Close() }()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("[SQLite] scanning collection: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
