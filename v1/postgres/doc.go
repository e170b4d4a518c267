// Package postgres is the PostgreSQL backend of the embeddingdb contract,
// built on pgvector.
//
// Postgres wraps a gorm connection (pgx driver) with a health monitor that
// pings the database periodically and reconnects when the ping fails. Store
// implements embeddingdb.DB on top of it.
//
// # Basic Usage
//
//	cfg := postgres.DefaultConfig()
//	cfg.Connection.Password = "secret"
//
//	pg, err := postgres.NewPostgres(cfg, log)
//	if err != nil {
//		return err
//	}
//	defer pg.Close()
//
//	store, err := postgres.NewStore(pg, embedder, cfg.Store)
//	err = store.SaveMany(ctx, "docs", embeddingdb.Docs("first", "second"))
//
// # Storage Layout
//
// Every collection lives in one table (Config.Store.Table, default
// "microcore_documents"):
//
//	seq         BIGSERIAL         insertion order, used by GetAll
//	collection  TEXT              \ primary key
//	id          TEXT              /
//	document    TEXT
//	metadata    JSONB
//	embedding   vector(N)         N = embedder dimensions
//
// NewStore creates the vector extension, the table and its indexes when they
// are missing. Set StoreConfig.SkipExtension when the extension is managed
// elsewhere and StoreConfig.Index to "hnsw" for approximate search.
//
// # Filtering
//
// Where filters are matched with jsonb containment (metadata @> filter), so
// numbers compare by value and time.Time values match their RFC 3339 form.
//
// # Distances
//
// "cosine" (<=>), "l2" (<->) and "inner_product" (<#>, the negated inner
// product). Smaller is always more similar.
//
// # Search Extras
//
//	ivfflat_probes  int  SET LOCAL ivfflat.probes for the query
//	hnsw_ef_search  int  SET LOCAL hnsw.ef_search for the query
//
// # Fx
//
// FXModule provides *Postgres and *Store from a Config and an
// embedding.Embedder, runs the connection monitor while the app is up and
// closes the pool on stop.
package postgres
