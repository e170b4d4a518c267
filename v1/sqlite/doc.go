// Package sqlite is the embedded backend of the embeddingdb contract: a single
// SQLite file (mattn/go-sqlite3) with the sqlite-vec extension loaded.
//
// All collections share one documents table keyed by (collection, id).
// Embeddings are stored as sqlite-vec float32 blobs and ranked with
// vec_distance_cosine or vec_distance_l2, scanning every row of the
// collection. This is exact and fine for up to a few hundred thousand
// documents; use the qdrant or postgres backend beyond that.
//
// Where filters compile to json_extract conditions on the metadata column.
// Numbers compare by value, booleans match JSON true/false, time.Time values
// match their RFC 3339 form and lists or objects compare as JSON.
//
// The embedder's dimension is recorded on first use; reopening the file with
// an embedder of another size fails with ErrDimensionMismatch.
//
//	store, err := sqlite.NewStore(sqlite.Config{Path: "docs.db"}, embedder, log)
//	if err != nil {
//		return err
//	}
//	defer store.Close()
//
// Building requires cgo.
package sqlite
