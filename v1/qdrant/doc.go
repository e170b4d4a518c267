// Package qdrant is the Qdrant backend of the embeddingdb contract.
//
// It has two layers:
//
//   - QdrantClient owns the gRPC connection (github.com/qdrant/go-client),
//     health-checks it on construction and closes it on shutdown.
//   - Adapter implements embeddingdb.DB on top of the client. It embeds
//     documents and queries with an embedding.Embedder and maps the contract
//     onto Qdrant collections and points.
//
// # Basic Usage
//
//	client, err := qdrant.NewQdrantClient(qdrant.QdrantParams{
//	    Config: qdrant.FromEndpoint("localhost"),
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	db, err := qdrant.NewAdapter(client, embedder)
//	err = db.SaveMany(ctx, "docs", embeddingdb.Docs("first", "second"))
//	hits, err := db.Search(ctx, "docs", embeddingdb.Text("first"), embeddingdb.SearchParams{NResults: 3})
//
// # Storage Layout
//
// Collections are created on the first save with one unnamed vector sized
// after the embedder and the distance from Config.Distance. Each document
// becomes a point whose payload is
//
//	{"document": <text>, "metadata": {...}, "doc_id": <document id>}
//
// Qdrant only accepts UUIDs and unsigned integers as point ids, so document
// ids that are not UUIDs are mapped to a UUIDv5 (see PointID); the original
// id is kept in "doc_id" and returned by searches.
//
// # Filtering
//
// embeddingdb.Where keys address "metadata.<key>". Strings and booleans use
// match conditions, numbers a closed range (so 3 and 3.0 are equal) and
// time.Time values a datetime range. A nil value matches null fields.
//
// # Search Extras
//
// Adapter.Search reads these SearchParams.Extra keys:
//
//	hnsw_ef          int      HNSW ef search parameter
//	exact            bool     exhaustive instead of approximate search
//	score_threshold  float64  minimum Qdrant score
//
// Batch queries run concurrently, at most ten requests at a time.
//
// # Distances
//
// For cosine and dot collections the reported distance is 1 - score; for
// euclid and manhattan collections it is the score itself.
//
// # Fx
//
//	app := fx.New(
//	    fx.Provide(func() *qdrant.Config { return qdrant.DefaultConfig() }),
//	    embedding.FXModule,
//	    qdrant.FXModule,
//	)
//
// FXModule provides *QdrantClient and *Adapter and closes the client on stop.
// Most applications use the backend package instead, which picks the
// backend from configuration.
package qdrant
