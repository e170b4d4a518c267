// Package embeddingdb defines the backend-independent contract for embedding
// (vector) databases and the operations derived from it.
//
// # Contract
//
// A backend implements the six primitives of DB: Search, GetAll, SaveMany,
// Clear, Count and Delete. Collections are created lazily by SaveMany and an
// unknown collection behaves like an empty one. Empty results are never
// errors.
//
// Implementations in this module:
//
//   - memory:   in-process, brute force (v1/memory)
//   - qdrant:   Qdrant over gRPC (v1/qdrant)
//   - postgres: PostgreSQL with pgvector (v1/postgres)
//   - sqlite:   SQLite with sqlite-vec (v1/sqlite)
//
// v1/backend builds one of them from configuration.
//
// # Derived operations
//
// Find, FindAll, FindOne and Save are implemented once, on top of the
// primitives, and work with any backend:
//
//	hits, err := embeddingdb.Find(ctx, db, "docs", embeddingdb.Text("tea"), embeddingdb.WithLimit(3))
//	all, err := embeddingdb.FindAll(ctx, db, "docs", embeddingdb.Text("tea"))
//	best, err := embeddingdb.FindOne(ctx, db, "docs", embeddingdb.Text("tea")) // nil when empty
//	err = embeddingdb.Save(ctx, db, "docs", "green tea", map[string]any{"lang": "en"})
//
// FindAll uses SearchParams.Unlimited rather than a very large result count.
//
// Store wraps a DB with the same operations on plain strings:
//
//	store := embeddingdb.NewStore(db)
//	_ = store.SaveTexts(ctx, "docs", "black tea", "green tea")
//	hit, _ := store.FindOne(ctx, "docs", "tea")
//
// # Results
//
// SearchResult behaves as the document text and carries id, distance and
// metadata attributes:
//
//	fmt.Println(hit)              // "green tea"
//	hit.ID(), hit.Distance(), hit.Metadata()
//
// # Filters and deletion
//
// Where is an equality filter over metadata keys. Delete takes a Selector,
// built with ByID, ByIDs or ByWhere.
//
// # Instrumentation
//
// NewInstrumented decorates any DB with OpenTelemetry spans, observability
// notifications (Prometheus metrics through v1/metrics) and structured logs.
//
// # Testing
//
// MockDB is a gomock mock of DB. Package dbtest holds a conformance suite
// that backends run against themselves.
package embeddingdb
