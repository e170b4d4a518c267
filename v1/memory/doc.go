// Package memory is an in-process embeddingdb.DB backend.
//
// Documents and their vectors live in a map guarded by a sync.RWMutex;
// searches compare the query against every stored vector. It needs no
// external service, which makes it the backend of choice for tests,
// examples and small corpora.
//
//	store, err := memory.New(memory.DefaultConfig(), embedder, nil)
//	err = store.SaveMany(ctx, "notes", embeddingdb.Docs("buy milk", "call mom"))
//	hits, err := store.Search(ctx, "notes", embeddingdb.Text("groceries"), embeddingdb.SearchParams{})
//
// Supported metrics are "cosine" (1 - cosine similarity, the default), "l2"
// (euclidean distance) and "dot" (negated inner product).
package memory
