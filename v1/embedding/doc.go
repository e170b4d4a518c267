// Package embedding turns text into vectors for the embedding database
// backends.
//
// # Overview
//
// The package exposes one public entrypoint, Client, which implements the
// Embedder interface and hides provider details: HTTP, authentication,
// batching and response validation.
//
//	client, err := embedding.NewClient(cfg)
//	vectors, err := client.Embed(ctx, []string{"hello", "world"})
//
// # Providers
//
//   - "openai": any OpenAI-compatible /embeddings endpoint (OpenAI, vLLM,
//     Aleph Alpha inference, Nebius, ...), called through
//     github.com/sashabaranov/go-openai. Endpoint is the base URL without
//     the /embeddings suffix.
//   - "hashing": a local feature-hashing embedder. Deterministic and free
//     of network access; identical texts get identical vectors and texts
//     sharing words are close. Use it for tests and offline work.
//
// # Configuration
//
// NewConfig reads the environment:
//
//	EMBEDDING_PROVIDER              openai | hashing (default openai)
//	EMBEDDING_ENDPOINT              base URL of the inference API
//	EMBEDDING_SERVICE_TOKEN         bearer token
//	EMBEDDING_MODEL                 model name
//	EMBEDDING_DIMENSIONS            vector size (required for openai)
//	EMBEDDING_HTTP_TIMEOUT_SECONDS  default 30
//	EMBEDDING_BATCH_SIZE            texts per request, default 64
//
// The same fields can be loaded from YAML through the config package.
//
// # Errors
//
// Failures reported by a remote provider wrap ErrProviderFailure. Context
// cancellation is returned unchanged.
//
// # Fx
//
//	app := fx.New(
//	    fx.Provide(embedding.NewConfig),
//	    embedding.FXModule,
//	)
//
// FXModule provides *Client and Embedder and closes the client on stop.
package embedding
