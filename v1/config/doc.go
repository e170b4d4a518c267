// Package config loads the YAML file that configures a microcore
// application and hands each section to the matching FX module.
//
//	# microcore.yaml
//	logger:
//	  level: info
//	embedding:
//	  provider: openai
//	  endpoint: ${EMBEDDING_ENDPOINT}
//	  service_token: ${EMBEDDING_SERVICE_TOKEN}
//	  model: text-embedding-3-small
//	  dimensions: 1536
//	embeddingdb:
//	  type: qdrant
//	  qdrant:
//	    endpoint: ${QDRANT_HOST:-localhost}
//
// Values may reference the environment as ${VAR} or ${VAR:-default}.
// Sections and keys left out keep the values from Default.
//
//	app := fx.New(
//	    fx.Provide(func() (config.Config, error) { return config.Load("microcore.yaml") }),
//	    config.FXModule,
//	    logger.FXModule,
//	    embedding.FXModule,
//	    backend.FXModule,
//	)
package config
