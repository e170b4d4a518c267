package config

import (
	"go.uber.org/fx"

	"github.com/Aleph-Alpha/microcore/v1/backend"
	"github.com/Aleph-Alpha/microcore/v1/embedding"
	"github.com/Aleph-Alpha/microcore/v1/llm"
	"github.com/Aleph-Alpha/microcore/v1/logger"
	"github.com/Aleph-Alpha/microcore/v1/metrics"
	"github.com/Aleph-Alpha/microcore/v1/tracer"
)

// Sections exposes every sub-config to the container, so the other
// packages' FX modules find their Config without extra wiring.
type Sections struct {
	fx.Out

	Logger      logger.Config
	Embedding   *embedding.Config
	EmbeddingDB backend.Config
	LLM         *llm.Config
	Metrics     metrics.Config
	Tracer      tracer.Config
}

// FXModule provides the sections of a Config. The Config itself must be
// supplied, usually as
//
//	fx.Provide(func() (config.Config, error) { return config.Load("microcore.yaml") })
var FXModule = fx.Module("config",
	fx.Provide(Split),
)

// Split breaks cfg into its sections.
func Split(cfg Config) Sections {
	return Sections{
		Logger:      cfg.Logger,
		Embedding:   cfg.Embedding,
		EmbeddingDB: cfg.EmbeddingDB,
		LLM:         cfg.LLM,
		Metrics:     cfg.Metrics,
		Tracer:      cfg.Tracer,
	}
}
