package llm

import (
	"go.uber.org/fx"

	"github.com/Aleph-Alpha/microcore/v1/logger"
	"github.com/Aleph-Alpha/microcore/v1/observability"
)

// FXModule wires the OpenAI-compatible provider into Fx.
//
// It provides *OpenAI and the same instance as Provider. A *Config must be
// supplied, either with fx.Provide(llm.NewConfig) or by config.FXModule.
// When metrics.FXModule is present, completions are reported through its
// observability.Observer.
var FXModule = fx.Module("llm",
	fx.Provide(
		NewOpenAIWithDI,
		func(o *OpenAI) Provider { return o },
	),
)

// OpenAIParams groups the dependencies of NewOpenAIWithDI.
type OpenAIParams struct {
	fx.In

	Config   *Config
	Logger   *logger.Logger         `optional:"true"`
	Observer observability.Observer `optional:"true"`
}

// NewOpenAIWithDI builds the provider from injected dependencies.
func NewOpenAIWithDI(p OpenAIParams) (*OpenAI, error) {
	var opts []OpenAIOption
	if p.Logger != nil {
		opts = append(opts, WithLogger(p.Logger))
	}
	if p.Observer != nil {
		opts = append(opts, WithObserver(p.Observer))
	}
	return NewOpenAI(p.Config, opts...)
}
