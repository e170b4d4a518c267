package tracer

// Config controls the tracer provider.
type Config struct {
	// ServiceName is reported as the service.name resource attribute.
	ServiceName string `yaml:"service_name" env:"TRACER_SERVICE_NAME"`

	// AppEnv is reported as deployment.environment.
	AppEnv string `yaml:"app_env" env:"TRACER_APP_ENV"`

	// EnableExport sends spans to an OTLP/HTTP collector. Without it spans
	// are created and propagated but not exported.
	EnableExport bool `yaml:"enable_export" env:"TRACER_ENABLE_EXPORT"`

	// Endpoint is the collector URL, e.g. http://otel-collector:4318. Empty
	// means the OTEL_EXPORTER_OTLP_* environment variables decide.
	Endpoint string `yaml:"endpoint" env:"TRACER_ENDPOINT"`
}
