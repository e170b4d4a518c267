// Package metrics provides Prometheus-based monitoring and metrics collection.
//
// Each Metrics value owns an isolated registry. Every metric registered
// through it carries a constant service label and, when Config.Namespace is
// set, a name prefix.
//
// # Operation Metrics
//
// *Metrics implements observability.Observer. Components that report
// operations (the instrumented embeddingdb wrapper, the LLM provider) feed:
//
//	operations_total{component,operation,status}
//	operation_duration_seconds{component,operation}
//	operation_size{component,operation}
//
// status is "success" or "error".
//
// # Direct Usage (Without FX)
//
//	m := metrics.NewMetrics(metrics.Config{
//		Address:                 ":9090",
//		EnableDefaultCollectors: true,
//		ServiceName:             "indexer",
//	})
//	go m.Server.ListenAndServe()
//
//	db := embeddingdb.NewInstrumented(backendDB, embeddingdb.InstrumentOptions{
//		Observer: m,
//	})
//
// # FX Module Integration
//
//	app := fx.New(
//		logger.FXModule, // optional, used for server start/stop logs
//		metrics.FXModule,
//		fx.Provide(func() metrics.Config { return metrics.DefaultConfig() }),
//	)
//
// FXModule provides *Metrics, MetricsCollector and observability.Observer.
// The server binds on start, so an occupied port fails the application start.
//
// # Custom Metrics
//
//	imports := m.CreateCounter("imports_total", "Imported files", []string{"kind"})
//	imports.WithLabelValues("pdf").Inc()
//
// Registering the same name twice panics, as prometheus.MustRegister does.
//
// # Configuration
//
//	METRICS_ADDRESS=:9090
//	METRICS_ENABLE_DEFAULT_COLLECTORS=true
//	METRICS_NAMESPACE=microcore
//	METRICS_SERVICE_NAME=indexer
package metrics
