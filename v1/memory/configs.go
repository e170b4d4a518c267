package memory

import "fmt"

// Distance metrics.
const (
	MetricCosine = "cosine"
	MetricL2     = "l2"
	MetricDot    = "dot"
)

// Config holds the settings of the in-memory backend.
type Config struct {
	// Metric is the distance function: "cosine" (default), "l2" or "dot".
	Metric string `yaml:"metric" env:"MEMORY_METRIC"`
}

// DefaultConfig returns a cosine configured backend.
func DefaultConfig() Config {
	return Config{Metric: MetricCosine}
}

// Validate checks the metric name.
func (c Config) Validate() error {
	switch c.Metric {
	case "", MetricCosine, MetricL2, MetricDot:
		return nil
	default:
		return fmt.Errorf("[Memory] unknown metric %q", c.Metric)
	}
}
