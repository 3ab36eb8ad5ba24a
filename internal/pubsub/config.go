package pubsub

import (
	"github.com/caarlos0/env/v11"
)

// TracingConfig holds configuration for OpenTelemetry tracing
type TracingConfig struct {
	Enabled        bool   `env:"PUBSUB_TRACING_ENABLED" envDefault:"false"`
	ServiceName    string `env:"PUBSUB_TRACING_SERVICE_NAME" envDefault:"huddle"`
	ServiceVersion string `env:"PUBSUB_TRACING_SERVICE_VERSION" envDefault:"dev"`
	ZipkinURL      string `env:"PUBSUB_TRACING_ZIPKIN_URL" envDefault:"http://localhost:9411/api/v2/spans"`
}

// DefaultTracingConfig returns a default tracing configuration
func DefaultTracingConfig() TracingConfig {
	return TracingConfig{
		Enabled:        false,
		ServiceName:    "huddle",
		ServiceVersion: "dev",
		ZipkinURL:      "http://localhost:9411/api/v2/spans",
	}
}

// LoadTracingConfigFromEnv loads tracing configuration from environment
// variables. Malformed values fall back to the defaults.
func LoadTracingConfigFromEnv() TracingConfig {
	cfg, err := env.ParseAs[TracingConfig]()
	if err != nil {
		return DefaultTracingConfig()
	}
	return cfg
}
