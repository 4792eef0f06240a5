package observability

import (
	"github.com/coderjoher/Project-Managment-Tool-sub000/internal/observability/logger"
	"github.com/coderjoher/Project-Managment-Tool-sub000/internal/observability/metrics"
	"github.com/coderjoher/Project-Managment-Tool-sub000/internal/observability/tracing"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/fx"
)

var Module = fx.Module("observability",
	fx.Provide(
		LoadConfig,
		Config.logger,
		logger.New,
		Config.tracing,
		tracing.NewProvider,
		Config.metrics,
		metrics.NewProvider,
		metrics.New,
		metrics.NewHTTPMetrics,
		metrics.NewJobMetrics,
	),
	// The tracer provider has no other consumer; requesting it installs the global.
	fx.Invoke(func(*sdktrace.TracerProvider) {}),
)

func (c Config) logger() logger.Config {
	return logger.Config{
		ServiceName:         c.ServiceName,
		Environment:         c.Environment,
		Version:             c.Version,
		Level:               c.LogLevel,
		Format:              c.LogFormat,
		Debug:               c.Debug(),
		IncludeCaller:       true,
		IncludeStackOnError: c.Debug(),
	}
}

func (c Config) tracing() tracing.Config {
	return tracing.Config{
		Enabled:          c.Otel.Enabled,
		ServiceName:      c.ServiceName,
		ServiceVersion:   c.Version,
		Environment:      c.Environment,
		ExporterEndpoint: c.Otel.Endpoint,
		ExporterProtocol: c.Otel.Protocol,
		SamplingRatio:    c.Otel.SamplingRatio,
	}
}

func (c Config) metrics() metrics.Config {
	return metrics.Config{
		Enabled:          c.Otel.Enabled,
		ExporterEndpoint: c.Otel.Endpoint,
		ExporterProtocol: c.Otel.Protocol,
		ServiceName:      c.ServiceName,
		Environment:      c.Environment,
	}
}
