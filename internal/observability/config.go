package observability

import (
	"os"
	"strconv"
	"strings"

	"github.com/coderjoher/Project-Managment-Tool-sub000/internal/config"
)

const defaultServiceName = "marketplace"

// Config is the observability view of the process configuration. OTEL_* and
// LOG_* environment variables override what config.Config carries.
type Config struct {
	ServiceName string
	Environment string
	Version     string

	LogLevel  string
	LogFormat string

	Otel OtelConfig
}

type OtelConfig struct {
	Enabled       bool
	Endpoint      string
	Protocol      string
	SamplingRatio float64
}

func LoadConfig(cfg config.Config) Config {
	out := Config{
		ServiceName: firstNonEmpty(cfg.AppName, defaultServiceName),
		Environment: firstNonEmpty(os.Getenv("DEPLOYMENT_ENV"), cfg.Environment),
		Version:     firstNonEmpty(os.Getenv("SERVICE_VERSION"), cfg.AppVersion),
		LogLevel:    strings.ToLower(firstNonEmpty(os.Getenv("LOG_LEVEL"), "info")),
		LogFormat:   strings.ToLower(firstNonEmpty(os.Getenv("LOG_FORMAT"), "json")),
	}

	out.Otel.Endpoint = firstNonEmpty(os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"), cfg.OTLPEndpoint)
	out.Otel.Protocol = strings.ToLower(firstNonEmpty(
		os.Getenv("OTEL_EXPORTER_OTLP_TRACES_PROTOCOL"),
		os.Getenv("OTEL_EXPORTER_OTLP_PROTOCOL"),
		"grpc",
	))
	// Exporting is off unless a collector endpoint is known.
	out.Otel.Enabled = parseBool(os.Getenv("OTEL_ENABLED"), out.Otel.Endpoint != "")
	out.Otel.SamplingRatio = parseRatio(os.Getenv("OTEL_SAMPLING_RATIO"), 0.1)
	return out
}

// Debug is true for debug log level and for development environments.
func (c Config) Debug() bool {
	if c.LogLevel == "debug" {
		return true
	}
	switch strings.ToLower(c.Environment) {
	case "dev", "development", "local", "test":
		return true
	}
	return false
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func parseBool(raw string, def bool) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	}
	return def
}

func parseRatio(raw string, def float64) float64 {
	parsed, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || parsed < 0 || parsed > 1 {
		return def
	}
	return parsed
}
