package metrics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Config configures the metrics provider.
type Config struct {
	Enabled          bool
	ExporterEndpoint string
	ExporterProtocol string
	ServiceName      string
	Environment      string
}

// Metrics exposes marketplace instruments. A nil *Metrics is valid and records nothing.
type Metrics struct {
	invitationsIssued    metric.Int64Counter
	invitationsCompleted metric.Int64Counter
	offersDecided        metric.Int64Counter
	financialUpdates     metric.Int64Counter
	profilesSelfHealed   metric.Int64Counter
	rateLimitDenied      metric.Int64Counter
}

// NewProvider configures and registers the meter provider.
func NewProvider(lc fx.Lifecycle, cfg Config, log *zap.Logger) (metric.MeterProvider, error) {
	if !cfg.Enabled {
		provider := noop.NewMeterProvider()
		otel.SetMeterProvider(provider)
		return provider, nil
	}

	exporter, err := newExporter(cfg.ExporterProtocol, cfg.ExporterEndpoint)
	if err != nil {
		return nil, err
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(10*time.Second))
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)

	if lc != nil {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				log.Info("shutting down meter provider")
				return provider.Shutdown(ctx)
			},
		})
	}

	log.Info("metrics initialized",
		zap.String("endpoint", cfg.ExporterEndpoint),
		zap.String("protocol", cfg.ExporterProtocol),
	)
	return provider, nil
}

// New configures the domain instruments.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "marketplace"
	}
	meter := provider.Meter(name)

	var (
		m   Metrics
		err error
	)
	counters := []struct {
		target *metric.Int64Counter
		name   string
	}{
		{&m.invitationsIssued, "marketplace_invitations_issued_total"},
		{&m.invitationsCompleted, "marketplace_invitations_completed_total"},
		{&m.offersDecided, "marketplace_offers_decided_total"},
		{&m.financialUpdates, "marketplace_financial_updates_total"},
		{&m.profilesSelfHealed, "marketplace_profiles_self_healed_total"},
		{&m.rateLimitDenied, "marketplace_rate_limit_denied_total"},
	}
	for _, c := range counters {
		if *c.target, err = meter.Int64Counter(c.name); err != nil {
			return nil, err
		}
	}
	return &m, nil
}

func (m *Metrics) RecordInvitationIssued(ctx context.Context, role string) {
	if m == nil {
		return
	}
	m.invitationsIssued.Add(ctx, 1, metric.WithAttributes(FilterAttributes(attribute.String("role", role))...))
}

func (m *Metrics) RecordInvitationCompleted(ctx context.Context, role string) {
	if m == nil {
		return
	}
	m.invitationsCompleted.Add(ctx, 1, metric.WithAttributes(FilterAttributes(attribute.String("role", role))...))
}

func (m *Metrics) RecordOfferDecided(ctx context.Context, status string) {
	if m == nil {
		return
	}
	m.offersDecided.Add(ctx, 1, metric.WithAttributes(FilterAttributes(attribute.String("status", status))...))
}

func (m *Metrics) RecordFinancialUpdate(ctx context.Context, paymentStatus string) {
	if m == nil {
		return
	}
	m.financialUpdates.Add(ctx, 1, metric.WithAttributes(FilterAttributes(attribute.String("payment_status", paymentStatus))...))
}

func (m *Metrics) RecordProfileSelfHealed(ctx context.Context) {
	if m == nil {
		return
	}
	m.profilesSelfHealed.Add(ctx, 1)
}

func (m *Metrics) RecordRateLimitDenied(ctx context.Context, endpoint string) {
	if m == nil {
		return
	}
	m.rateLimitDenied.Add(ctx, 1, metric.WithAttributes(FilterAttributes(attribute.String("endpoint", endpoint))...))
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	switch strings.ToLower(strings.TrimSpace(protocol)) {
	case "http", "http/protobuf":
		opts := []otlpmetrichttp.Option{otlpmetrichttp.WithInsecure()}
		if endpoint != "" {
			opts = append(opts, otlpmetrichttp.WithEndpoint(endpoint))
		}
		return otlpmetrichttp.New(context.Background(), opts...)
	case "grpc", "grpc/protobuf", "":
		opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithInsecure()}
		if endpoint != "" {
			opts = append(opts, otlpmetricgrpc.WithEndpoint(endpoint))
		}
		return otlpmetricgrpc.New(context.Background(), opts...)
	default:
		return nil, fmt.Errorf("unsupported OTLP protocol %q", protocol)
	}
}

var allowedLabelKeys = map[attribute.Key]struct{}{
	"role":           {},
	"status":         {},
	"payment_status": {},
	"endpoint":       {},
	"status_code":    {},
	"method":         {},
	"route":          {},
}

// FilterAttributes strips disallowed labels to keep metrics low-cardinality.
func FilterAttributes(attrs ...attribute.KeyValue) []attribute.KeyValue {
	filtered := make([]attribute.KeyValue, 0, len(attrs))
	for _, attr := range attrs {
		if _, ok := allowedLabelKeys[attr.Key]; !ok {
			continue
		}
		filtered = append(filtered, attr)
	}
	return filtered
}
