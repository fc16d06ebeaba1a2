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

// Metrics exposes application-level instruments.
type Metrics struct {
	admissions           metric.Int64Counter
	inviteTransitions    metric.Int64Counter
	notificationDispatch metric.Int64Counter
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
				if log != nil {
					log.Info("shutting down meter provider")
				}
				return provider.Shutdown(ctx)
			},
		})
	}

	return provider, nil
}

// New configures the domain metrics instruments.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "hcw-home"
	}
	meter := provider.Meter(name)

	admissions, err := meter.Int64Counter("hcwhome_ws_admissions_total")
	if err != nil {
		return nil, err
	}
	inviteTransitions, err := meter.Int64Counter("hcwhome_invite_transitions_total")
	if err != nil {
		return nil, err
	}
	notificationDispatch, err := meter.Int64Counter("hcwhome_notification_dispatch_total")
	if err != nil {
		return nil, err
	}
	rateLimitDenied, err := meter.Int64Counter("hcwhome_rate_limit_denied_total")
	if err != nil {
		return nil, err
	}

	return &Metrics{
		admissions:           admissions,
		inviteTransitions:    inviteTransitions,
		notificationDispatch: notificationDispatch,
		rateLimitDenied:      rateLimitDenied,
	}, nil
}

// RecordAdmission counts one realtime admission decision.
func (m *Metrics) RecordAdmission(ctx context.Context, outcome, reason string) {
	if m == nil {
		return
	}
	m.admissions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("outcome", strings.TrimSpace(outcome)),
		attribute.String("reason", strings.TrimSpace(reason)),
	))
}

// RecordInviteTransition counts one invitation status transition.
func (m *Metrics) RecordInviteTransition(ctx context.Context, from, to string) {
	if m == nil {
		return
	}
	m.inviteTransitions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("from", strings.TrimSpace(from)),
		attribute.String("to", strings.TrimSpace(to)),
	))
}

// RecordNotificationDispatch counts one outbound notification.
func (m *Metrics) RecordNotificationDispatch(ctx context.Context, channel, kind string, ok bool) {
	if m == nil {
		return
	}
	m.notificationDispatch.Add(ctx, 1, metric.WithAttributes(
		attribute.String("channel", strings.TrimSpace(channel)),
		attribute.String("kind", strings.TrimSpace(kind)),
		attribute.Bool("success", ok),
	))
}

// RecordRateLimitDenied counts one denied public request.
func (m *Metrics) RecordRateLimitDenied(ctx context.Context, route string) {
	if m == nil {
		return
	}
	m.rateLimitDenied.Add(ctx, 1, metric.WithAttributes(
		attribute.String("route", strings.TrimSpace(route)),
	))
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	switch strings.ToLower(strings.TrimSpace(protocol)) {
	case "http", "http/protobuf":
		return otlpmetrichttp.New(context.Background(),
			otlpmetrichttp.WithEndpoint(endpoint),
			otlpmetrichttp.WithInsecure(),
		)
	case "", "grpc":
		return otlpmetricgrpc.New(context.Background(),
			otlpmetricgrpc.WithEndpoint(endpoint),
			otlpmetricgrpc.WithInsecure(),
		)
	default:
		return nil, fmt.Errorf("unsupported otlp protocol %q", protocol)
	}
}
