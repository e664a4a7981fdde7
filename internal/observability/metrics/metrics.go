package metrics

import (
	"context"
	"fmt"
	"strconv"
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
	featureToggles metric.Int64Counter
	planChanges    metric.Int64Counter
	transitions    metric.Int64Counter
	paymentEvents  metric.Int64Counter
	onboardings    metric.Int64Counter
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

	if log != nil {
		log.Info("metrics initialized",
			zap.String("endpoint", cfg.ExporterEndpoint),
			zap.String("protocol", cfg.ExporterProtocol),
		)
	}

	return provider, nil
}

// New configures the domain metrics instruments.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "foody-entitlement"
	}
	meter := provider.Meter(name)

	featureToggles, err := meter.Int64Counter("entitlement_feature_toggles_total")
	if err != nil {
		return nil, err
	}
	planChanges, err := meter.Int64Counter("entitlement_plan_changes_total")
	if err != nil {
		return nil, err
	}
	transitions, err := meter.Int64Counter("entitlement_subscription_transitions_total")
	if err != nil {
		return nil, err
	}
	paymentEvents, err := meter.Int64Counter("entitlement_payment_events_total")
	if err != nil {
		return nil, err
	}
	onboardings, err := meter.Int64Counter("entitlement_onboardings_total")
	if err != nil {
		return nil, err
	}

	return &Metrics{
		featureToggles: featureToggles,
		planChanges:    planChanges,
		transitions:    transitions,
		paymentEvents:  paymentEvents,
		onboardings:    onboardings,
	}, nil
}

// RecordFeatureToggle increments feature toggle counts.
func (m *Metrics) RecordFeatureToggle(ctx context.Context, featureKey string, enabled bool) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(
		attribute.String("feature_key", strings.TrimSpace(featureKey)),
		attribute.String("enabled", strconv.FormatBool(enabled)),
	)
	m.featureToggles.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordPlanChange increments plan change counts.
func (m *Metrics) RecordPlanChange(ctx context.Context, planTier string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("plan_tier", strings.TrimSpace(planTier)))
	m.planChanges.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordTransition increments subscription lifecycle transition counts.
func (m *Metrics) RecordTransition(ctx context.Context, from, to string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(
		attribute.String("from", strings.TrimSpace(from)),
		attribute.String("to", strings.TrimSpace(to)),
	)
	m.transitions.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordPaymentEvent increments payment event counts.
func (m *Metrics) RecordPaymentEvent(ctx context.Context, eventType string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("event_type", strings.TrimSpace(eventType)))
	m.paymentEvents.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordOnboarding increments restaurant onboarding counts.
func (m *Metrics) RecordOnboarding(ctx context.Context, planTier string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("plan_tier", strings.TrimSpace(planTier)))
	m.onboardings.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	protocol = strings.ToLower(strings.TrimSpace(protocol))
	switch protocol {
	case "http", "http/protobuf":
		opts := []otlpmetrichttp.Option{}
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
	"feature_key": {},
	"enabled":     {},
	"plan_tier":   {},
	"from":        {},
	"to":          {},
	"event_type":  {},
	"endpoint":    {},
	"status_code": {},
	"reason":      {},
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
