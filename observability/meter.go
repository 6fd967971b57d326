package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/agentmesh/gatekit/logger"
)

// MeterConfig configures the OpenTelemetry meter provider.
type MeterConfig struct {
	// ServiceName is the name of the service.
	ServiceName string
	// ServiceVersion is the version of the service.
	ServiceVersion string
	// Environment is the deployment environment (dev, staging, prod).
	Environment string
	// Endpoint is the OTLP HTTP endpoint host:port (e.g., "localhost:4318").
	Endpoint string
	// Insecure allows insecure connections (for development).
	Insecure bool
	// Interval is the metric export interval.
	Interval time.Duration
}

// DefaultMeterConfig returns sensible defaults for development.
func DefaultMeterConfig(serviceName string) MeterConfig {
	return MeterConfig{
		ServiceName:    serviceName,
		ServiceVersion: "1.0.0",
		Environment:    "development",
		Endpoint:       "localhost:4318",
		Insecure:       true,
		Interval:       15 * time.Second,
	}
}

// InitMeter initializes the OpenTelemetry meter provider.
// Returns a MeterProvider that should be shut down on application exit.
func InitMeter(ctx context.Context, config *MeterConfig) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(config.Endpoint),
	}
	if config.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	res, err := newResource(config.ServiceName, config.ServiceVersion, config.Environment)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	readerOpts := []sdkmetric.PeriodicReaderOption{}
	if config.Interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(config.Interval))
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	)

	otel.SetMeterProvider(mp)

	logger.Info("meter initialized", logger.Fields(
		"service", config.ServiceName,
		"endpoint", config.Endpoint,
		"interval", config.Interval.String(),
	))

	return mp, nil
}

// Meter returns a named meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// GatewayMetrics holds the metric instruments recorded per outbound request.
type GatewayMetrics struct {
	requestTotal    metric.Int64Counter
	requestDuration metric.Float64Histogram
	requestActive   metric.Int64UpDownCounter
	retryTotal      metric.Int64Counter
	rateLimitTotal  metric.Int64Counter
	circuitChanges  metric.Int64Counter
}

// NewGatewayMetrics creates the gateway instruments on the given meter.
func NewGatewayMetrics(meter metric.Meter) (*GatewayMetrics, error) {
	requestTotal, err := meter.Int64Counter("gateway.request.total",
		metric.WithDescription("Total outbound gateway requests by service and outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating gateway.request.total counter: %w", err)
	}

	requestDuration, err := meter.Float64Histogram("gateway.request.duration",
		metric.WithDescription("Duration of outbound gateway requests in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating gateway.request.duration histogram: %w", err)
	}

	requestActive, err := meter.Int64UpDownCounter("gateway.request.active",
		metric.WithDescription("Number of in-flight gateway requests"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating gateway.request.active gauge: %w", err)
	}

	retryTotal, err := meter.Int64Counter("gateway.retry.total",
		metric.WithDescription("Total transport retries by service"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating gateway.retry.total counter: %w", err)
	}

	rateLimitTotal, err := meter.Int64Counter("gateway.ratelimit.total",
		metric.WithDescription("Calls refused by the per-service token bucket"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating gateway.ratelimit.total counter: %w", err)
	}

	circuitChanges, err := meter.Int64Counter("gateway.circuit.transitions",
		metric.WithDescription("Circuit breaker state transitions by service"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating gateway.circuit.transitions counter: %w", err)
	}

	return &GatewayMetrics{
		requestTotal:    requestTotal,
		requestDuration: requestDuration,
		requestActive:   requestActive,
		retryTotal:      retryTotal,
		rateLimitTotal:  rateLimitTotal,
		circuitChanges:  circuitChanges,
	}, nil
}

// RecordRequestStart increments the in-flight request count.
func (m *GatewayMetrics) RecordRequestStart(ctx context.Context) {
	m.requestActive.Add(ctx, 1)
}

// RecordRequestEnd decrements in-flight requests and records the outcome.
func (m *GatewayMetrics) RecordRequestEnd(ctx context.Context, service, operation, status string, retries int, duration time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("service", service),
		attribute.String("operation", operation),
		attribute.String("status", status),
	)
	m.requestActive.Add(ctx, -1)
	m.requestTotal.Add(ctx, 1, attrs)
	m.requestDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("service", service),
		attribute.String("operation", operation),
	))
	if retries > 0 {
		m.retryTotal.Add(ctx, int64(retries), metric.WithAttributes(
			attribute.String("service", service),
		))
	}
}

// RecordRateLimited counts a call refused by the token bucket.
func (m *GatewayMetrics) RecordRateLimited(ctx context.Context, service string) {
	m.rateLimitTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("service", service),
	))
}

// RecordCircuitTransition counts a breaker state change.
func (m *GatewayMetrics) RecordCircuitTransition(ctx context.Context, service, from, to string) {
	m.circuitChanges.Add(ctx, 1, metric.WithAttributes(
		attribute.String("service", service),
		attribute.String("from", from),
		attribute.String("to", to),
	))
}
