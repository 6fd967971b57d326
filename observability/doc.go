// Package observability provides OpenTelemetry tracing and metrics for the
// gateway client, plus health aggregation over its per-service state.
//
// Tracing:
//
//	tp, err := observability.InitTracer(ctx, observability.DefaultTracerConfig("agent-platform"))
//	defer tp.Shutdown(ctx)
//
// Metrics:
//
//	mp, err := observability.InitMeter(ctx, observability.DefaultMeterConfig("agent-platform"))
//	defer mp.Shutdown(ctx)
//
//	metrics, err := observability.NewGatewayMetrics(observability.Meter("gateway"))
//
// The gateway client records one span and one metric sample per outbound
// request; both providers are optional and default to the otel globals.
package observability
