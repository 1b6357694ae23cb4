// Package telemetry records HTTP and search metrics with the
// OpenTelemetry SDK. Metrics are exported over OTLP/gRPC when
// an endpoint is configured and kept in-process otherwise.
package telemetry

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

const serviceName = "subtle"

// Config selects the metrics exporter.
type Config struct {
	Endpoint string
	Insecure bool
	Version  string
}

// Metrics holds the instruments used by the server. A nil
// *Metrics records nothing.
type Metrics struct {
	provider *sdkmetric.MeterProvider
	requests metric.Int64Counter
	latency  metric.Float64Histogram
	searches metric.Int64Counter
}

// New builds the meter provider. With an empty endpoint the
// provider has no reader and measurements are dropped.
func New(ctx context.Context, cfg Config) (*Metrics, error) {
	if cfg.Endpoint == "" {
		return newMetrics(ctx, cfg.Version)
	}

	opts := []otlpmetricgrpc.Option{
		otlpmetricgrpc.WithEndpoint(cfg.Endpoint),
	}
	if cfg.Insecure {
		opts = append(opts,
			otlpmetricgrpc.WithDialOption(
				grpc.WithTransportCredentials(insecure.NewCredentials()),
			),
			otlpmetricgrpc.WithInsecure(),
		)
	}
	exp, err := otlpmetricgrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating OTLP exporter: %w", err)
	}

	m, err := newMetrics(ctx, cfg.Version,
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exp)),
	)
	if err != nil {
		return nil, err
	}
	otel.SetMeterProvider(m.provider)
	return m, nil
}

func newMetrics(
	ctx context.Context, version string, opts ...sdkmetric.Option,
) (*Metrics, error) {
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(version),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(
		append(opts, sdkmetric.WithResource(res))...,
	)
	meter := provider.Meter(serviceName)

	requests, err := meter.Int64Counter(
		"subtle_http_requests_total",
		metric.WithDescription("HTTP requests served"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating requests counter: %w", err)
	}

	latency, err := meter.Float64Histogram(
		"subtle_http_request_duration_seconds",
		metric.WithDescription("HTTP request latency"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating latency histogram: %w", err)
	}

	searches, err := meter.Int64Counter(
		"subtle_searches_total",
		metric.WithDescription("Searches run"),
		metric.WithUnit("{search}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating searches counter: %w", err)
	}

	return &Metrics{
		provider: provider,
		requests: requests,
		latency:  latency,
		searches: searches,
	}, nil
}

// RecordRequest counts one served request and its latency.
func (m *Metrics) RecordRequest(
	ctx context.Context, route string, status int, d time.Duration,
) {
	if m == nil {
		return
	}
	opt := metric.WithAttributes(
		attribute.String("route", route),
		attribute.String("status", strconv.Itoa(status)),
	)
	m.requests.Add(ctx, 1, opt)
	m.latency.Record(ctx, d.Seconds(), opt)
}

// RecordSearch counts one search. scope is "sessions" or
// "messages".
func (m *Metrics) RecordSearch(ctx context.Context, scope string, matches int) {
	if m == nil {
		return
	}
	m.searches.Add(ctx, 1, metric.WithAttributes(
		attribute.String("scope", scope),
		attribute.Bool("matched", matches > 0),
	))
}

// Shutdown flushes pending metrics and stops the provider.
func (m *Metrics) Shutdown(ctx context.Context) error {
	if m == nil {
		return nil
	}
	return m.provider.Shutdown(ctx)
}
