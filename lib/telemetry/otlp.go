package telemetry

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// Endpoint is where one signal is exported to, the grpc endpoint wins when both are
// set and a signal with neither is not exported.
type Endpoint struct {
	Grpc    string            `json:"grpc_endpoint"`
	Http    string            `json:"http_endpoint"`
	Headers map[string]string `json:"headers"`
}

func (e Endpoint) enabled() bool {
	return e.Grpc != "" || e.Http != ""
}

func (e Endpoint) kind() string {
	if e.Grpc != "" {
		return "grpc"
	}
	return "http"
}

type Config struct {
	Traces  Endpoint `json:"traces"`
	Metrics Endpoint `json:"metrics"`
	// seconds between metric exports, 30 when unset.
	MetricInterval int `json:"metric_interval"`
	// attached to every span and metric, e.g. the contest name.
	Attributes map[string]string `json:"attributes"`
}

func newResource(serviceName string, c Config) (*resource.Resource, error) {
	attrs := []attribute.KeyValue{semconv.ServiceName(serviceName)}
	for k, v := range c.Attributes {
		attrs = append(attrs, attribute.String(k, v))
	}
	return resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(semconv.SchemaURL, attrs...),
	)
}

func newTraceProvider(ctx context.Context, r *resource.Resource, c Config) (*trace.TracerProvider, error) {
	if !c.Traces.enabled() {
		slog.Debug("no trace endpoint configured, spans are dropped")
		return trace.NewTracerProvider(trace.WithResource(r)), nil
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*3)
	defer cancel()

	var exporter trace.SpanExporter
	var err error
	if c.Traces.kind() == "grpc" {
		exporter, err = otlptracegrpc.New(
			ctx,
			otlptracegrpc.WithEndpointURL(c.Traces.Grpc),
			otlptracegrpc.WithHeaders(c.Traces.Headers),
		)
	} else {
		exporter, err = otlptracehttp.New(
			ctx,
			otlptracehttp.WithEndpointURL(c.Traces.Http),
			otlptracehttp.WithHeaders(c.Traces.Headers),
		)
	}
	if err != nil {
		return nil, err
	}
	slog.Debug("trace exporter initialized", "type", c.Traces.kind())

	return trace.NewTracerProvider(
		trace.WithBatcher(exporter),
		trace.WithResource(r),
	), nil
}

func newMetricProvider(ctx context.Context, r *resource.Resource, c Config) (*metric.MeterProvider, error) {
	if !c.Metrics.enabled() {
		slog.Debug("no metric endpoint configured, metrics are dropped")
		return metric.NewMeterProvider(metric.WithResource(r)), nil
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*3)
	defer cancel()

	var exporter metric.Exporter
	var err error
	if c.Metrics.kind() == "grpc" {
		exporter, err = otlpmetricgrpc.New(
			ctx,
			otlpmetricgrpc.WithEndpointURL(c.Metrics.Grpc),
			otlpmetricgrpc.WithHeaders(c.Metrics.Headers),
		)
	} else {
		exporter, err = otlpmetrichttp.New(
			ctx,
			otlpmetrichttp.WithEndpointURL(c.Metrics.Http),
			otlpmetrichttp.WithHeaders(c.Metrics.Headers),
		)
	}
	if err != nil {
		return nil, err
	}
	slog.Debug("metric exporter initialized", "type", c.Metrics.kind())

	interval := time.Duration(c.MetricInterval) * time.Second
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return metric.NewMeterProvider(
		metric.WithReader(metric.NewPeriodicReader(exporter, metric.WithInterval(interval))),
		metric.WithResource(r),
	), nil
}
