// Package telemetry installs the OpenTelemetry tracer provider.
package telemetry

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"github.com/KirkDiggler/hall-runner/internal/errors"
)

// ShutdownFunc flushes pending spans
type ShutdownFunc func(context.Context) error

// Setup registers a global tracer provider exporting to endpoint over OTLP/HTTP.
// An empty endpoint leaves the no-op global provider in place.
func Setup(ctx context.Context, serviceName, endpoint string) (ShutdownFunc, error) {
	noop := func(context.Context) error { return nil }
	if endpoint == "" {
		return noop, nil
	}

	exporter, err := otlptracehttp.New(ctx, otlptracehttp.WithEndpointURL(endpoint))
	if err != nil {
		return noop, errors.Wrap(err, "failed to create trace exporter")
	}

	res, err := resource.New(ctx, resource.WithAttributes(semconv.ServiceName(serviceName)))
	if err != nil {
		return noop, errors.Wrap(err, "failed to build trace resource")
	}

	tp := NewProvider(res, sdktrace.WithBatcher(exporter))
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	slog.Info("Tracing enabled", "endpoint", endpoint, "service", serviceName)
	return tp.Shutdown, nil
}

// NewProvider builds an always-sampling provider with extra options such as
// a batcher or a synchronous span processor.
func NewProvider(res *resource.Resource, opts ...sdktrace.TracerProviderOption) *sdktrace.TracerProvider {
	all := []sdktrace.TracerProviderOption{sdktrace.WithSampler(sdktrace.AlwaysSample())}
	if res != nil {
		all = append(all, sdktrace.WithResource(res))
	}
	return sdktrace.NewTracerProvider(append(all, opts...)...)
}
