package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// TracerName is the instrumentation scope for spans created by this module.
const TracerName = "github.com/flemzord/autoreply"

// Tracing wraps the tracer provider so callers can shut it down without
// importing the SDK.
type Tracing struct {
	provider trace.TracerProvider
	shutdown func(context.Context) error
}

// NewTracing builds a tracer provider. With an empty endpoint spans are
// created but never exported. Otherwise they are batched to the OTLP/HTTP
// endpoint (e.g. "http://localhost:4318").
func NewTracing(ctx context.Context, endpoint, version string) (*Tracing, error) {
	res := resource.NewSchemaless(
		attribute.String("service.name", "autoreply"),
		attribute.String("service.version", version),
	)

	if endpoint == "" {
		tp := sdktrace.NewTracerProvider(sdktrace.WithResource(res))
		return &Tracing{provider: tp, shutdown: tp.Shutdown}, nil
	}

	exp, err := otlptracehttp.New(ctx, otlptracehttp.WithEndpointURL(endpoint))
	if err != nil {
		return nil, fmt.Errorf("telemetry: otlp exporter: %w", err)
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(res),
	)
	return &Tracing{provider: tp, shutdown: tp.Shutdown}, nil
}

// NoopTracing returns a Tracing whose spans are discarded.
func NoopTracing() *Tracing {
	return &Tracing{
		provider: noop.NewTracerProvider(),
		shutdown: func(context.Context) error { return nil },
	}
}

// Tracer returns the module tracer.
func (t *Tracing) Tracer() trace.Tracer {
	return t.provider.Tracer(TracerName)
}

// Shutdown flushes pending spans and releases the exporter.
func (t *Tracing) Shutdown(ctx context.Context) error {
	return t.shutdown(ctx)
}
