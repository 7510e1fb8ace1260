package telemetry

import (
	"context"
	"fmt"
	"io"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

type ShutdownFunc func(context.Context) error

// SetupTracing installs a global tracer provider for the given exporter
// ("none", "stdout" or "otlp"). With "none" the otel no-op provider stays
// in place. The otlp exporter reads OTEL_EXPORTER_OTLP_* from the environment.
func SetupTracing(ctx context.Context, exporter, serviceName string, stdout io.Writer) (ShutdownFunc, error) {
	var (
		exp sdktrace.SpanExporter
		err error
	)
	switch exporter {
	case "", "none":
		return func(context.Context) error { return nil }, nil
	case "stdout":
		exp, err = stdouttrace.New(stdouttrace.WithWriter(stdout))
	case "otlp":
		exp, err = otlptracehttp.New(ctx)
	default:
		return nil, fmt.Errorf("unknown trace exporter %q", exporter)
	}
	if err != nil {
		return nil, fmt.Errorf("create %s exporter: %w", exporter, err)
	}

	res, err := resource.New(ctx, resource.WithAttributes(
		attribute.String("service.name", serviceName),
	))
	if err != nil {
		return nil, fmt.Errorf("build resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	return tp.Shutdown, nil
}
