package telemetry

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"go.opentelemetry.io/otel"
)

func TestSetupTracing_None(t *testing.T) {
	shutdown, err := SetupTracing(context.Background(), "none", "todo-api", nil)
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}

func TestSetupTracing_Stdout(t *testing.T) {
	prev := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	var buf bytes.Buffer
	shutdown, err := SetupTracing(context.Background(), "stdout", "todo-api-test", &buf)
	if err != nil {
		t.Fatalf("setup: %v", err)
	}

	_, span := otel.Tracer("test").Start(context.Background(), "unit-span")
	span.End()

	// Shutdown flushes the batcher.
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	if !strings.Contains(buf.String(), "unit-span") {
		t.Fatalf("expected exported span in output, got %q", buf.String())
	}
	if !strings.Contains(buf.String(), "todo-api-test") {
		t.Fatalf("expected service name in output, got %q", buf.String())
	}
}

func TestSetupTracing_Unknown(t *testing.T) {
	if _, err := SetupTracing(context.Background(), "zipkin", "todo-api", nil); err == nil {
		t.Fatal("expected error for unknown exporter")
	}
}
