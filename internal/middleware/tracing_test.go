package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	appmw "github.com/s1natex/todo-api-GO/internal/middleware"
)

func TestTracingMiddleware_RecordsSpan(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(appmw.TracingMiddleware)
	r.Get("/items/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	req := httptest.NewRequest(http.MethodGet, "/items/42", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Header().Get("Trace-Id") == "" {
		t.Errorf("expected Trace-Id header")
	}

	spans := sr.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	span := spans[0]
	if span.Name() != "GET /items/{id}" {
		t.Errorf("unexpected span name %q", span.Name())
	}
	if span.Status().Code != codes.Error {
		t.Errorf("expected error status for 500, got %v", span.Status().Code)
	}

	var sawStatus bool
	for _, kv := range span.Attributes() {
		if kv.Key == "http.status_code" && kv.Value.AsInt64() == 500 {
			sawStatus = true
		}
	}
	if !sawStatus {
		t.Errorf("expected http.status_code=500 attribute, got %v", span.Attributes())
	}
}
