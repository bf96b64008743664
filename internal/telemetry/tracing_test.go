package telemetry

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel/trace"
)

func TestNewTracerVariants(t *testing.T) {
	tests := []struct {
		name   string
		config TraceConfig
	}{
		{name: "no endpoint is a no-op", config: TraceConfig{ServiceName: "agentcore-test"}},
		{name: "with endpoint", config: TraceConfig{ServiceName: "agentcore-test", Endpoint: "localhost:4317", EnableInsecure: true}},
		{name: "with sampling", config: TraceConfig{ServiceName: "agentcore-test", SamplingRate: 0.5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tracer, shutdown := NewTracer(tt.config)
			defer shutdown(context.Background())
			if tracer == nil || tracer.tracer == nil {
				t.Fatal("NewTracer returned an unusable tracer")
			}
		})
	}
}

func TestDefaultsServiceName(t *testing.T) {
	tracer, shutdown := NewTracer(TraceConfig{})
	defer shutdown(context.Background())
	if tracer.config.ServiceName != "agentcore" {
		t.Fatalf("expected default service name agentcore, got %q", tracer.config.ServiceName)
	}
}

func TestStartProducesUsableSpan(t *testing.T) {
	tracer, shutdown := NewTracer(TraceConfig{ServiceName: "agentcore-test"})
	defer shutdown(context.Background())

	ctx, span := tracer.TraceGraphNode(context.Background(), "analyze")
	defer span.End()
	if ctx == nil {
		t.Fatal("expected non-nil context")
	}
}

func TestRecordErrorIsNilSafe(t *testing.T) {
	tracer, shutdown := NewTracer(TraceConfig{ServiceName: "agentcore-test"})
	defer shutdown(context.Background())

	_, span := tracer.Start(context.Background(), "op")
	defer span.End()
	tracer.RecordError(span, nil) // must not panic
}

func TestWithSpanRecordsReturnedError(t *testing.T) {
	tracer, shutdown := NewTracer(TraceConfig{ServiceName: "agentcore-test"})
	defer shutdown(context.Background())

	wantErr := errors.New("boom")
	gotErr := WithSpan(context.Background(), tracer, "op", func(ctx context.Context, span trace.Span) error {
		return wantErr
	})
	if !errors.Is(gotErr, wantErr) {
		t.Fatalf("expected WithSpan to propagate the error, got %v", gotErr)
	}
}

func TestGetTraceIDEmptyWithoutActiveSpan(t *testing.T) {
	if id := GetTraceID(context.Background()); id != "" {
		t.Fatalf("expected empty trace id without an active span, got %q", id)
	}
}
