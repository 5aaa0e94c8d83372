package observability

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/kbukum/annotpipe/component"
)

func TestSampler(t *testing.T) {
	tests := []struct {
		rate float64
		want string
	}{
		{1, "AlwaysOnSampler"},
		{2, "AlwaysOnSampler"},
		{0, "AlwaysOffSampler"},
		{-1, "AlwaysOffSampler"},
		{0.25, "ParentBased{root:TraceIDRatioBased{0.25}"},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("rate %g", tt.rate), func(t *testing.T) {
			if got := sampler(tt.rate).Description(); !strings.HasPrefix(got, tt.want) {
				t.Errorf("sampler(%g) = %q, want prefix %q", tt.rate, got, tt.want)
			}
		})
	}
}

func TestConfigDefaultsAndValidate(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()
	if cfg.SampleRate != 1.0 || cfg.MetricInterval != 15*time.Second || cfg.Endpoint == "" {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cfg.SampleRate = 1.5
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for sample rate above 1")
	}
}

func TestSetupDisabled(t *testing.T) {
	shutdown, err := Setup(context.Background(), Config{}, "annotpipe", "dev", "test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("unexpected shutdown error: %v", err)
	}
}

func TestNewMetrics(t *testing.T) {
	metrics, err := NewMetrics(noop.NewMeterProvider().Meter("test"))
	if err != nil {
		t.Fatalf("unexpected error creating metrics: %v", err)
	}

	ctx := context.Background()
	metrics.RecordRequestStart(ctx)
	metrics.RecordRequestEnd(ctx, "annotpipe", "POST /v1/annotate", "ok", 100*time.Millisecond)
	metrics.RecordOperation(ctx, "annotator", "annotate", "ok", 50*time.Millisecond)
	metrics.RecordError(ctx, "busy", "annotator")
}

func TestMetricsCounts(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer mp.Shutdown(context.Background())

	metrics, err := NewMetrics(mp.Meter("test"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	obs := NewPipelineObserver(metrics, "parse_plaintext")
	ctx := context.Background()
	obs.JobsSubmitted(ctx, 3)
	obs.JobsClaimed(ctx, 2)
	obs.Rejected(ctx, "parse")
	metrics.RecordRequestStart(ctx)
	metrics.RecordRequestEnd(ctx, "annotpipe", "POST /v1/annotate", "202", time.Millisecond)
	metrics.RecordError(ctx, "busy", "annotator")

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(ctx, &rm); err != nil {
		t.Fatalf("collect: %v", err)
	}
	got := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if sum, ok := m.Data.(metricdata.Sum[int64]); ok {
				for _, dp := range sum.DataPoints {
					got[m.Name] += dp.Value
				}
			}
		}
	}
	want := map[string]int64{
		"pipeline.jobs.submitted": 3,
		"pipeline.jobs.claimed":   2,
		"pipeline.jobs.inflight":  1,
		"pipeline.jobs.rejected":  1,
		"http.server.requests":    1,
		"http.server.active":      0,
		"annotator.errors":        1,
	}
	for name, v := range want {
		if got[name] != v {
			t.Errorf("%s: expected %d, got %d", name, v, got[name])
		}
	}
}

func TestPipelineObserverNilMetrics(t *testing.T) {
	obs := NewPipelineObserver(nil, "p")
	ctx := context.Background()
	obs.JobsSubmitted(ctx, 1)
	obs.JobsClaimed(ctx, 1)
	obs.Rejected(ctx, "large")
}

func TestStartOperation(t *testing.T) {
	ctx, op := StartOperation(context.Background(), SpanHTTPRequest, "annotpipe", "POST /v1/annotate", "req-1", nil)

	if op.Service != "annotpipe" || op.Name != "POST /v1/annotate" || op.RequestID != "req-1" {
		t.Fatalf("unexpected operation %+v", op)
	}
	if got := OperationFrom(ctx); got != op {
		t.Fatal("expected operation stored on the context")
	}
	if OperationFrom(context.Background()) != nil {
		t.Error("expected nil without an operation")
	}
	op.End(ctx, 200, nil)
}

func TestOperation_SetJob(t *testing.T) {
	_, op := StartOperation(context.Background(), SpanHTTPRequest, "annotpipe", "GET /v1/jobs/:id", "req-1", nil)
	op.SetJob("")
	if op.JobID() != "" {
		t.Fatal("empty id should be ignored")
	}
	op.SetJob("01J0000000000000000000000")
	if op.JobID() != "01J0000000000000000000000" {
		t.Fatalf("job id = %q", op.JobID())
	}

	var none *Operation
	none.SetJob("ignored")
}

func TestOperation_Elapsed(t *testing.T) {
	_, op := StartOperation(context.Background(), SpanHTTPRequest, "annotpipe", "annotate", "req-1", nil)
	op.start = time.Now().Add(-50 * time.Millisecond)

	if d := op.Elapsed(); d < 45*time.Millisecond || d > 200*time.Millisecond {
		t.Errorf("expected around 50ms, got %v", d)
	}
}

func TestOperation_EndRecordsMetrics(t *testing.T) {
	metrics, _ := NewMetrics(noop.NewMeterProvider().Meter("test"))
	for _, m := range []*Metrics{nil, metrics} {
		ctx, op := StartOperation(context.Background(), SpanHTTPRequest, "annotpipe", "annotate", "req-1", m)
		op.End(ctx, 503, fmt.Errorf("pipeline busy"))
	}
}

func TestServiceHealth_AddComponent(t *testing.T) {
	sh := NewServiceHealth("annotpipe", "1.0.0")
	if sh.Status != component.StatusHealthy {
		t.Fatalf("expected healthy, got %s", sh.Status)
	}

	sh.AddComponent(component.Health{Name: "annotator", Status: component.StatusHealthy})
	if sh.Status != component.StatusHealthy {
		t.Errorf("expected healthy after healthy component, got %s", sh.Status)
	}

	sh.AddComponent(component.Health{Name: "annotator", Status: component.StatusDegraded, Message: "busy"})
	if sh.Status != component.StatusDegraded || !sh.Healthy() {
		t.Errorf("expected degraded and still serving, got %s", sh.Status)
	}

	sh.AddComponent(component.Health{Name: "server", Status: component.StatusUnhealthy})
	sh.AddComponent(component.Health{Name: "other", Status: component.StatusDegraded})
	if sh.Status != component.StatusUnhealthy || sh.Healthy() {
		t.Errorf("expected unhealthy to stick, got %s", sh.Status)
	}
	if len(sh.Components) != 4 {
		t.Errorf("expected 4 components, got %d", len(sh.Components))
	}
}

func withRecorder(t *testing.T) *tracetest.InMemoryExporter {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(prev)
		_ = tp.Shutdown(context.Background())
	})
	return exporter
}

func TestSpanHelpers(t *testing.T) {
	exporter := withRecorder(t)

	ctx, span := StartSpan(context.Background(), SpanAnnotate, attribute.Int(AttrContentBytes, 42))
	AddSpanAttributes(ctx, attribute.String(AttrJobID, "01J0000000000000000000000"))
	FailSpan(ctx, nil)
	FailSpan(ctx, fmt.Errorf("decode failed"))
	span.End()

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	got := spans[0]
	if got.Name != SpanAnnotate {
		t.Errorf("span name = %q", got.Name)
	}
	if n := len(got.Attributes); n != 2 {
		t.Errorf("expected 2 attributes, got %d", n)
	}
	if got.Status.Code != codes.Error || len(got.Events) != 1 {
		t.Errorf("expected failed span with one error event, got %v / %d events", got.Status, len(got.Events))
	}
}

func TestSpanHelpersWithoutSpan(t *testing.T) {
	ctx := context.Background()
	AddSpanAttributes(ctx, attribute.String("key", "value"))
	FailSpan(ctx, fmt.Errorf("no span"))
}

func TestSetup(t *testing.T) {
	shutdown, err := Setup(context.Background(), Config{}, "annotpipe", "1.0.0", "test")
	if err != nil {
		t.Fatalf("disabled setup: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("disabled shutdown: %v", err)
	}

	prevTP, prevMP := otel.GetTracerProvider(), otel.GetMeterProvider()
	t.Cleanup(func() {
		otel.SetTracerProvider(prevTP)
		otel.SetMeterProvider(prevMP)
	})
	shutdown, err = Setup(context.Background(), Config{Enabled: true, Insecure: true}, "annotpipe", "1.0.0", "test")
	if err != nil {
		t.Fatalf("enabled setup: %v", err)
	}
	if _, ok := otel.GetTracerProvider().(*sdktrace.TracerProvider); !ok {
		t.Error("expected the SDK tracer provider to be installed")
	}
	shutdownQuickly(t, shutdown)
}

// shutdownQuickly bounds exporter flushes against an absent collector.
func shutdownQuickly(t *testing.T, fn func(context.Context) error) {
	t.Helper()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
		defer cancel()
		_ = fn(ctx)
	})
}
