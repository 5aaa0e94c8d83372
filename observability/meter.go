package observability

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
)

func newMeterProvider(ctx context.Context, cfg Config, res *resource.Resource) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}
	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}
	return sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(cfg.MetricInterval))),
		sdkmetric.WithResource(res),
	), nil
}

// Meter returns a named meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// Metrics are the service's instruments: HTTP requests, annotator
// operations and pipeline job flow.
type Metrics struct {
	requests       metric.Int64Counter
	requestSeconds metric.Float64Histogram
	activeRequests metric.Int64UpDownCounter

	operations       metric.Int64Counter
	operationSeconds metric.Float64Histogram
	failures         metric.Int64Counter

	jobsSubmitted metric.Int64Counter
	jobsClaimed   metric.Int64Counter
	jobsInFlight  metric.Int64UpDownCounter
	jobsRejected  metric.Int64Counter
}

// instruments creates instruments on one meter and keeps every error.
type instruments struct {
	meter metric.Meter
	err   error
}

func (in *instruments) counter(name, desc string) metric.Int64Counter {
	c, err := in.meter.Int64Counter(name, metric.WithDescription(desc))
	in.err = errors.Join(in.err, err)
	return c
}

func (in *instruments) gauge(name, desc string) metric.Int64UpDownCounter {
	g, err := in.meter.Int64UpDownCounter(name, metric.WithDescription(desc))
	in.err = errors.Join(in.err, err)
	return g
}

func (in *instruments) seconds(name, desc string) metric.Float64Histogram {
	h, err := in.meter.Float64Histogram(name, metric.WithDescription(desc), metric.WithUnit("s"))
	in.err = errors.Join(in.err, err)
	return h
}

// NewMetrics creates the instruments on meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	in := &instruments{meter: meter}
	m := &Metrics{
		requests:         in.counter("http.server.requests", "HTTP requests served, by route and status"),
		requestSeconds:   in.seconds("http.server.duration", "HTTP request latency"),
		activeRequests:   in.gauge("http.server.active", "HTTP requests in progress"),
		operations:       in.counter("annotator.operations", "Annotate and progress calls, by outcome"),
		operationSeconds: in.seconds("annotator.operation.duration", "Annotator call latency"),
		failures:         in.counter("annotator.errors", "Annotator failures, by error type"),
		jobsSubmitted:    in.counter("pipeline.jobs.submitted", "Jobs written to the head of a pipeline"),
		jobsClaimed:      in.counter("pipeline.jobs.claimed", "Job results claimed from the tail of a pipeline"),
		jobsInFlight:     in.gauge("pipeline.jobs.inflight", "Jobs submitted but not yet claimed"),
		jobsRejected:     in.counter("pipeline.jobs.rejected", "Submissions rejected by admission control"),
	}
	if in.err != nil {
		return nil, fmt.Errorf("creating instruments: %w", in.err)
	}
	return m, nil
}

// RecordRequestStart counts a request as active.
func (m *Metrics) RecordRequestStart(ctx context.Context) {
	m.activeRequests.Add(ctx, 1)
}

// RecordRequestEnd records a finished request; route is "METHOD /path".
func (m *Metrics) RecordRequestEnd(ctx context.Context, service, route, status string, d time.Duration) {
	m.activeRequests.Add(ctx, -1)
	m.requests.Add(ctx, 1, metric.WithAttributes(
		attribute.String("service", service),
		attribute.String("route", route),
		attribute.String("status", status),
	))
	m.requestSeconds.Record(ctx, d.Seconds(), metric.WithAttributes(
		attribute.String("service", service),
		attribute.String("route", route),
	))
}

// RecordOperation records one annotator call.
func (m *Metrics) RecordOperation(ctx context.Context, service, operation, status string, d time.Duration) {
	op := attribute.String("operation", operation)
	m.operations.Add(ctx, 1, metric.WithAttributes(attribute.String("service", service), op, attribute.String("status", status)))
	m.operationSeconds.Record(ctx, d.Seconds(), metric.WithAttributes(attribute.String("service", service), op))
}

// RecordError counts a failure of errType in component.
func (m *Metrics) RecordError(ctx context.Context, errType, component string) {
	m.failures.Add(ctx, 1, metric.WithAttributes(
		attribute.String("type", errType),
		attribute.String("component", component),
	))
}

// PipelineObserver feeds pipeline engine events into Metrics.
type PipelineObserver struct {
	metrics *Metrics
	attrs   metric.MeasurementOption
}

// NewPipelineObserver labels events with the pipeline name. A nil Metrics
// records nothing.
func NewPipelineObserver(m *Metrics, pipeline string) *PipelineObserver {
	return &PipelineObserver{
		metrics: m,
		attrs:   metric.WithAttributes(attribute.String("pipeline", pipeline)),
	}
}

// JobsSubmitted records n jobs written to the pipeline head.
func (o *PipelineObserver) JobsSubmitted(ctx context.Context, n int) {
	if o.metrics == nil {
		return
	}
	o.metrics.jobsSubmitted.Add(ctx, int64(n), o.attrs)
	o.metrics.jobsInFlight.Add(ctx, int64(n), o.attrs)
}

// JobsClaimed records n results handed to callers.
func (o *PipelineObserver) JobsClaimed(ctx context.Context, n int) {
	if o.metrics == nil {
		return
	}
	o.metrics.jobsClaimed.Add(ctx, int64(n), o.attrs)
	o.metrics.jobsInFlight.Add(ctx, -int64(n), o.attrs)
}

// Rejected records an admission rejection; kind is "parse" or "large".
func (o *PipelineObserver) Rejected(ctx context.Context, kind string) {
	if o.metrics == nil {
		return
	}
	o.metrics.jobsRejected.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)), o.attrs)
}
