package observability

import (
	"context"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Operation follows one request through its span and the request metrics.
// Handlers attach the job id once they know it.
type Operation struct {
	Service   string
	Name      string
	RequestID string

	start   time.Time
	span    trace.Span
	metrics *Metrics
	jobID   string
}

type operationKey struct{}

// StartOperation opens a span named spanName, counts the request as active
// and stores the Operation on the returned context. A nil metrics skips
// metric recording.
func StartOperation(ctx context.Context, spanName, service, name, requestID string, metrics *Metrics) (context.Context, *Operation) {
	op := &Operation{
		Service:   service,
		Name:      name,
		RequestID: requestID,
		start:     time.Now(),
		metrics:   metrics,
	}
	ctx, op.span = StartSpan(ctx, spanName)
	op.span.SetAttributes(
		attribute.String(AttrServiceName, service),
		attribute.String(AttrOperationName, name),
		attribute.String(AttrRequestID, requestID),
	)
	if metrics != nil {
		metrics.RecordRequestStart(ctx)
	}
	return context.WithValue(ctx, operationKey{}, op), op
}

// OperationFrom returns the Operation stored on ctx, or nil.
func OperationFrom(ctx context.Context) *Operation {
	op, _ := ctx.Value(operationKey{}).(*Operation)
	return op
}

// SetJob tags the operation with the job it submitted or queried. Safe on a
// nil Operation.
func (o *Operation) SetJob(id string) {
	if o == nil || id == "" {
		return
	}
	o.jobID = id
	o.span.SetAttributes(attribute.String(AttrJobID, id))
}

// JobID returns the id set by SetJob.
func (o *Operation) JobID() string { return o.jobID }

// End closes the span with the HTTP status and records the request duration.
// Statuses of 500 and above mark the span as failed.
func (o *Operation) End(ctx context.Context, status int, err error) {
	elapsed := o.Elapsed()
	if err != nil {
		o.span.RecordError(err)
		o.span.SetAttributes(attribute.String(AttrErrorMessage, err.Error()))
	}
	o.span.SetAttributes(
		attribute.Int(AttrStatus, status),
		attribute.Int64(AttrDurationMs, elapsed.Milliseconds()),
	)
	o.span.End()

	if o.metrics != nil {
		o.metrics.RecordRequestEnd(ctx, o.Service, o.Name, strconv.Itoa(status), elapsed)
	}
}

// Elapsed is the time since the operation started.
func (o *Operation) Elapsed() time.Duration {
	return time.Since(o.start)
}
