// Package observability wires OpenTelemetry tracing and metrics for the
// annotation service.
//
//	shutdown, err := observability.Setup(ctx, cfg, "annotpipe", version.Version, "production")
//	defer shutdown(ctx)
//
//	ctx, span := observability.StartSpan(ctx, observability.SpanAnnotate)
//	defer span.End()
//
// Metrics groups request, operation and pipeline instruments; a
// PipelineObserver feeds the pipeline engine's job counters into them.
package observability
