// Package errors provides the structured error type shared by the annotation
// pipeline, the annotator service and the HTTP surface. Every AppError carries a
// machine-readable code, an HTTP status and a retryable flag so callers can tell
// "busy, try later" apart from "not found" and from internal decoding failures.
package errors
