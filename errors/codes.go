package errors

import "net/http"

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Capacity errors (retryable)
const (
	// ErrCodeBusy indicates the pipeline has too many outstanding jobs.
	ErrCodeBusy ErrorCode = "BUSY"
	// ErrCodeServiceUnavailable indicates the pipeline is not running.
	ErrCodeServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
	// ErrCodeTimeout indicates the caller gave up waiting for a result.
	ErrCodeTimeout ErrorCode = "TIMEOUT"
)

// Request errors
const (
	// ErrCodeNotFound indicates an unknown or already-claimed job id.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
	// ErrCodeTooLarge indicates the input exceeds the configured size limit.
	ErrCodeTooLarge ErrorCode = "TOO_LARGE"
	// ErrCodeInvalidInput indicates the request payload is invalid.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
)

// Internal errors
const (
	// ErrCodeDecodeFailed indicates stage output could not be decoded.
	ErrCodeDecodeFailed ErrorCode = "DECODE_FAILED"
	// ErrCodeStageCrashed indicates a pipeline stage exited abnormally.
	ErrCodeStageCrashed ErrorCode = "STAGE_CRASHED"
	// ErrCodeInternal indicates an unexpected internal error.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// codeStatus is the HTTP status each code is served with.
var codeStatus = map[ErrorCode]int{
	ErrCodeBusy:               http.StatusServiceUnavailable,
	ErrCodeServiceUnavailable: http.StatusServiceUnavailable,
	ErrCodeTimeout:            http.StatusGatewayTimeout,
	ErrCodeNotFound:           http.StatusNotFound,
	ErrCodeTooLarge:           http.StatusRequestEntityTooLarge,
	ErrCodeInvalidInput:       http.StatusBadRequest,
	ErrCodeDecodeFailed:       http.StatusInternalServerError,
	ErrCodeStageCrashed:       http.StatusInternalServerError,
	ErrCodeInternal:           http.StatusInternalServerError,
}

// HTTPStatus returns the status code is served with; unknown codes are 500.
func (c ErrorCode) HTTPStatus() int {
	if s, ok := codeStatus[c]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// Retryable reports whether a client may repeat the request unchanged.
// Capacity errors are; request and internal errors are not.
func (c ErrorCode) Retryable() bool {
	switch c {
	case ErrCodeBusy, ErrCodeServiceUnavailable, ErrCodeTimeout:
		return true
	}
	return false
}
