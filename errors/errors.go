package errors

import "fmt"

// AppError is an error that knows how it is presented to API clients.
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	// Retryable tells clients that the same request may succeed later.
	Retryable  bool           `json:"retryable"`
	HTTPStatus int            `json:"-"`
	Details    map[string]any `json:"details,omitempty"`
	// Cause is logged but never sent to clients.
	Cause error `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error { return e.Cause }

// WithCause records the underlying error and returns e.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetail adds one detail entry and returns e.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New builds an AppError whose status and retryability follow from code.
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		Retryable:  code.Retryable(),
		HTTPStatus: code.HTTPStatus(),
	}
}

// Busy reports that the pipeline rejected new work because too many jobs
// are outstanding.
func Busy(outstanding int) *AppError {
	return New(ErrCodeBusy, "The service is busy, please request it later.").
		WithDetail("outstanding", outstanding)
}

// ServiceUnavailable reports that the named service is not running.
func ServiceUnavailable(service string) *AppError {
	return New(ErrCodeServiceUnavailable, fmt.Sprintf("The %s is not running.", service)).
		WithDetail("service", service)
}

// Timeout reports that waiting for operation was abandoned.
func Timeout(operation string) *AppError {
	return New(ErrCodeTimeout, "The request took too long. Please try again.").
		WithDetail("operation", operation)
}

// NotFound reports an unknown resource, e.g. a job id that was never
// issued or whose result was already retrieved.
func NotFound(resource, id string) *AppError {
	e := New(ErrCodeNotFound, fmt.Sprintf("The requested %s was not found or was already retrieved.", resource)).
		WithDetail("resource", resource)
	if id != "" {
		e.WithDetail("id", id)
	}
	return e
}

// TooLarge reports input above the accepted size.
func TooLarge(size, limit int) *AppError {
	return New(ErrCodeTooLarge, fmt.Sprintf("Request too large: %d bytes exceeds the %d byte limit.", size, limit)).
		WithDetail("size", size).
		WithDetail("limit", limit)
}

// InvalidInput rejects one field of a request.
func InvalidInput(field, reason string) *AppError {
	e := New(ErrCodeInvalidInput, "Invalid input: "+reason)
	if field != "" {
		e.WithDetail("field", field)
	}
	return e
}

// Validation rejects a request with a prepared message.
func Validation(message string) *AppError {
	return New(ErrCodeInvalidInput, message)
}

// DecodeFailed reports stage output that could not be turned into annotations.
func DecodeFailed(cause error) *AppError {
	return New(ErrCodeDecodeFailed, "Parsing CoNLL-U output failed.").WithCause(cause)
}

// StageCrashed reports that a pipeline stage exited abnormally.
func StageCrashed(stage string, cause error) *AppError {
	return New(ErrCodeStageCrashed, fmt.Sprintf("Pipeline stage %s died.", stage)).
		WithDetail("stage", stage).
		WithCause(cause)
}

// Internal hides an unexpected error behind a generic message.
func Internal(cause error) *AppError {
	return New(ErrCodeInternal, "An unexpected error occurred. Please try again or contact support.").
		WithCause(cause)
}
