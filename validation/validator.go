package validation

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kbukum/annotpipe/errors"
)

// Validator collects problems with request values that do not arrive in a
// struct, such as path and query parameters.
type Validator struct {
	errors []FieldError
}

// FieldError is one rejected field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// New returns an empty Validator.
func New() *Validator { return &Validator{} }

// Add records a problem with field.
func (v *Validator) Add(field, message string) *Validator {
	v.errors = append(v.errors, FieldError{Field: field, Message: message})
	return v
}

// HasErrors reports whether any problem was recorded.
func (v *Validator) HasErrors() bool { return len(v.errors) > 0 }

// Errors returns the recorded problems in order.
func (v *Validator) Errors() []FieldError { return v.errors }

// Validate returns an INVALID_INPUT AppError listing every field, or nil.
func (v *Validator) Validate() *errors.AppError {
	if !v.HasErrors() {
		return nil
	}
	parts := make([]string, len(v.errors))
	for i, e := range v.errors {
		parts[i] = e.Field + ": " + e.Message
	}
	return errors.Validation(strings.Join(parts, "; ")).WithDetail("fields", v.errors)
}

// JobID requires value to be a composite job id.
func (v *Validator) JobID(field, value string) *Validator {
	switch {
	case strings.TrimSpace(value) == "":
		return v.Add(field, "is required")
	case !isJobID(value):
		return v.Add(field, "must be a valid job id")
	}
	return v
}

// Flag parses an optional boolean parameter into dst. An empty raw value
// leaves dst unchanged.
func (v *Validator) Flag(field, raw string, dst *bool) *Validator {
	if raw == "" {
		return v
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return v.Add(field, fmt.Sprintf("must be a boolean (got %q)", raw))
	}
	*dst = b
	return v
}
