// Package validation validates request payloads and configuration.
//
// Struct tag validation uses go-playground/validator and reports field
// names by their json tag:
//
//	type annotateBody struct {
//	    Type string `json:"type" validate:"omitempty,oneof=text"`
//	}
//	err := validation.Validate(body)
//
// The fluent Validator collects errors for values outside a struct:
//
//	err := validation.New().JobID("job_id", id).Validate()
package validation
