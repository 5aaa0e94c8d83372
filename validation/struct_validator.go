package validation

import (
	stderrors "errors"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/oklog/ulid/v2"

	"github.com/kbukum/annotpipe/errors"
)

var structValidator = sync.OnceValue(func() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return snake(f.Name)
		}
		return name
	})
	_ = v.RegisterValidation("job_id", func(fl validator.FieldLevel) bool {
		return isJobID(fl.Field().String())
	})
	return v
})

// isJobID accepts composite job ids, which are ULIDs.
func isJobID(s string) bool {
	_, err := ulid.ParseStrict(s)
	return err == nil
}

// Validate checks s against its `validate` tags. Every failing field is
// listed in one INVALID_INPUT AppError, named by its json tag.
func Validate(s any) error {
	err := structValidator().Struct(s)
	if err == nil {
		return nil
	}
	var fields validator.ValidationErrors
	if !stderrors.As(err, &fields) {
		return errors.Validation("validation failed").WithCause(err)
	}
	v := New()
	for _, fe := range fields {
		v.Add(fe.Field(), describe(fe))
	}
	return v.Validate()
}

// describe renders a failed tag as a short sentence fragment.
func describe(fe validator.FieldError) string {
	p := fe.Param()
	switch fe.Tag() {
	case "required":
		return "is required"
	case "job_id":
		return "must be a valid job id"
	case "oneof":
		return "must be one of: " + p
	case "gte", "min":
		if fe.Kind() == reflect.String {
			return "must be at least " + p + " characters"
		}
		return "must be at least " + p
	case "lte", "max":
		if fe.Kind() == reflect.String {
			return "must be at most " + p + " characters"
		}
		return "must be at most " + p
	}
	return "is invalid"
}

func snake(s string) string {
	var b strings.Builder
	for i, r := range s {
		if 'A' <= r && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}
