package validator

import (
	"errors"
	"reflect"
	"strings"

	"devroots-sacco/internal/core/domain"

	"github.com/go-playground/validator/v10"
)

var validate = newValidate()

func newValidate() *validator.Validate {
	v := validator.New()
	// Report fields by their JSON names
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// Struct validates s against its `validate` tags and returns a
// *domain.ValidationError describing the first failing field.
func Struct(s interface{}) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return &domain.ValidationError{Reason: err.Error()}
	}

	fe := fieldErrs[0]
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return domain.NewValidationError("%s is required", field)
	case "email":
		return domain.NewValidationError("%s must be a valid email", field)
	case "min":
		return domain.NewValidationError("%s must be at least %s", field, fe.Param())
	case "max":
		return domain.NewValidationError("%s must be at most %s", field, fe.Param())
	case "gt":
		return domain.NewValidationError("%s must be greater than %s", field, fe.Param())
	case "gte":
		return domain.NewValidationError("%s must be at least %s", field, fe.Param())
	case "oneof":
		return domain.NewValidationError("%s must be one of [%s]", field, fe.Param())
	case "len":
		return domain.NewValidationError("%s must contain exactly %s items", field, fe.Param())
	case "unique":
		return domain.NewValidationError("%s must not contain duplicates", field)
	}
	return domain.NewValidationError("%s is invalid (%s)", field, fe.Tag())
}
