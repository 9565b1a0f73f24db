// Package validator plugs go-playground/validator into echo and maps its
// failures onto the field error codes the API returns.
package validator

import (
	"reflect"
	"strings"

	"enrollment/internal/domain/entity"
	domainerrors "enrollment/internal/domain/errors"
	"enrollment/internal/domain/validation"

	playground "github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
)

// CustomValidator implements echo.Validator.
type CustomValidator struct {
	validate *playground.Validate
}

// New returns a validator that reports fields by their JSON names.
func New() *CustomValidator {
	validate := playground.New(playground.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}

		return name
	})

	return &CustomValidator{validate: validate}
}

// Validate checks a bound request and returns a ValidationError listing every bad field.
func (cv *CustomValidator) Validate(i any) error {
	err := cv.validate.Struct(i)
	if err == nil {
		return nil
	}

	var fieldErrs playground.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return errors.WithStack(err)
	}

	details := make([]validation.FieldError, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		details = append(details, toFieldError(fe))
	}

	return errors.WithStack(domainerrors.NewValidationError(details))
}

func toFieldError(fe playground.FieldError) validation.FieldError {
	field := entity.FieldName(fe.Field())

	switch fe.Tag() {
	case "required":
		return validation.FieldError{Field: field, Reason: validation.ReasonRequired, Message: "is required"}
	case "uuid", "uuid4":
		return validation.FieldError{Field: field, Reason: validation.ReasonInvalidFormat, Message: "must be a UUID"}
	case "min", "max":
		return validation.FieldError{Field: field, Reason: validation.ReasonOutOfRange, Message: "must have between " + fe.Param() + " entries"}
	default:
		return validation.FieldError{Field: field, Reason: validation.ReasonInvalidFormat, Message: "failed " + fe.Tag() + " check"}
	}
}
