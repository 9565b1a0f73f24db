// Package handler contains the HTTP handlers of the enrollment API.
package handler

import (
	"net/http"
	"strconv"

	"enrollment/internal/domain/entity"
	domainerrors "enrollment/internal/domain/errors"
	"enrollment/internal/domain/validation"
	"enrollment/internal/errors"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// FieldsPayload carries raw member field values. Numbers are accepted for
// height and weight; null clears a field.
type FieldsPayload map[string]any

// pathID parses a UUID path parameter.
func pathID(c echo.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, errors.WithStack(domainerrors.NewValidationError([]validation.FieldError{{
			Field:   entity.FieldName(name),
			Reason:  validation.ReasonInvalidFormat,
			Message: "must be a UUID",
		}}))
	}

	return id, nil
}

// bindAndValidate binds the JSON body into req and runs the struct validator.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}

	return c.Validate(req)
}

// toFieldValues converts a JSON payload into raw field values. Every value
// that is neither a string, a number nor null is reported at once.
func (p FieldsPayload) toFieldValues() (entity.FieldValues, error) {
	values := make(entity.FieldValues, len(p))
	var fieldErrs []validation.FieldError

	for key, raw := range p {
		name := entity.FieldName(key)
		switch v := raw.(type) {
		case nil:
			values[name] = ""
		case string:
			values[name] = v
		case float64:
			values[name] = strconv.FormatFloat(v, 'f', -1, 64)
		default:
			fieldErrs = append(fieldErrs, validation.FieldError{
				Field:   name,
				Reason:  validation.ReasonInvalidFormat,
				Message: "must be a string or a number",
			})
		}
	}
	if len(fieldErrs) > 0 {
		return nil, errors.WithStack(domainerrors.NewValidationError(fieldErrs))
	}

	return values, nil
}
