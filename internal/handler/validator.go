package handler

import (
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/clinic-api/internal/service"
)

// Validator adapts go-playground/validator to echo.Validator.
type Validator struct {
	v *validator.Validate
}

func NewValidator() *Validator {
	return &Validator{v: validator.New(validator.WithRequiredStructEnabled())}
}

func (cv *Validator) Validate(i interface{}) error {
	return cv.v.Struct(i)
}

// bind decodes the request into req and validates it.  Any failure is
// reported as a validation error carrying msg, the endpoint's own wording.
func bind(c echo.Context, req interface{}, msg string) error {
	if err := c.Bind(req); err != nil {
		return service.Validation(msg)
	}
	if c.Echo().Validator != nil {
		if err := c.Validate(req); err != nil {
			return service.Validation(msg)
		}
	}
	return nil
}
