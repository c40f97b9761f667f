package http

import (
	"github.com/go-playground/validator/v10"

	domainerrors "github.com/wekeepgrowing/semo-billing/internal/domain/errors"
)

// RequestValidator adapts go-playground/validator to echo.Validator
type RequestValidator struct {
	validate *validator.Validate
}

func NewRequestValidator() *RequestValidator {
	return &RequestValidator{validate: validator.New()}
}

// Validate reports the first failing field as a validation error
func (v *RequestValidator) Validate(i interface{}) error {
	if err := v.validate.Struct(i); err != nil {
		if fieldErrs, ok := err.(validator.ValidationErrors); ok && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return domainerrors.NewValidationError(fe.Field() + " failed on the '" + fe.Tag() + "' rule")
		}
		return domainerrors.NewValidationError(err.Error())
	}
	return nil
}
