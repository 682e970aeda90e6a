package utils

import (
	"time"

	"github.com/go-playground/validator/v10"
)

// NewValidator builds the shared validator instance with the custom rules
// used by request DTOs registered.
func NewValidator() *validator.Validate {
	validate := validator.New(validator.WithRequiredStructEnabled())

	// year_completed may never point into the future.
	_ = validate.RegisterValidation("ltecurrentyear", func(fl validator.FieldLevel) bool {
		return fl.Field().Int() <= int64(time.Now().Year())
	})

	return validate
}
