package account

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"skillswap/internal/apperr"
	"skillswap/internal/entity"
)

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	_ = v.RegisterValidation("category", validateCategory)
	return v
}

// validateCategory accepts the empty category and every catalogue entry.
func validateCategory(fl validator.FieldLevel) bool {
	return entity.Category(fl.Field().String()).Valid()
}

// validationError turns validator output into an apperr.ErrValidation that
// names the first offending field.
func validationError(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return apperr.Wrap(apperr.ErrValidation, "invalid input")
	}
	return apperr.Wrap(apperr.ErrValidation, "%s", describe(fieldErrs[0]))
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	case "email":
		return fmt.Sprintf("%s must be a valid email address", fe.Field())
	case "category":
		return fmt.Sprintf("%s is not a known category", fe.Field())
	}
	return fmt.Sprintf("%s is invalid", fe.Field())
}
