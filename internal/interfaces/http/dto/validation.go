package dto

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// FormatBindingError turns a gin binding error into a client-readable
// message. Validator errors list the offending fields; anything else is
// reported as a malformed body.
func FormatBindingError(err error) string {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return "Invalid request body"
	}

	parts := make([]string, len(validationErrs))
	for i, fe := range validationErrs {
		parts[i] = fieldMessage(fe)
	}
	return strings.Join(parts, "; ")
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("Field '%s' is required", fe.Field())
	case "email":
		return fmt.Sprintf("Field '%s' must be a valid email address", fe.Field())
	case "gt":
		return fmt.Sprintf("Field '%s' must be greater than %s", fe.Field(), fe.Param())
	case "min":
		return fmt.Sprintf("Field '%s' must have at least %s entries", fe.Field(), fe.Param())
	case "oneof":
		return fmt.Sprintf("Field '%s' must be one of: %s", fe.Field(), fe.Param())
	case "uuid":
		return fmt.Sprintf("Field '%s' must be a valid UUID", fe.Field())
	case "iso3166_1_alpha2":
		return fmt.Sprintf("Field '%s' must be a two-letter country code", fe.Field())
	default:
		return fmt.Sprintf("Field '%s' failed validation '%s'", fe.Field(), fe.Tag())
	}
}
