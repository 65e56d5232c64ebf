// Package utils holds small helpers shared by the outer surfaces.
package utils

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/turtacn/pnet/pkg/errors"
)

var defaultValidator *validator.Validate

var (
	matchFirstCap = regexp.MustCompile("(.)([A-Z][a-z]+)")
	matchAllCap   = regexp.MustCompile("([a-z0-9])([A-Z])")
	controlIDRe   = regexp.MustCompile(`^[A-Za-z]{1,4}-\d+(\(\d+\))?$`)
)

func init() {
	defaultValidator = validator.New()
	_ = defaultValidator.RegisterValidation("control_id", validateControlID)
}

// ValidateStruct validates s with the default validator. Field failures are
// reported as an invalid_request error with one metadata entry per field.
func ValidateStruct(s interface{}) error {
	err := defaultValidator.Struct(s)
	if err == nil {
		return nil
	}
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return errors.ErrInvalidRequest(err.Error())
	}

	fields := make([]string, 0, len(validationErrors))
	details := make(map[string]string, len(validationErrors))
	for _, fe := range validationErrors {
		name := ToSnakeCase(fe.Field())
		details[name] = formatValidationError(fe)
		fields = append(fields, name+" "+details[name])
	}
	return errors.ErrInvalidRequest("request validation failed: "+strings.Join(fields, "; ")).
		WithMetadata("fields", details)
}

// validateControlID accepts catalog identifiers such as AC-3 or SC-7(3).
func validateControlID(fl validator.FieldLevel) bool {
	return controlIDRe.MatchString(fl.Field().String())
}

func formatValidationError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "control_id":
		return "must look like a control id (e.g. AC-3)"
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	default:
		return fmt.Sprintf("failed on the '%s' tag", fe.Tag())
	}
}

// ToSnakeCase converts CamelCase to snake_case.
func ToSnakeCase(str string) string {
	snake := matchFirstCap.ReplaceAllString(str, "${1}_${2}")
	snake = matchAllCap.ReplaceAllString(snake, "${1}_${2}")
	return strings.ToLower(snake)
}

// ParseAssignment splits "name=value" into its parts.
func ParseAssignment(s string) (string, string, error) {
	name, value, ok := strings.Cut(s, "=")
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		return "", "", errors.ErrInvalidRequest(fmt.Sprintf("expected name=value, got %q", s))
	}
	return name, strings.TrimSpace(value), nil
}

//Personal.AI order the ending
