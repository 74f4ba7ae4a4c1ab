package handler

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/farmtrack/farmtrack-api/internal/core/domain"
)

// FieldError is one failed constraint, named after the JSON field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError lists every failed constraint of a request body.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.Message)
	}
	return strings.Join(msgs, "; ")
}

// echoValidator adapts go-playground/validator to echo.Validator.
type echoValidator struct {
	v *validator.Validate
}

// NewValidator returns the request validator, with field names taken from json
// tags and a "role" rule accepting the known account roles.
func NewValidator() *echoValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(jsonFieldName)
	_ = v.RegisterValidation("role", func(fl validator.FieldLevel) bool {
		return domain.Role(fl.Field().String()).Valid()
	})
	return &echoValidator{v: v}
}

func (ev *echoValidator) Validate(i any) error {
	var ve validator.ValidationErrors
	if err := ev.v.Struct(i); !errors.As(err, &ve) {
		return err
	}

	out := &ValidationError{Fields: make([]FieldError, 0, len(ve))}
	for _, fe := range ve {
		out.Fields = append(out.Fields, FieldError{Field: fe.Field(), Message: fieldMessage(fe)})
	}
	return out
}

func jsonFieldName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	if name == "-" {
		return ""
	}
	if name == "" {
		return strings.ToLower(f.Name)
	}
	return name
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " should not be blank"
	case "email":
		return field + " should be a valid email"
	case "max":
		return fmt.Sprintf("%s should not exceed %s characters", field, fe.Param())
	case "role":
		return fmt.Sprintf("%s must be one of: %s, %s", field, domain.RoleAdmin, domain.RoleUser)
	default:
		return fmt.Sprintf("%s failed validation (%s)", field, fe.Tag())
	}
}
