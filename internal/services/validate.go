package services

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// normalizeEmail trims and lower-cases an address so lookups are case-insensitive.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

var validate = newValidate()

func newValidate() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report fields by their JSON name.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// fieldMessages is keyed by "field.tag".
var fieldMessages = map[string]string{
	"username.required": "Username must be at least 3 characters",
	"username.min":      "Username must be at least 3 characters",
	"email.required":    "Invalid email address",
	"email.email":       "Invalid email address",
	"password.required": "Password is required",
	"password.min":      "Password must be at least 6 characters",
	"title.required":    "Title is required",
	"title.min":         "Title cannot be empty",
	"status.oneof":      "Invalid status",
	"priority.oneof":    "Invalid priority",
}

// validateStruct runs the struct's validate tags and converts failures into
// a *ValidationError listing every rejected field.
func validateStruct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	problems := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		msg, ok := fieldMessages[fe.Field()+"."+fe.Tag()]
		if !ok {
			msg = "Invalid " + fe.Field()
		}
		problems = append(problems, FieldError{Field: fe.Field(), Message: msg})
	}
	return &ValidationError{Problems: problems}
}
