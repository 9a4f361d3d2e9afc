// Package validate turns validator struct tags into per-field messages that
// the HTML forms can show next to their inputs.
package validate

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var v = newValidator()

func newValidator() *validator.Validate {
	val := validator.New(validator.WithRequiredStructEnabled())
	// report errors under the form field name rather than the Go field name
	val.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("form"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return val
}

// Map returns field->message errors for struct validation tags, or nil when
// s is valid.
func Map(s any) map[string]string {
	err := v.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return map[string]string{"_error": err.Error()}
	}
	m := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		m[fe.Field()] = messageFor(fe)
	}
	return m
}

// First turns one entry of Map's result into a sentence such as
// "Movie title is required.". Keys listed in order are tried first.
func First(errs map[string]string, order ...string) string {
	for _, k := range order {
		if msg, ok := errs[k]; ok {
			return sentence(k, msg)
		}
	}
	for k, msg := range errs {
		return sentence(k, msg)
	}
	return ""
}

func sentence(field, msg string) string {
	label := strings.ReplaceAll(field, "_", " ")
	if label != "" {
		label = strings.ToUpper(label[:1]) + label[1:]
	}
	return label + " " + msg + "."
}

func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "email":
		return "must be a valid email address"
	default:
		return fe.Error()
	}
}
