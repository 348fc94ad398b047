package web

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/JonMunkholm/estates/internal/core"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// getValidator returns the shared validator. Field names in errors are the
// JSON names of the request.
func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

var rangeOps = map[string]string{
	"gt":  "greater than",
	"gte": "at least",
	"lt":  "less than",
	"lte": "at most",
	"min": "at least",
	"max": "at most",
}

// validateStruct checks the validate tags of v and reports the first failure
// as a *core.ValidationError.
func validateStruct(v interface{}) error {
	err := getValidator().Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return err
	}

	fe := fieldErrs[0]
	field := strings.TrimPrefix(fe.Namespace(), structName(fe)+".")
	return &core.ValidationError{
		Field:   field,
		Value:   fmt.Sprint(fe.Value()),
		Message: validationMessage(fe),
	}
}

func structName(fe validator.FieldError) string {
	name, _, _ := strings.Cut(fe.Namespace(), ".")
	return name
}

func validationMessage(fe validator.FieldError) string {
	if fe.Tag() == "required" {
		return "required field is empty"
	}
	if op, ok := rangeOps[fe.Tag()]; ok {
		return fmt.Sprintf("invalid range: must be %s %s", op, fe.Param())
	}
	return fmt.Sprintf("failed %s validation", fe.Tag())
}
