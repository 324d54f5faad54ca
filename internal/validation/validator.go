// Package validation wraps the shared go-playground validator and converts its
// failures into apperr validation errors naming the offending JSON field.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/pinpoint/pinpoint/backend/go-services/pkg/apperr"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// GetValidator returns the singleton validator instance. Field names in
// errors are taken from json tags.
func GetValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return f.Name
			}
			return name
		})
	})
	return validate
}

// Struct validates s and returns nil or an *apperr.Error for the first failing field.
func Struct(s interface{}) error {
	err := GetValidator().Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return err
	}
	fe := fieldErrs[0]
	return apperr.Validation(fe.Field(), reason(fe))
}

// Var validates a single value against tag, reporting failures under field.
func Var(field string, v interface{}, tag string) error {
	err := GetValidator().Var(v, tag)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return err
	}
	return apperr.Validation(field, reason(fieldErrs[0]))
}

var reasons = map[string]string{
	"required": "is required",
	"alphanum": "must contain only letters and digits",
	"uuid":     "must be a valid identifier",
}

var reasonsWithParam = map[string]string{
	"min":   "must be at least %s characters",
	"max":   "must be at most %s characters",
	"gte":   "must be greater than or equal to %s",
	"lte":   "must be less than or equal to %s",
	"oneof": "must be one of: %s",
}

func reason(fe validator.FieldError) string {
	if r, ok := reasons[fe.Tag()]; ok {
		return r
	}
	if tmpl, ok := reasonsWithParam[fe.Tag()]; ok {
		return fmt.Sprintf(tmpl, fe.Param())
	}
	return fmt.Sprintf("failed %s validation", fe.Tag())
}
