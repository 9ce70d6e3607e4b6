// Package validation checks request struct tags with go-playground/validator and
// reports the result as mediator validation failures.
package validation

import (
	"context"
	"errors"
	"reflect"
	"strings"

	"github.com/erp/modulith/internal/application/mediator"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// StructValidator validates `validate` struct tags on any request type.
type StructValidator struct {
	validate *validator.Validate
}

// NewStructValidator creates a validator that reports json field names and
// compares decimal.Decimal values numerically.
func NewStructValidator() *StructValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
	return &StructValidator{validate: v}
}

// Validate implements mediator.Validator
func (s *StructValidator) Validate(ctx context.Context, req any) []mediator.ValidationFailure {
	if req == nil {
		return nil
	}
	if t := reflect.TypeOf(req); t.Kind() != reflect.Struct && (t.Kind() != reflect.Pointer || t.Elem().Kind() != reflect.Struct) {
		return nil
	}

	err := s.validate.StructCtx(ctx, req)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return []mediator.ValidationFailure{{Rule: "struct", Message: err.Error()}}
	}

	failures := make([]mediator.ValidationFailure, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		failures = append(failures, mediator.ValidationFailure{
			Field:   fieldPath(fe),
			Rule:    fe.Tag(),
			Message: message(fe),
		})
	}
	return failures
}

// fieldPath drops the root struct name from the namespace: "CreateInvoice.lines[0].quantity" -> "lines[0].quantity".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func message(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "This field is required"
	case "min":
		if e.Kind() == reflect.String {
			return "Must be at least " + e.Param() + " characters"
		}
		if e.Kind() == reflect.Slice {
			return "Must contain at least " + e.Param() + " items"
		}
		return "Must be at least " + e.Param()
	case "max":
		if e.Kind() == reflect.String {
			return "Must be at most " + e.Param() + " characters"
		}
		return "Must be at most " + e.Param()
	case "uuid":
		return "Invalid UUID format"
	case "oneof":
		return "Must be one of: " + e.Param()
	case "gte":
		return "Must be greater than or equal to " + e.Param()
	case "lte":
		return "Must be less than or equal to " + e.Param()
	case "gt":
		return "Must be greater than " + e.Param()
	case "lt":
		return "Must be less than " + e.Param()
	default:
		return "Invalid value"
	}
}

var _ mediator.Validator = (*StructValidator)(nil)
