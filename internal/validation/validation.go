// Package validation checks request payloads with go-playground/validator and
// turns failures into per-field messages.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/oggyb/elite-matchmaking/internal/eligibility"
)

const tagEligible = "eligible"

// Error lists field failures keyed by JSON field name.
// It carries an InvalidArgument status so the usual error mapping applies.
type Error struct {
	Fields map[string]string
}

func (e *Error) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *Error) GRPCStatus() *status.Status {
	return status.New(codes.InvalidArgument, e.Error())
}

// Eligible is implemented by forms subject to the gender/country rule.
type Eligible interface {
	EligibilityFields() (gender, country string)
}

type Validator struct {
	v *validator.Validate
}

// New builds a validator. Types passed in eligibleTypes additionally get the
// gender/country admission rule reported against their "country" field.
func New(eligibleTypes ...Eligible) *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})

	if len(eligibleTypes) > 0 {
		types := make([]any, len(eligibleTypes))
		for i, t := range eligibleTypes {
			types[i] = t
		}
		v.RegisterStructValidation(eligibilityRule, types...)
	}
	return &Validator{v: v}
}

func eligibilityRule(sl validator.StructLevel) {
	form, ok := sl.Current().Interface().(Eligible)
	if !ok {
		return
	}
	gender, country := form.EligibilityFields()
	if msg := eligibility.Check(gender, country); msg != "" {
		sl.ReportError(country, "country", "Country", tagEligible, msg)
	}
}

// Struct validates s. Returns nil or *Error.
//
// A field's message comes from its `msg` struct tag when present, otherwise a
// generic message for the failed rule. Only the first failure per field is kept.
func (v *Validator) Struct(s any) error {
	err := v.v.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	typ := reflect.Indirect(reflect.ValueOf(s)).Type()
	out := &Error{Fields: make(map[string]string, len(verrs))}
	for _, fe := range verrs {
		if _, seen := out.Fields[fe.Field()]; seen {
			continue
		}
		out.Fields[fe.Field()] = message(typ, fe)
	}
	return out
}

// Var validates a single value against tag, e.g. Var(email, "required,email").
func (v *Validator) Var(field string, value any, tag string) error {
	err := v.v.Var(value, tag)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	return &Error{Fields: map[string]string{field: genericMessage(field, verrs[0])}}
}

func message(typ reflect.Type, fe validator.FieldError) string {
	if fe.Tag() == tagEligible {
		return fe.Param()
	}
	if sf, ok := typ.FieldByName(fe.StructField()); ok {
		if m := sf.Tag.Get("msg"); m != "" {
			return m
		}
	}
	return genericMessage(fe.Field(), fe)
}

func genericMessage(field string, fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return "invalid email address"
	case "url":
		return fmt.Sprintf("%s must be a valid URL", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
