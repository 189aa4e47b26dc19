// Package validate wraps go-playground/validator with the rules shared by the
// single create handlers and the bulk import.
package validate

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/rollcall-admin/rollcall/internal/apperr"
	"github.com/rollcall-admin/rollcall/internal/db/models"
)

// ReservedUsernames collide with fixed /users routes.
var ReservedUsernames = []string{"bulkcreate", "root"}

// FieldError describes one failed rule.
type FieldError struct {
	Field string `json:"field"`
	Tag   string `json:"tag"`
	Value any    `json:"value,omitempty"`
}

// Error is a validation failure. It matches apperr.ErrValidation.
type Error struct {
	Fields []FieldError
}

func (e *Error) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+" ("+f.Tag+")")
	}

	return apperr.ErrValidation.Error() + ": " + strings.Join(parts, ", ")
}

// Unwrap returns the error kind.
func (e *Error) Unwrap() error {
	return apperr.ErrValidation
}

// Validator validates structs.
type Validator struct {
	v *validator.Validate
}

// New creates a validator with the username and personname rules registered.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	// report json names
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		for _, r := range ReservedUsernames {
			if s == r {
				return false
			}
		}
		return models.UsernamePattern.MatchString(s)
	})

	_ = v.RegisterValidation("personname", func(fl validator.FieldLevel) bool {
		return models.NamePattern.MatchString(fl.Field().String())
	})

	_ = v.RegisterValidation("personid", func(fl validator.FieldLevel) bool {
		return models.PersonIDPattern.MatchString(fl.Field().String())
	})

	_ = v.RegisterValidation("role", func(fl validator.FieldLevel) bool {
		return models.Role(fl.Field().String()).Assignable()
	})

	return &Validator{v: v}
}

// Struct validates data and returns an *Error for rule violations.
func (v *Validator) Struct(data any) error {
	return convert(v.v.Struct(data), "")
}

// Var validates a single value against tag and reports it under name.
func (v *Validator) Var(name string, value any, tag string) error {
	return convert(v.v.Var(value, tag), name)
}

func convert(err error, name string) error {
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", apperr.ErrValidation, err) //nolint: errorlint
	}

	out := &Error{Fields: make([]FieldError, 0, len(verrs))}
	for _, fe := range verrs {
		field := fe.Field()
		if name != "" {
			field = name
		}

		f := FieldError{Field: field, Tag: fe.Tag()}
		// never echo credentials
		if !strings.Contains(strings.ToLower(field), "password") {
			f.Value = fe.Value()
		}

		out.Fields = append(out.Fields, f)
	}

	return out
}
