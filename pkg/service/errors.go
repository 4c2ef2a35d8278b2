package service

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/example/freshgrocers/pkg/repository"
	"github.com/go-playground/validator/v10"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrConflict     = errors.New("conflict")
)

// ValidationError is a user-facing rejection of input. Nothing was changed.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalid(format string, args ...interface{}) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// reasonError carries a user-facing message while matching a sentinel.
type reasonError struct {
	msg  string
	kind error
}

func (e *reasonError) Error() string { return e.msg }
func (e *reasonError) Unwrap() error { return e.kind }

func unauthorized(msg string) error {
	return &reasonError{msg: msg, kind: ErrUnauthorized}
}

func forbidden(msg string) error {
	return &reasonError{msg: msg, kind: ErrForbidden}
}

func conflict(msg string) error {
	return &reasonError{msg: msg, kind: ErrConflict}
}

// notFound turns a repository miss into ErrNotFound naming the entity.
func notFound(err error, entity string, id interface{}) error {
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("%s %v: %w", entity, id, ErrNotFound)
	}
	return err
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report json names so messages match the request body.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validateStruct runs the `validate` tags and reports the first failure.
func validateStruct(v interface{}) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return err
	}
	fe := fieldErrs[0]
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return invalid("%s is required", field)
	case "email":
		return invalid("please enter a valid email address")
	case "min", "gte":
		return invalid("%s must be at least %s", field, fe.Param())
	case "max", "lte":
		return invalid("%s must be at most %s", field, fe.Param())
	case "eqfield":
		return invalid("%s does not match", field)
	default:
		return invalid("%s is invalid", field)
	}
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, repository.ErrNotFound)
}
