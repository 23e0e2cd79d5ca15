package validator

import (
	"context"

	"github.com/go-playground/validator/v10"
)

// Validator validates tagged structs and returns translated errors.
type Validator interface {
	Struct(s any) error
	StructCtx(ctx context.Context, s any) error
	// Engine exposes the underlying validator for custom registrations.
	Engine() *validator.Validate
}

// ValidationErrors is returned when one or more fields fail validation.
type ValidationErrors interface {
	error
	Errors() []FieldError
	HasErrors() bool
}

// FieldError describes a single failed field.
type FieldError interface {
	Field() string
	Tag() string
	Value() any
	Message() string
}

// Option configures a validator.
type Option func(*validatorImpl)

// WithTagName sets the struct tag read by the validator (default "validate").
func WithTagName(tagName string) Option {
	return func(v *validatorImpl) {
		v.validate.SetTagName(tagName)
	}
}

// WithJSONFieldNames reports fields by their json tag instead of the Go name.
func WithJSONFieldNames() Option {
	return func(v *validatorImpl) {
		v.validate.RegisterTagNameFunc(jsonFieldName)
	}
}
