package validator

import (
	"errors"

	"github.com/go-playground/validator/v10"
)

type validationErrors struct {
	fields  []FieldError
	message string
}

func (ve *validationErrors) Error() string {
	return ve.message
}

func (ve *validationErrors) Errors() []FieldError {
	return ve.fields
}

func (ve *validationErrors) HasErrors() bool {
	return len(ve.fields) > 0
}

type fieldError struct {
	fe      validator.FieldError
	message string
}

func (e *fieldError) Field() string   { return e.fe.Field() }
func (e *fieldError) Tag() string     { return e.fe.Tag() }
func (e *fieldError) Value() any      { return e.fe.Value() }
func (e *fieldError) Message() string { return e.message }

// IsValidationError reports whether err came from field validation.
func IsValidationError(err error) bool {
	var ve ValidationErrors
	return errors.As(err, &ve)
}

// FieldMessage returns the message for field, or "" if it passed.
func FieldMessage(err error, field string) string {
	var ve ValidationErrors
	if !errors.As(err, &ve) {
		return ""
	}
	for _, fe := range ve.Errors() {
		if fe.Field() == field {
			return fe.Message()
		}
	}
	return ""
}
