package validator

import (
	"context"
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

// Validate is the shared validator used by config loading and services.
var Validate = New(WithJSONFieldNames())

type validatorImpl struct {
	validate   *validator.Validate
	translator ut.Translator
}

// New creates a validator with English error messages.
func New(opts ...Option) Validator {
	v := &validatorImpl{
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}

	locale := en.New()
	uni := ut.New(locale, locale)
	if trans, found := uni.GetTranslator("en"); found {
		v.translator = trans
		_ = en_translations.RegisterDefaultTranslations(v.validate, trans)
	}

	for _, opt := range opts {
		opt(v)
	}
	return v
}

func (v *validatorImpl) Struct(s any) error {
	if s == nil {
		return errors.New("validation target cannot be nil")
	}
	return v.translate(v.validate.Struct(s))
}

func (v *validatorImpl) StructCtx(ctx context.Context, s any) error {
	if s == nil {
		return errors.New("validation target cannot be nil")
	}
	return v.translate(v.validate.StructCtx(ctx, s))
}

func (v *validatorImpl) Engine() *validator.Validate {
	return v.validate
}

func (v *validatorImpl) translate(err error) error {
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	fields := make([]FieldError, 0, len(verrs))
	messages := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msg := fe.Error()
		if v.translator != nil {
			msg = fe.Translate(v.translator)
		}
		fields = append(fields, &fieldError{fe: fe, message: msg})
		messages = append(messages, msg)
	}

	return &validationErrors{
		fields:  fields,
		message: strings.Join(messages, "; "),
	}
}

func jsonFieldName(fld reflect.StructField) string {
	name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
	switch name {
	case "-":
		return ""
	case "":
		return fld.Name
	}
	return name
}
