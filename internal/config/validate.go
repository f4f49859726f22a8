package config

import (
	"errors"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	entranslations "github.com/go-playground/validator/v10/translations/en"
)

var (
	validate *validator.Validate
	trans    ut.Translator
)

func init() {
	validate = validator.New()

	english := en.New()
	trans, _ = ut.New(english, english).GetTranslator("en")
	_ = entranslations.RegisterDefaultTranslations(validate, trans)

	// Report fields by their config file key.
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("toml"), ",")
		if name == "" || name == "-" {
			return strings.ToLower(field.Name)
		}
		return name
	})

	_ = validate.RegisterValidation("instance_locator", func(fl validator.FieldLevel) bool {
		_, _, err := ParseInstanceLocator(fl.Field().String())
		return err == nil
	})
	_ = validate.RegisterTranslation("instance_locator", trans, func(ut ut.Translator) error {
		return ut.Add("instance_locator", "{0} must look like v1:<cluster>:<instance id>", true)
	}, func(ut ut.Translator, fe validator.FieldError) string {
		t, _ := ut.T("instance_locator", fe.Field())
		return t
	})
}

// validationError flattens validator errors into one readable error.
func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, msg := range verrs.Translate(trans) {
		msgs = append(msgs, msg)
	}
	sort.Strings(msgs)
	return errors.New(strings.Join(msgs, "; "))
}
