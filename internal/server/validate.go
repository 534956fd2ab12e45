package server

import (
	"errors"
	"reflect"
	"strings"

	"comproposito/pkg/types"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

var (
	validate   *validator.Validate
	translator ut.Translator

	regionTag   = "region"
	materialTag = "material"
)

func init() {
	validate = validator.New()

	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ = uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(validate, translator)

	// Report JSON field names instead of Go struct names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = validate.RegisterValidation(regionTag, regionValidation)
	_ = validate.RegisterValidation(materialTag, materialValidation)

	registerFn := func(ut.Translator) error { return nil }
	for _, tag := range []string{regionTag, materialTag} {
		_ = validate.RegisterTranslation(tag, translator, registerFn, translateCustomValidationErrs)
	}
}

func translateCustomValidationErrs(_ ut.Translator, fe validator.FieldError) string {
	switch fe.Tag() {
	case regionTag:
		return "unknown region"
	case materialTag:
		return "unknown material"
	default:
		return ""
	}
}

func regionValidation(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	for _, r := range types.Regions {
		if string(r) == value {
			return true
		}
	}
	return false
}

func materialValidation(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	for _, m := range types.Materials {
		if m == value {
			return true
		}
	}
	return false
}

// validateStruct runs the struct tags and converts failures into a
// ValidationError keyed by JSON field name.
func validateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	verr := &types.ValidationError{}
	for _, fe := range fieldErrs {
		verr.Add(fe.Field(), fe.Translate(translator))
	}
	return verr
}
