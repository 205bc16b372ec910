package shared

import (
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/account"
)

// NewTranslator returns the english translator used for validation messages.
func NewTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}

// NewValidator instantiates the validator with every custom tag and translation registered.
func NewValidator(translator ut.Translator, logger core.Logger) *validator.Validate {
	validate := validator.New()
	core.InitValidators(validate, translator)
	account.InitValidators(validate, translator)
	account.LoadCommonPasswords(logger)
	return validate
}
