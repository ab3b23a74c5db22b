package timeoff

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/infort/rh/core"
)

var (
	typeTag  = "timeofftype"
	typeText = "type must be FERIAS, LICENCA_MEDICA or OUTRO"
)

// InitValidators registers the time-off validators.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(typeTag, func(fl validator.FieldLevel) bool {
		return Type(fl.Field().String()).IsValid()
	})
	core.RegisterCustomTranslation(validate, translator, typeTag, typeText)
}

func (nr *NewRequest) Validate(validate *validator.Validate) error {
	nr.Clean()
	return validate.Struct(nr)
}
