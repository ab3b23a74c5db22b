package user

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/infort/rh/core"
)

var (
	userStatusTag  = "userstatus"
	userStatusText = "status must be ATIVO or INATIVO"

	userRoleTag  = "userrole"
	userRoleText = "role must be FUNCIONARIO or RH"
)

// InitValidators registers the user validators.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(userStatusTag, userStatusValidation)
	core.RegisterCustomTranslation(validate, translator, userStatusTag, userStatusText)

	_ = validate.RegisterValidation(userRoleTag, userRoleValidation)
	core.RegisterCustomTranslation(validate, translator, userRoleTag, userRoleText)
}

// Custom Validators

func userStatusValidation(fl validator.FieldLevel) bool {
	return Status(fl.Field().String()).IsValid()
}

func userRoleValidation(fl validator.FieldLevel) bool {
	return Role(fl.Field().String()).IsValid()
}

func (c *Credentials) Validate(validate *validator.Validate) error {
	c.Clean()
	return validate.Struct(c)
}

func (sp *SetupPassword) Validate(validate *validator.Validate) error {
	sp.Clean()
	return validate.Struct(sp)
}

func (ne *NewEmployee) Validate(validate *validator.Validate) error {
	ne.Clean()
	return validate.Struct(ne)
}

func (us UpdateStatus) Validate(validate *validator.Validate) error {
	return validate.Struct(us)
}

func (qf *QueryFilter) Validate(validate *validator.Validate) error {
	qf.Clean()
	return validate.Struct(qf)
}
