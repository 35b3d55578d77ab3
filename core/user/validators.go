package user

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/edupoints/core"
)

var (
	roleTag  = "role"
	roleText = "please select a role"

	pwdMinLen     = 6
	pwdMinLenTag  = "pwdminlen"
	pwdMinLenText = "password must be at least 6 characters"
)

// InitValidators registers the user validators & their translations.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(roleTag, roleValidation)
	core.RegisterCustomTranslation(validate, translator, roleTag, roleText)

	validate.RegisterStructValidation(loginStructValidation, LoginRequest{})
	core.RegisterCustomTranslation(validate, translator, pwdMinLenTag, pwdMinLenText)
}

func (lr *LoginRequest) Validate(validate *validator.Validate) error {
	lr.Clean()
	return validate.Struct(lr)
}

// roleValidation checks that the role is one of AllRoles
func roleValidation(fl validator.FieldLevel) bool {
	role, ok := fl.Field().Interface().(Role)
	if !ok {
		role = Role(fl.Field().String())
	}
	return role.Valid()
}

// loginStructValidation applies the login form's password length rule.
// The password itself is never checked against anything.
func loginStructValidation(sl validator.StructLevel) {
	lr := sl.Current().Interface().(LoginRequest)
	if lr.Password != "" && len(lr.Password) < pwdMinLen {
		sl.ReportError(lr.Password, "password", "Password", pwdMinLenTag, "")
	}
}
