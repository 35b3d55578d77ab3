package leaderboard

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/edupoints/core"
)

var (
	categoryTag  = "lbcategory"
	categoryText = "unknown leaderboard category"
)

// InitValidators registers the leaderboard validators & their translations.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(categoryTag, func(fl validator.FieldLevel) bool {
		return Filter(fl.Field().String()).Valid()
	})
	core.RegisterCustomTranslation(validate, translator, categoryTag, categoryText)
}

func (q *Query) Validate(validate *validator.Validate) error {
	q.Category = Filter(core.CleanString(string(q.Category), true /* lower */))
	return validate.Struct(q)
}
