package school

import (
	"regexp"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/edlabs/academia/core"
)

var (
	semesterTag   = "semester"
	semesterText  = "semester must be of the form YYYY-N, eg. 2021-1"
	semesterRegex = regexp.MustCompile(`^\d{4}-[1-3]$`)
)

// InitValidators registers this package's custom validators.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(semesterTag, semesterValidation)
	core.RegisterCustomTranslation(validate, translator, semesterTag, semesterText)
}

func semesterValidation(fl validator.FieldLevel) bool {
	return semesterRegex.MatchString(fl.Field().String())
}
