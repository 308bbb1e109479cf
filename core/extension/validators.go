package extension

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/projectpulse/pulse/core"
)

var (
	statusDecisionTag  = "status_decision"
	statusDecisionText = "status must be either approved or rejected"
)

// InitValidators registers the extension validators and their translations.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(statusDecisionTag, statusDecisionValidation)
	core.RegisterCustomTranslation(validate, translator, statusDecisionTag, statusDecisionText)
}

// statusDecisionValidation only accepts the terminal statuses.
func statusDecisionValidation(fl validator.FieldLevel) bool {
	switch Status(fl.Field().String()) {
	case StatusApproved, StatusRejected:
		return true
	}
	return false
}
