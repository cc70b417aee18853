package utils

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// RegisterValidators adds the custom binding tags used by request structs:
// `currency` for ISO 4217 codes.
func RegisterValidators() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	v.RegisterValidation("currency", func(fl validator.FieldLevel) bool {
		return IsCurrencyCode(fl.Field().String())
	})
}
