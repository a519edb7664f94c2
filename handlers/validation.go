package handlers

import (
	"regexp"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// Category names are lowercase slugs, e.g. "plumbing" or "deep-cleaning".
var categoryPattern = regexp.MustCompile(`^[a-z][a-z0-9_-]{1,49}$`)

// RegisterValidations installs the custom binding validators on gin's
// engine. Call once before routes are registered.
func RegisterValidations() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	_ = v.RegisterValidation("service_category", func(fl validator.FieldLevel) bool {
		return categoryPattern.MatchString(fl.Field().String())
	})
}
