package request

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/Guyuepp/package-likes/domain"
)

type PackageLike struct {
	PackageName string `json:"packageName" binding:"required,npmpkg"`
}

// RegisterValidations adds the custom binding rules to gin's validator.
// It must run before the first request is bound.
func RegisterValidations() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}
	return v.RegisterValidation("npmpkg", func(fl validator.FieldLevel) bool {
		return domain.IsValidPackageName(fl.Field().String())
	})
}
