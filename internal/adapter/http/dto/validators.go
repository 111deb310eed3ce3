package dto

import (
	"balance-monitor/internal/core/domain"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("lifecycle_signal", validateLifecycleSignal)
	}
}

// validateLifecycleSignal accepts the signals domain.ParseLifecycleSignal knows.
func validateLifecycleSignal(fl validator.FieldLevel) bool {
	_, ok := domain.ParseLifecycleSignal(fl.Field().String())
	return ok
}
