package utils

import (
	"fmt"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/kendall-kelly/bakehouse-api/models"
)

// RegisterValidators adds the domain validation tags to gin's binding validator
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("unexpected binding validator engine %T", binding.Validator.Engine())
	}

	if err := v.RegisterValidation("order_status", func(fl validator.FieldLevel) bool {
		return models.ValidOrderStatus(fl.Field().String())
	}); err != nil {
		return err
	}

	return v.RegisterValidation("cake_size", func(fl validator.FieldLevel) bool {
		switch fl.Field().String() {
		case models.CakeSizeSmall, models.CakeSizeMedium, models.CakeSizeLarge:
			return true
		}
		return false
	})
}
