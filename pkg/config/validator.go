package config

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

// RegisterCustomValidators registers custom validation functions
func RegisterCustomValidators(v *validator.Validate) error {
	return v.RegisterValidation("metrics_path", validateMetricsPath)
}

// validateMetricsPath requires an absolute path outside the API namespace.
func validateMetricsPath(fl validator.FieldLevel) bool {
	path := fl.Field().String()
	if !strings.HasPrefix(path, "/") {
		return false
	}
	if strings.Contains(path, "?") {
		return false
	}
	return !strings.HasPrefix(path, "/api/") && path != "/api"
}
