package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/checkngn/checkngn/internal/domain/action"
)

// RegisterCustomValidators registers checkngn-specific validation rules.
// Must be called before validating Config.
func RegisterCustomValidators(v *validator.Validate) error {
	// prom_textfile: node_exporter only collects files ending in .prom
	if err := v.RegisterValidation("prom_textfile", validatePromTextfile); err != nil {
		return fmt.Errorf("failed to register prom_textfile validator: %w", err)
	}
	return nil
}

func validatePromTextfile(fl validator.FieldLevel) bool {
	path := fl.Field().String()
	return strings.HasSuffix(path, ".prom") && len(path) > len(".prom")
}

// Validate validates the Config using struct tags and custom rules.
// Returns an error if validation fails, with actionable error messages.
func (c *Config) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())

	if err := RegisterCustomValidators(v); err != nil {
		return err
	}

	if err := v.Struct(c); err != nil {
		return formatValidationErrors(err)
	}

	return nil
}

// NestedListPolicy returns the parsed nested list policy.
func (c *Config) NestedListPolicy() (action.NestedListPolicy, error) {
	return action.ParseNestedListPolicy(c.Normalizer.NestedLists)
}

// formatValidationErrors converts validator.ValidationErrors to user-friendly messages.
func formatValidationErrors(err error) error {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		var messages []string
		for _, e := range validationErrors {
			messages = append(messages, formatSingleValidationError(e))
		}
		return errors.New(strings.Join(messages, "; "))
	}
	return err
}

// formatSingleValidationError creates a user-friendly message for a single validation error.
func formatSingleValidationError(e validator.FieldError) string {
	field := e.Namespace()

	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, e.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, e.Param())
	case "prom_textfile":
		return fmt.Sprintf("%s must be a file path ending in .prom", field)
	default:
		return fmt.Sprintf("%s failed validation: %s", field, e.Tag())
	}
}
