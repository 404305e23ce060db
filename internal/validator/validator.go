package validator

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/SAP-F-2025/qti-delivery-service/internal/models"
)

// ValidationError represents a single field validation failure
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
	Rule    string      `json:"rule,omitempty"`
}

type ValidationErrors []ValidationError

func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "validation failed"
	}
	if len(ve) == 1 {
		return fmt.Sprintf("validation failed: %s %s", ve[0].Field, ve[0].Message)
	}
	return fmt.Sprintf("validation failed: %d field errors", len(ve))
}

// Validator validates request DTOs against struct tags plus the custom
// rules of the delivery domain.
type Validator struct {
	validate *validator.Validate
}

// New creates a validator with all custom rules registered
func New() *Validator {
	validate := validator.New()

	v := &Validator{validate: validate}
	v.registerRules()

	return v
}

// Validate validates any tagged struct
func (v *Validator) Validate(s interface{}) ValidationErrors {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var errors ValidationErrors
	for _, fe := range err.(validator.ValidationErrors) {
		errors = append(errors, ValidationError{
			Field:   fe.Field(),
			Message: v.getErrorMessage(fe),
			Value:   fe.Value(),
			Rule:    fe.Tag(),
		})
	}
	return errors
}

func (v *Validator) registerRules() {
	_ = v.validate.RegisterValidation("qti_identifier", func(fl validator.FieldLevel) bool {
		return isValidIdentifier(fl.Field().String())
	})

	_ = v.validate.RegisterValidation("base_type", func(fl validator.FieldLevel) bool {
		_, err := models.ParseBaseType(fl.Field().String())
		return err == nil
	})

	_ = v.validate.RegisterValidation("cardinality", func(fl validator.FieldLevel) bool {
		_, err := models.ParseCardinality(fl.Field().String())
		return err == nil
	})
}

func (v *Validator) getErrorMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "qti_identifier":
		return "must be a valid identifier"
	case "base_type":
		return "must be a valid base type"
	case "cardinality":
		return "must be a valid cardinality"
	case "uuid":
		return "must be a valid UUID"
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}

// isValidIdentifier checks the identifier grammar used throughout the
// delivery model: a letter or underscore, then letters, digits,
// underscores or hyphens.
func isValidIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		letter := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
		digit := r >= '0' && r <= '9'
		if i == 0 {
			if !letter && r != '_' {
				return false
			}
			continue
		}
		if !letter && !digit && r != '_' && r != '-' {
			return false
		}
	}
	return true
}
