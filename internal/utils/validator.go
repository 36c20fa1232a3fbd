// internal/utils/validator.go
package utils

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	validate.RegisterValidation("wei_amount", validateWeiAmount)
}

func ValidateStruct(s interface{}) error {
	return validate.Struct(s)
}

// validateWeiAmount accepts a non-negative base-10 integer of any size.
func validateWeiAmount(fl validator.FieldLevel) bool {
	value := strings.TrimSpace(fl.Field().String())
	if value == "" {
		return false
	}

	amount, err := decimal.NewFromString(value)
	if err != nil {
		return false
	}
	return !amount.IsNegative() && amount.Equal(amount.Truncate(0))
}

type ValidationError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Message string `json:"message"`
}

func GetValidationErrors(err error) []ValidationError {
	var validationErrors []ValidationError

	if validationErrs, ok := err.(validator.ValidationErrors); ok {
		for _, e := range validationErrs {
			validationErrors = append(validationErrors, ValidationError{
				Field:   strings.ToLower(e.Field()),
				Tag:     e.Tag(),
				Message: getValidationMessage(e),
			})
		}
	}

	return validationErrors
}

// HasTag reports whether any field failed the given validation tag.
func HasTag(errs []ValidationError, tag string) bool {
	for _, e := range errs {
		if e.Tag == tag {
			return true
		}
	}
	return false
}

func getValidationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return e.Field() + " is required"
	case "wei_amount":
		return e.Field() + " must be a non-negative integer amount in wei"
	case "max":
		return e.Field() + " must be at most " + e.Param() + " characters"
	default:
		return e.Field() + " is invalid"
	}
}
