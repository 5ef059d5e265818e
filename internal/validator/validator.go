package validator

import (
	"regexp"

	ierr "github.com/flexprice/invoicedesk/internal/errors"
	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

var currencyCodeRegex = regexp.MustCompile(`^[A-Za-z]{3}$`)

func NewValidator() *validator.Validate {
	validate = validator.New()
	// currency_code accepts any casing, values are upper-cased by the caller
	_ = validate.RegisterValidation("currency_code", func(fl validator.FieldLevel) bool {
		return currencyCodeRegex.MatchString(fl.Field().String())
	})
	return validate
}

func ValidateRequest(req interface{}) error {
	if validate == nil {
		return ierr.NewError("validator not initialized").
			WithHint("Validator must be initialized before using it").
			Mark(ierr.ErrSystem)
	}

	if err := validate.Struct(req); err != nil {
		details := make(map[string]any)
		var validateErrs validator.ValidationErrors
		if ierr.As(err, &validateErrs) {
			for _, err := range validateErrs {
				details[err.Field()] = err.Error()
			}
		}
		return ierr.WithError(err).
			WithHint("Request validation failed").
			WithReportableDetails(details).
			Mark(ierr.ErrValidation)
	}
	return nil
}

func init() {
	NewValidator()
}
