package validator

import (
	"sync"

	ierr "github.com/andy/rapport/internal/errors"
	"github.com/go-playground/validator/v10"
)

var (
	validate *validator.Validate
	once     sync.Once
)

// GetValidator returns the shared validator, creating it on first use.
func GetValidator() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// ValidateRequest validates a struct carrying `validate` tags and converts
// failures into a validation error with per-field details.
func ValidateRequest(req interface{}) error {
	if err := GetValidator().Struct(req); err != nil {
		details := make(map[string]any)
		var validateErrs validator.ValidationErrors
		if ierr.As(err, &validateErrs) {
			for _, err := range validateErrs {
				details[err.Field()] = err.Tag()
			}
		}
		return ierr.WithError(err).
			WithHint("Eingaben sind ungültig").
			WithReportableDetails(details).
			Mark(ierr.ErrValidation)
	}
	return nil
}
