package errors

import (
	"fmt"
	"net/http"

	"github.com/cockroachdb/errors"
)

// Sentinel errors. Concrete errors are marked with one of these so callers
// can classify them with errors.Is through any amount of wrapping.
var (
	ErrValidation    = new(ErrCodeValidation, "validation error")
	ErrConfiguration = new(ErrCodeConfiguration, "configuration error")
	ErrNotFound      = new(ErrCodeNotFound, "resource not found")
	ErrConflict      = new(ErrCodeConflict, "conflict")
	ErrRendering     = new(ErrCodeRendering, "rendering degraded")
	ErrDatabase      = new(ErrCodeDatabase, "database error")
	ErrSystem        = new(ErrCodeSystemError, "system error")

	statusCodeMap = map[error]int{
		ErrValidation:    http.StatusBadRequest,
		ErrConfiguration: http.StatusUnprocessableEntity,
		ErrNotFound:      http.StatusNotFound,
		ErrConflict:      http.StatusConflict,
		ErrRendering:     http.StatusInternalServerError,
		ErrDatabase:      http.StatusInternalServerError,
		ErrSystem:        http.StatusInternalServerError,
	}
)

const (
	ErrCodeValidation    = "validation_error"
	ErrCodeConfiguration = "configuration_error"
	ErrCodeNotFound      = "not_found"
	ErrCodeConflict      = "conflict"
	ErrCodeRendering     = "rendering_error"
	ErrCodeDatabase      = "database_error"
	ErrCodeSystemError   = "system_error"
)

// InternalError is the sentinel type used for marking.
type InternalError struct {
	Code    string
	Message string
	Err     error
}

func (e *InternalError) Error() string {
	if e.Err == nil {
		return e.DisplayError()
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Err.Error())
}

func (e *InternalError) DisplayError() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *InternalError) Unwrap() error {
	return e.Err
}

// Is matches on the error code.
func (e *InternalError) Is(target error) bool {
	if target == nil {
		return false
	}

	t, ok := target.(*InternalError)
	if !ok {
		return errors.Is(e.Err, target)
	}

	return e.Code == t.Code
}

func new(code string, message string) *InternalError {
	return &InternalError{
		Code:    code,
		Message: message,
	}
}

func As(err error, target any) bool {
	return errors.As(err, target)
}

func Is(err, reference error) bool {
	return errors.Is(err, reference)
}

// IsValidation checks if an error is a validation error
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsConfiguration checks if an error is a configuration error
func IsConfiguration(err error) bool {
	return errors.Is(err, ErrConfiguration)
}

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsConflict checks if an error is a conflict error
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

// IsRendering checks if an error is a rendering degradation
func IsRendering(err error) bool {
	return errors.Is(err, ErrRendering)
}

// IsDatabase checks if an error is a database error
func IsDatabase(err error) bool {
	return errors.Is(err, ErrDatabase)
}

func HTTPStatusFromErr(err error) int {
	for e, status := range statusCodeMap {
		if errors.Is(err, e) {
			return status
		}
	}
	return http.StatusInternalServerError
}

// DisplayMessage returns the hint attached to err, falling back to its message.
func DisplayMessage(err error) string {
	if err == nil {
		return ""
	}
	hints := errors.GetAllHints(err)
	if len(hints) > 0 {
		return hints[0]
	}
	return err.Error()
}
