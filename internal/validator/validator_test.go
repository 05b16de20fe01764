package validator

import (
	"testing"

	ierr "github.com/andy/rapport/internal/errors"
	"github.com/stretchr/testify/assert"
)

type sample struct {
	Topic         string `validate:"required"`
	Minutes       int    `validate:"gt=0"`
	Paid          bool
	PaymentMethod string `validate:"required_if=Paid true"`
}

func TestValidateRequest(t *testing.T) {
	assert.NoError(t, ValidateRequest(sample{Topic: "Drucker", Minutes: 30}))
	assert.NoError(t, ValidateRequest(sample{Topic: "Drucker", Minutes: 30, Paid: true, PaymentMethod: "Twint"}))

	err := ValidateRequest(sample{Minutes: 0, Paid: true})
	assert.True(t, ierr.IsValidation(err))

	resp := ierr.NewErrorResponse(err)
	assert.Equal(t, "required", resp.Error.Details["Topic"])
	assert.Equal(t, "gt", resp.Error.Details["Minutes"])
	assert.Equal(t, "required_if", resp.Error.Details["PaymentMethod"])
}
