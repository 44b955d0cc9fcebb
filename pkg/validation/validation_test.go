package validation

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type paymentInput struct {
	Amount decimal.Decimal `json:"amount" validate:"gt=0"`
	Mode   string          `json:"mode" validate:"required,oneof=cash card upi bank_transfer"`
	Notes  string          `json:"notes" validate:"omitempty,notblank"`
}

func TestFieldErrorsUseJSONNames(t *testing.T) {
	v := New()
	err := v.Struct(paymentInput{Amount: decimal.Zero, Mode: "cheque", Notes: "  "})
	require.Error(t, err)

	fields := FieldErrors(err)
	require.Len(t, fields, 3)
	assert.Contains(t, fields, "amount")
	assert.Contains(t, fields, "mode")
	assert.Equal(t, "notes cannot be blank", fields["notes"])
}

func TestDecimalPassesBounds(t *testing.T) {
	v := New()
	err := v.Struct(paymentInput{Amount: decimal.RequireFromString("2500.50"), Mode: "upi"})
	assert.NoError(t, err)
}

func TestFieldErrorsIgnoresOtherErrors(t *testing.T) {
	assert.Nil(t, FieldErrors(assert.AnError))
}
