package dto

import (
	"github.com/shopspring/decimal"

	"github.com/noah-isme/institute-api/internal/models"
)

// CreatePaymentRequest records a fee receipt.
type CreatePaymentRequest struct {
	Amount            decimal.Decimal `json:"amount" validate:"gt=0"`
	PaymentDate       string          `json:"payment_date" validate:"required,datetime=2006-01-02"`
	Mode              string          `json:"mode" validate:"required,oneof=cash card upi bank_transfer"`
	TransactionID     *string         `json:"transaction_id" validate:"omitempty,max=100"`
	InstallmentNumber *int            `json:"installment_number" validate:"omitempty,min=1,max=3"`
	Notes             *string         `json:"notes" validate:"omitempty,max=500"`
}

// PaymentReceipt is returned after a payment is recorded.
type PaymentReceipt struct {
	Payment models.Payment  `json:"payment"`
	Balance decimal.Decimal `json:"balance"`
}
