package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentMode is how a payment was received.
type PaymentMode string

const (
	PaymentModeCash         PaymentMode = "cash"
	PaymentModeCard         PaymentMode = "card"
	PaymentModeUPI          PaymentMode = "upi"
	PaymentModeBankTransfer PaymentMode = "bank_transfer"
)

// Payment is an immutable fee receipt against an enrollment.
type Payment struct {
	ID                string          `db:"id" json:"id"`
	EnrollmentID      string          `db:"enrollment_id" json:"enrollment_id"`
	Amount            decimal.Decimal `db:"amount" json:"amount"`
	PaymentDate       time.Time       `db:"payment_date" json:"payment_date"`
	Mode              PaymentMode     `db:"mode" json:"mode"`
	TransactionID     *string         `db:"transaction_id" json:"transaction_id,omitempty"`
	InstallmentNumber *int            `db:"installment_number" json:"installment_number,omitempty"`
	Notes             *string         `db:"notes" json:"notes,omitempty"`
	CreatedAt         time.Time       `db:"created_at" json:"created_at"`
}
