package dto

import (
	"github.com/shopspring/decimal"

	"github.com/noah-isme/institute-api/internal/models"
	"github.com/noah-isme/institute-api/pkg/fees"
)

// BalanceSummary reports what has been paid against an enrollment.
type BalanceSummary struct {
	TotalFee   decimal.Decimal `json:"total_fee"`
	PaidAmount decimal.Decimal `json:"paid_amount"`
	Balance    decimal.Decimal `json:"balance"`
	Overpaid   bool            `json:"overpaid"`
}

// NewBalanceSummary derives the summary from a loaded enrollment.
func NewBalanceSummary(e models.EnrollmentDetail) BalanceSummary {
	balance := e.Balance()
	return BalanceSummary{
		TotalFee:   e.TotalFee,
		PaidAmount: e.PaidAmount(),
		Balance:    balance,
		Overpaid:   balance.IsNegative(),
	}
}

// EnrollmentView is a single enrollment with its balance and installment plan.
type EnrollmentView struct {
	models.EnrollmentDetail
	Summary  BalanceSummary     `json:"summary"`
	Schedule []fees.Installment `json:"schedule,omitempty"`
}
