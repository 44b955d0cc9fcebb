package dto

import (
	"github.com/shopspring/decimal"

	"github.com/noah-isme/institute-api/internal/models"
)

// CourseRequest is the payload for creating or replacing a course.
type CourseRequest struct {
	Name              string           `json:"name" validate:"required,notblank,max=120"`
	Code              string           `json:"code" validate:"required,notblank,max=32"`
	DurationMonths    int              `json:"duration_months" validate:"required,gt=0,lte=120"`
	FullFee           decimal.Decimal  `json:"full_fee" validate:"gte=0"`
	InstallmentFee    decimal.Decimal  `json:"installment_fee" validate:"gte=0"`
	FirstInstallment  decimal.Decimal  `json:"first_installment" validate:"gte=0"`
	SecondInstallment decimal.Decimal  `json:"second_installment" validate:"gte=0"`
	FeePlanOptions    []models.FeePlan `json:"fee_plan_options" validate:"omitempty,dive,oneof=full installments"`
	Active            *bool            `json:"active"`
}
