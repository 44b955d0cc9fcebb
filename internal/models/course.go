package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// FeePlan selects how an enrollment pays for its course.
type FeePlan string

const (
	FeePlanFull         FeePlan = "full"
	FeePlanInstallments FeePlan = "installments"
)

// Valid reports whether p is a known fee plan.
func (p FeePlan) Valid() bool {
	return p == FeePlanFull || p == FeePlanInstallments
}

// FeePlanOptions is the set of plans a course offers, persisted as a JSONB array.
type FeePlanOptions []FeePlan

// Value marshals the options for persistence.
func (o FeePlanOptions) Value() (driver.Value, error) {
	if o == nil {
		o = FeePlanOptions{}
	}
	data, err := json.Marshal([]FeePlan(o))
	if err != nil {
		return nil, fmt.Errorf("marshal fee plan options: %w", err)
	}
	return data, nil
}

// Scan unmarshals a JSONB array.
func (o *FeePlanOptions) Scan(value interface{}) error {
	if value == nil {
		*o = nil
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type %T for FeePlanOptions", value)
	}
	if len(data) == 0 {
		*o = nil
		return nil
	}
	var plans []FeePlan
	if err := json.Unmarshal(data, &plans); err != nil {
		return fmt.Errorf("unmarshal fee plan options: %w", err)
	}
	*o = plans
	return nil
}

// Course is an offered programme with its fee structure.
type Course struct {
	ID                string          `db:"id" json:"id"`
	Name              string          `db:"name" json:"name"`
	Code              string          `db:"code" json:"code"`
	DurationMonths    int             `db:"duration_months" json:"duration_months"`
	FullFee           decimal.Decimal `db:"full_fee" json:"full_fee"`
	InstallmentFee    decimal.Decimal `db:"installment_fee" json:"installment_fee"`
	FirstInstallment  decimal.Decimal `db:"first_installment" json:"first_installment"`
	SecondInstallment decimal.Decimal `db:"second_installment" json:"second_installment"`
	FeePlanOptions    FeePlanOptions  `db:"fee_plan_options" json:"fee_plan_options"`
	Active            bool            `db:"active" json:"active"`
	CreatedAt         time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time       `db:"updated_at" json:"updated_at"`
}

// Offers reports whether plan may be chosen for this course. No options means all plans.
func (c Course) Offers(plan FeePlan) bool {
	if len(c.FeePlanOptions) == 0 {
		return plan.Valid()
	}
	for _, p := range c.FeePlanOptions {
		if p == plan {
			return true
		}
	}
	return false
}

// FeeFor returns the total fee charged under plan.
func (c Course) FeeFor(plan FeePlan) decimal.Decimal {
	if plan == FeePlanInstallments {
		return c.InstallmentFee
	}
	return c.FullFee
}

// CourseFilter narrows course listings.
type CourseFilter struct {
	Active *bool
}
