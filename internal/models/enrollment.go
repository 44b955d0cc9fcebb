package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/institute-api/pkg/fees"
)

// Enrollment is a converted inquiry. Student contact fields are copied at conversion time.
type Enrollment struct {
	ID          string          `db:"id" json:"id"`
	InquiryID   string          `db:"inquiry_id" json:"inquiry_id"`
	CourseID    string          `db:"course_id" json:"course_id"`
	StudentName string          `db:"student_name" json:"student_name"`
	FatherName  *string         `db:"father_name" json:"father_name,omitempty"`
	Phone       string          `db:"phone" json:"phone"`
	FatherPhone *string         `db:"father_phone" json:"father_phone,omitempty"`
	Address     *string         `db:"address" json:"address,omitempty"`
	StartDate   time.Time       `db:"start_date" json:"start_date"`
	EndDate     time.Time       `db:"end_date" json:"end_date"`
	FeePlan     FeePlan         `db:"fee_plan" json:"fee_plan"`
	TotalFee    decimal.Decimal `db:"total_fee" json:"total_fee"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
}

// CourseRef is the course summary embedded in enrollment listings.
type CourseRef struct {
	ID   string `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
	Code string `db:"code" json:"code"`
}

// InquiryRef is the inquiry summary embedded in enrollment listings.
type InquiryRef struct {
	ID     string        `db:"id" json:"id"`
	Status InquiryStatus `db:"status" json:"status"`
	Batch  *string       `db:"batch" json:"batch,omitempty"`
}

// EnrollmentDetail is an enrollment with its relations loaded.
type EnrollmentDetail struct {
	Enrollment
	Course   CourseRef  `db:"course" json:"course"`
	Inquiry  InquiryRef `db:"inquiry" json:"inquiry"`
	Payments []Payment  `db:"-" json:"payments"`
}

// PaidAmount sums the loaded payments. Missing payments count as zero.
func (e EnrollmentDetail) PaidAmount() decimal.Decimal {
	amounts := make([]decimal.Decimal, 0, len(e.Payments))
	for _, p := range e.Payments {
		amounts = append(amounts, p.Amount)
	}
	return fees.ComputePaidAmount(amounts)
}

// Balance is total fee minus paid amount; negative when overpaid.
func (e EnrollmentDetail) Balance() decimal.Decimal {
	return fees.ComputeBalance(e.TotalFee, e.PaidAmount())
}

// EnrollmentFilter narrows enrollment listings.
type EnrollmentFilter struct {
	CourseID string
}
