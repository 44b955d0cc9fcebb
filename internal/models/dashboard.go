package models

import "github.com/shopspring/decimal"

// DashboardCounts are the raw aggregates the dashboard derives its KPIs from.
type DashboardCounts struct {
	TotalInquiries   int             `db:"total_inquiries"`
	EnrolledStudents int             `db:"enrolled_students"`
	PendingInquiries int             `db:"pending_inquiries"`
	MonthlyRevenue   decimal.Decimal `db:"monthly_revenue"`
	TotalPendingFees decimal.Decimal `db:"total_pending_fees"`
}

// CourseEnrollmentCount is the number of enrollments per course.
type CourseEnrollmentCount struct {
	CourseID    string `db:"course_id" json:"course_id"`
	CourseName  string `db:"course_name" json:"course_name"`
	Enrollments int    `db:"enrollments" json:"enrollments"`
}
