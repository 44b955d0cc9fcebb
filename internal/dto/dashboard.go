package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/institute-api/internal/models"
)

// DashboardMetrics are the KPIs derived from raw counts, rounded half-up.
type DashboardMetrics struct {
	ConversionRate                 int64 `json:"conversion_rate"`
	PendingInquiriesRate           int64 `json:"pending_inquiries_rate"`
	AverageMonthlyRevenueThousands int64 `json:"average_monthly_revenue_thousands"`
	DailyRevenueTarget             int64 `json:"daily_revenue_target"`
}

// DashboardSummary is the admin dashboard payload.
type DashboardSummary struct {
	Month            string                         `json:"month"`
	TotalInquiries   int                            `json:"total_inquiries"`
	EnrolledStudents int                            `json:"enrolled_students"`
	PendingInquiries int                            `json:"pending_inquiries"`
	MonthlyRevenue   decimal.Decimal                `json:"monthly_revenue"`
	TotalPendingFees decimal.Decimal                `json:"total_pending_fees"`
	Metrics          DashboardMetrics               `json:"metrics"`
	Courses          []models.CourseEnrollmentCount `json:"courses"`
	GeneratedAt      time.Time                      `json:"generated_at"`
}
