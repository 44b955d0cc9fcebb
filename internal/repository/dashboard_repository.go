package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/institute-api/internal/models"
)

// DashboardRepository runs the aggregate queries behind the admin dashboard.
type DashboardRepository struct {
	db *sqlx.DB
}

// NewDashboardRepository constructs the repository.
func NewDashboardRepository(db *sqlx.DB) *DashboardRepository {
	return &DashboardRepository{db: db}
}

// Counts returns the raw dashboard aggregates. Revenue covers payments dated in [from, to).
func (r *DashboardRepository) Counts(ctx context.Context, from, to time.Time) (*models.DashboardCounts, error) {
	const query = `SELECT
    (SELECT COUNT(*) FROM inquiries) AS total_inquiries,
    (SELECT COUNT(*) FROM enrollments) AS enrolled_students,
    (SELECT COUNT(*) FROM inquiries WHERE status = 'pending') AS pending_inquiries,
    (SELECT COALESCE(SUM(amount), 0) FROM payments WHERE payment_date >= $1 AND payment_date < $2) AS monthly_revenue,
    (SELECT COALESCE(SUM(total_fee), 0) FROM enrollments) - (SELECT COALESCE(SUM(amount), 0) FROM payments) AS total_pending_fees`
	var counts models.DashboardCounts
	if err := r.db.GetContext(ctx, &counts, query, from, to); err != nil {
		return nil, fmt.Errorf("dashboard counts: %w", err)
	}
	return &counts, nil
}

// CourseCounts returns the enrollment count for every course, busiest first.
func (r *DashboardRepository) CourseCounts(ctx context.Context) ([]models.CourseEnrollmentCount, error) {
	const query = `SELECT c.id AS course_id, c.name AS course_name, COUNT(e.id) AS enrollments
FROM courses c LEFT JOIN enrollments e ON e.course_id = c.id
GROUP BY c.id, c.name ORDER BY enrollments DESC, c.name ASC`
	counts := make([]models.CourseEnrollmentCount, 0)
	if err := r.db.SelectContext(ctx, &counts, query); err != nil {
		return nil, fmt.Errorf("course enrollment counts: %w", err)
	}
	return counts, nil
}
