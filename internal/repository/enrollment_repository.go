package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/institute-api/internal/models"
)

const enrollmentDetailSelect = `SELECT e.id, e.inquiry_id, e.course_id, e.student_name, e.father_name, e.phone, e.father_phone,
e.address, e.start_date, e.end_date, e.fee_plan, e.total_fee, e.created_at,
c.id AS "course.id", c.name AS "course.name", c.code AS "course.code",
i.id AS "inquiry.id", i.status AS "inquiry.status", i.batch AS "inquiry.batch"
FROM enrollments e
JOIN courses c ON c.id = e.course_id
JOIN inquiries i ON i.id = e.inquiry_id`

const paymentColumns = `id, enrollment_id, amount, payment_date, mode, transaction_id, installment_number, notes, created_at`

// InquiryCheck validates the locked inquiry before it is converted.
type InquiryCheck func(models.Inquiry) error

// EnrollmentRepository persists enrollments and loads them with their relations.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository constructs the repository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

// ListDetailed returns enrollments, newest first, with course, inquiry and payments attached.
func (r *EnrollmentRepository) ListDetailed(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, error) {
	var where whereBuilder
	if filter.CourseID != "" {
		where.add("e.course_id = $%d", filter.CourseID)
	}
	query := enrollmentDetailSelect + where.clause() + " ORDER BY e.created_at DESC"
	details := make([]models.EnrollmentDetail, 0)
	if err := r.db.SelectContext(ctx, &details, query, where.args...); err != nil {
		return nil, fmt.Errorf("list enrollments: %w", err)
	}
	if err := r.attachPayments(ctx, details); err != nil {
		return nil, err
	}
	return details, nil
}

// FindDetailByID returns one enrollment with relations.
func (r *EnrollmentRepository) FindDetailByID(ctx context.Context, id string) (*models.EnrollmentDetail, error) {
	var detail models.EnrollmentDetail
	if err := r.db.GetContext(ctx, &detail, enrollmentDetailSelect+" WHERE e.id = $1", id); err != nil {
		return nil, err
	}
	details := []models.EnrollmentDetail{detail}
	if err := r.attachPayments(ctx, details); err != nil {
		return nil, err
	}
	return &details[0], nil
}

// CreateFromInquiry converts an inquiry in one transaction. The inquiry row is locked, check
// decides whether conversion is allowed, the enrollment is inserted and the inquiry marked
// enrolled.
func (r *EnrollmentRepository) CreateFromInquiry(ctx context.Context, enrollment *models.Enrollment, check InquiryCheck) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin conversion tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var inquiry models.Inquiry
	if err = tx.GetContext(ctx, &inquiry, "SELECT "+inquiryColumns+" FROM inquiries WHERE id = $1 FOR UPDATE", enrollment.InquiryID); err != nil {
		return err
	}
	if check != nil {
		if err = check(inquiry); err != nil {
			return err
		}
	}

	var exists bool
	if err = tx.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM enrollments WHERE inquiry_id = $1)`, inquiry.ID); err != nil {
		return fmt.Errorf("check existing enrollment: %w", err)
	}
	if exists {
		return ErrAlreadyEnrolled
	}

	if enrollment.ID == "" {
		enrollment.ID = uuid.NewString()
	}
	enrollment.CreatedAt = time.Now().UTC()
	const insert = `INSERT INTO enrollments (id, inquiry_id, course_id, student_name, father_name, phone, father_phone, address,
start_date, end_date, fee_plan, total_fee, created_at)
VALUES (:id, :inquiry_id, :course_id, :student_name, :father_name, :phone, :father_phone, :address,
:start_date, :end_date, :fee_plan, :total_fee, :created_at)`
	if _, err = tx.NamedExecContext(ctx, insert, enrollment); err != nil {
		return fmt.Errorf("create enrollment: %w", err)
	}
	if _, err = tx.ExecContext(ctx, `UPDATE inquiries SET status = $1, updated_at = $2 WHERE id = $3`,
		models.InquiryStatusEnrolled, enrollment.CreatedAt, inquiry.ID); err != nil {
		return fmt.Errorf("mark inquiry enrolled: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit conversion tx: %w", err)
	}
	return nil
}

// ErrAlreadyEnrolled is returned when an inquiry already has an enrollment.
var ErrAlreadyEnrolled = errors.New("inquiry already enrolled")

func (r *EnrollmentRepository) attachPayments(ctx context.Context, details []models.EnrollmentDetail) error {
	if len(details) == 0 {
		return nil
	}
	ids := make([]string, len(details))
	index := make(map[string]int, len(details))
	for i := range details {
		ids[i] = details[i].ID
		index[details[i].ID] = i
		details[i].Payments = []models.Payment{}
	}
	query := "SELECT " + paymentColumns + " FROM payments WHERE enrollment_id = ANY($1) ORDER BY payment_date ASC, created_at ASC"
	var payments []models.Payment
	if err := r.db.SelectContext(ctx, &payments, query, pq.Array(ids)); err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("load enrollment payments: %w", err)
	}
	for _, p := range payments {
		if i, ok := index[p.EnrollmentID]; ok {
			details[i].Payments = append(details[i].Payments, p)
		}
	}
	return nil
}
