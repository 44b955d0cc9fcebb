package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/institute-api/internal/models"
)

const inquiryColumns = `id, student_name, course_id, phone, alternate_phone, address, batch, status, notes, created_at, updated_at`

// InquiryRepository persists inquiries.
type InquiryRepository struct {
	db *sqlx.DB
}

// NewInquiryRepository constructs the repository.
func NewInquiryRepository(db *sqlx.DB) *InquiryRepository {
	return &InquiryRepository{db: db}
}

// List returns a page of inquiries, newest first, plus the total matching count.
func (r *InquiryRepository) List(ctx context.Context, filter models.InquiryFilter) ([]models.Inquiry, int, error) {
	var where whereBuilder
	if filter.Status != nil {
		where.add("status = $%d", *filter.Status)
	}
	if filter.CourseID != "" {
		where.add("course_id = $%d", filter.CourseID)
	}
	if filter.Batch != "" {
		where.add("batch = $%d", filter.Batch)
	}
	if filter.Search != "" {
		where.add("(student_name ILIKE $%[1]d OR phone ILIKE $%[1]d)", "%"+filter.Search+"%")
	}
	_, size, offset := models.Normalize(filter.Page, filter.PageSize)

	query := fmt.Sprintf("SELECT %s FROM inquiries%s ORDER BY created_at DESC LIMIT %d OFFSET %d",
		inquiryColumns, where.clause(), size, offset)
	var inquiries []models.Inquiry
	if err := r.db.SelectContext(ctx, &inquiries, query, where.args...); err != nil {
		return nil, 0, fmt.Errorf("list inquiries: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM inquiries"+where.clause(), where.args...); err != nil {
		return nil, 0, fmt.Errorf("count inquiries: %w", err)
	}
	return inquiries, total, nil
}

// FindByID returns an inquiry by ID.
func (r *InquiryRepository) FindByID(ctx context.Context, id string) (*models.Inquiry, error) {
	query := "SELECT " + inquiryColumns + " FROM inquiries WHERE id = $1"
	var inquiry models.Inquiry
	if err := r.db.GetContext(ctx, &inquiry, query, id); err != nil {
		return nil, err
	}
	return &inquiry, nil
}

// Create inserts an inquiry.
func (r *InquiryRepository) Create(ctx context.Context, inquiry *models.Inquiry) error {
	if inquiry.ID == "" {
		inquiry.ID = uuid.NewString()
	}
	if inquiry.Status == "" {
		inquiry.Status = models.InquiryStatusPending
	}
	now := time.Now().UTC()
	inquiry.CreatedAt = now
	inquiry.UpdatedAt = now
	const query = `INSERT INTO inquiries (id, student_name, course_id, phone, alternate_phone, address, batch, status, notes, created_at, updated_at)
VALUES (:id, :student_name, :course_id, :phone, :alternate_phone, :address, :batch, :status, :notes, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, inquiry); err != nil {
		return fmt.Errorf("create inquiry: %w", err)
	}
	return nil
}

// Update replaces the inquiry detail fields. Status is left untouched.
func (r *InquiryRepository) Update(ctx context.Context, inquiry *models.Inquiry) error {
	inquiry.UpdatedAt = time.Now().UTC()
	const query = `UPDATE inquiries SET student_name = :student_name, course_id = :course_id, phone = :phone,
alternate_phone = :alternate_phone, address = :address, batch = :batch, notes = :notes, updated_at = :updated_at
WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, inquiry); err != nil {
		return fmt.Errorf("update inquiry: %w", err)
	}
	return nil
}

// UpdateStatus moves the inquiry to status only if it is still at from, so concurrent
// transitions cannot both succeed. It reports whether the row changed.
func (r *InquiryRepository) UpdateStatus(ctx context.Context, id string, from, to models.InquiryStatus) (bool, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE inquiries SET status = $1, updated_at = $2 WHERE id = $3 AND status = $4`,
		to, time.Now().UTC(), id, from)
	if err != nil {
		return false, fmt.Errorf("update inquiry status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update inquiry status: %w", err)
	}
	return affected > 0, nil
}

// HasEnrollment reports whether the inquiry was converted.
func (r *InquiryRepository) HasEnrollment(ctx context.Context, id string) (bool, error) {
	var exists bool
	if err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM enrollments WHERE inquiry_id = $1)`, id); err != nil {
		return false, fmt.Errorf("check inquiry enrollment: %w", err)
	}
	return exists, nil
}

// Delete removes an inquiry.
func (r *InquiryRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM inquiries WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete inquiry: %w", err)
	}
	return nil
}
