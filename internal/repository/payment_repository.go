package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/institute-api/internal/models"
	appErrors "github.com/noah-isme/institute-api/pkg/errors"
)

// PaymentRepository persists append-only payments.
type PaymentRepository struct {
	db *sqlx.DB
}

// NewPaymentRepository constructs the repository.
func NewPaymentRepository(db *sqlx.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// ListByEnrollment returns an enrollment's payments in payment order.
func (r *PaymentRepository) ListByEnrollment(ctx context.Context, enrollmentID string) ([]models.Payment, error) {
	query := "SELECT " + paymentColumns + " FROM payments WHERE enrollment_id = $1 ORDER BY payment_date ASC, created_at ASC"
	payments := make([]models.Payment, 0)
	if err := r.db.SelectContext(ctx, &payments, query, enrollmentID); err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	return payments, nil
}

// CreateWithinBalance inserts payment unless it would push the enrollment's paid total past
// its total fee. The enrollment row is locked for the duration so concurrent payments are
// serialised. It returns the balance remaining after the payment.
func (r *PaymentRepository) CreateWithinBalance(ctx context.Context, payment *models.Payment) (balance decimal.Decimal, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("begin payment tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var totalFee decimal.Decimal
	if err = tx.GetContext(ctx, &totalFee, `SELECT total_fee FROM enrollments WHERE id = $1 FOR UPDATE`, payment.EnrollmentID); err != nil {
		return decimal.Zero, err
	}
	var paid decimal.Decimal
	if err = tx.GetContext(ctx, &paid, `SELECT COALESCE(SUM(amount), 0) FROM payments WHERE enrollment_id = $1`, payment.EnrollmentID); err != nil {
		return decimal.Zero, fmt.Errorf("sum payments: %w", err)
	}
	balance = totalFee.Sub(paid).Sub(payment.Amount)
	if balance.IsNegative() {
		err = appErrors.WithDetails(appErrors.ErrOverpayment, map[string]string{
			"amount":      payment.Amount.String(),
			"outstanding": totalFee.Sub(paid).String(),
		})
		return decimal.Zero, err
	}

	if payment.ID == "" {
		payment.ID = uuid.NewString()
	}
	payment.CreatedAt = time.Now().UTC()
	const insert = `INSERT INTO payments (id, enrollment_id, amount, payment_date, mode, transaction_id, installment_number, notes, created_at)
VALUES (:id, :enrollment_id, :amount, :payment_date, :mode, :transaction_id, :installment_number, :notes, :created_at)`
	if _, err = tx.NamedExecContext(ctx, insert, payment); err != nil {
		return decimal.Zero, fmt.Errorf("create payment: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return decimal.Zero, fmt.Errorf("commit payment tx: %w", err)
	}
	return balance, nil
}
