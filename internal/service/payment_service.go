package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/noah-isme/institute-api/internal/dto"
	"github.com/noah-isme/institute-api/internal/models"
	appErrors "github.com/noah-isme/institute-api/pkg/errors"
	"github.com/noah-isme/institute-api/pkg/validation"
)

type paymentRepository interface {
	ListByEnrollment(ctx context.Context, enrollmentID string) ([]models.Payment, error)
	CreateWithinBalance(ctx context.Context, payment *models.Payment) (decimal.Decimal, error)
}

type enrollmentReader interface {
	FindDetailByID(ctx context.Context, id string) (*models.EnrollmentDetail, error)
}

// PaymentService records fee payments. Payments are append-only.
type PaymentService struct {
	repo        paymentRepository
	enrollments enrollmentReader
	dashboard   dashboardInvalidator
	metrics     *MetricsService
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewPaymentService creates a new payment service.
func NewPaymentService(repo paymentRepository, enrollments enrollmentReader, dashboard dashboardInvalidator, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *PaymentService {
	if validate == nil {
		validate = validation.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PaymentService{repo: repo, enrollments: enrollments, dashboard: dashboard, metrics: metrics, validator: validate, logger: logger}
}

// List returns the payments recorded against an enrollment.
func (s *PaymentService) List(ctx context.Context, enrollmentID string) ([]models.Payment, error) {
	payments, err := s.repo.ListByEnrollment(ctx, enrollmentID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list payments")
	}
	if len(payments) == 0 {
		if _, err := s.enrollments.FindDetailByID(ctx, enrollmentID); err != nil {
			return nil, lookupError(err, "enrollment")
		}
	}
	return payments, nil
}

// Record stores a payment if it does not exceed the outstanding balance.
func (s *PaymentService) Record(ctx context.Context, enrollmentID string, req dto.CreatePaymentRequest) (*dto.PaymentReceipt, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}
	paymentDate, err := parseDate(req.PaymentDate, "payment_date")
	if err != nil {
		return nil, err
	}
	if req.TransactionID != nil {
		trimmed := strings.TrimSpace(*req.TransactionID)
		req.TransactionID = &trimmed
	}

	payment := &models.Payment{
		EnrollmentID:      enrollmentID,
		Amount:            req.Amount,
		PaymentDate:       paymentDate,
		Mode:              models.PaymentMode(req.Mode),
		TransactionID:     req.TransactionID,
		InstallmentNumber: req.InstallmentNumber,
		Notes:             req.Notes,
	}
	balance, err := s.repo.CreateWithinBalance(ctx, payment)
	if err != nil {
		var appErr *appErrors.Error
		switch {
		case errors.As(err, &appErr):
			return nil, appErr
		case errors.Is(err, sql.ErrNoRows):
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		default:
			return nil, appErrors.Internal(err, "failed to record payment")
		}
	}

	s.metrics.PaymentRecorded(req.Mode)
	s.logger.Info("payment recorded",
		zap.String("enrollment_id", enrollmentID),
		zap.String("payment_id", payment.ID),
		zap.String("amount", payment.Amount.String()))
	if s.dashboard != nil {
		s.dashboard.Invalidate(ctx)
	}
	return &dto.PaymentReceipt{Payment: *payment, Balance: balance}, nil
}
