package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/institute-api/internal/dto"
	"github.com/noah-isme/institute-api/internal/models"
	"github.com/noah-isme/institute-api/internal/repository"
	appErrors "github.com/noah-isme/institute-api/pkg/errors"
	"github.com/noah-isme/institute-api/pkg/fees"
	"github.com/noah-isme/institute-api/pkg/validation"
)

type enrollmentRepository interface {
	ListDetailed(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, error)
	FindDetailByID(ctx context.Context, id string) (*models.EnrollmentDetail, error)
	CreateFromInquiry(ctx context.Context, enrollment *models.Enrollment, check repository.InquiryCheck) error
}

type inquiryReader interface {
	FindByID(ctx context.Context, id string) (*models.Inquiry, error)
}

// EnrollmentService converts inquiries and reports enrollment balances.
type EnrollmentService struct {
	repo      enrollmentRepository
	inquiries inquiryReader
	courses   courseReader
	dashboard dashboardInvalidator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewEnrollmentService creates a new enrollment service.
func NewEnrollmentService(repo enrollmentRepository, inquiries inquiryReader, courses courseReader, dashboard dashboardInvalidator, validate *validator.Validate, logger *zap.Logger) *EnrollmentService {
	if validate == nil {
		validate = validation.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrollmentService{repo: repo, inquiries: inquiries, courses: courses, dashboard: dashboard, validator: validate, logger: logger}
}

// List returns enrollments with course, inquiry and payments loaded.
func (s *EnrollmentService) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, error) {
	enrollments, err := s.repo.ListDetailed(ctx, filter)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list enrollments")
	}
	return enrollments, nil
}

// Get returns an enrollment with its balance summary and, for installment plans, the
// three-part payment schedule.
func (s *EnrollmentService) Get(ctx context.Context, id string) (*dto.EnrollmentView, error) {
	detail, err := s.repo.FindDetailByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "enrollment")
	}
	view := &dto.EnrollmentView{EnrollmentDetail: *detail, Summary: dto.NewBalanceSummary(*detail)}
	if detail.FeePlan == models.FeePlanInstallments {
		course, err := s.courses.FindByID(ctx, detail.CourseID)
		if err != nil {
			return nil, lookupError(err, "course")
		}
		view.Schedule = fees.Schedule(detail.TotalFee, course.FirstInstallment, course.SecondInstallment, detail.StartDate)
	}
	return view, nil
}

// Convert enrolls the student behind inquiryID. Contact details are copied from the
// inquiry, the end date and total fee derive from the course, and the inquiry moves to
// enrolled in the same transaction.
func (s *EnrollmentService) Convert(ctx context.Context, inquiryID string, req dto.ConvertInquiryRequest) (*dto.EnrollmentView, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}
	startDate, err := parseDate(req.StartDate, "start_date")
	if err != nil {
		return nil, err
	}

	inquiry, err := s.inquiries.FindByID(ctx, inquiryID)
	if err != nil {
		return nil, lookupError(err, "inquiry")
	}
	course, err := s.courses.FindByID(ctx, inquiry.CourseID)
	if err != nil {
		return nil, lookupError(err, "course")
	}
	if !course.Offers(req.FeePlan) {
		return nil, fieldError("fee_plan", "course does not offer the "+string(req.FeePlan)+" plan")
	}

	enrollment := &models.Enrollment{
		InquiryID:   inquiry.ID,
		CourseID:    course.ID,
		FatherName:  req.FatherName,
		FatherPhone: req.FatherPhone,
		StartDate:   startDate,
		EndDate:     fees.CalculateEndDate(startDate, course.DurationMonths),
		FeePlan:     req.FeePlan,
		TotalFee:    course.FeeFor(req.FeePlan),
	}
	check := func(locked models.Inquiry) error {
		if locked.Status == models.InquiryStatusEnrolled || !locked.Status.CanTransitionTo(models.InquiryStatusEnrolled) {
			return appErrors.WithDetails(appErrors.ErrInvalidTransition, map[string]string{
				"from": string(locked.Status),
				"to":   string(models.InquiryStatusEnrolled),
			})
		}
		if locked.CourseID != course.ID {
			return appErrors.Clone(appErrors.ErrConflict, "inquiry course changed during conversion")
		}
		enrollment.StudentName = locked.StudentName
		enrollment.Phone = locked.Phone
		enrollment.Address = locked.Address
		if req.Address != nil {
			enrollment.Address = req.Address
		}
		return nil
	}

	if err := s.repo.CreateFromInquiry(ctx, enrollment, check); err != nil {
		var appErr *appErrors.Error
		switch {
		case errors.As(err, &appErr):
			return nil, appErr
		case errors.Is(err, repository.ErrAlreadyEnrolled):
			return nil, appErrors.Clone(appErrors.ErrConflict, "inquiry is already enrolled")
		case errors.Is(err, sql.ErrNoRows):
			return nil, appErrors.Clone(appErrors.ErrNotFound, "inquiry not found")
		default:
			return nil, appErrors.Internal(err, "failed to convert inquiry")
		}
	}
	s.logger.Info("inquiry converted",
		zap.String("inquiry_id", inquiry.ID),
		zap.String("enrollment_id", enrollment.ID),
		zap.String("fee_plan", string(enrollment.FeePlan)))
	if s.dashboard != nil {
		s.dashboard.Invalidate(ctx)
	}
	return s.Get(ctx, enrollment.ID)
}
