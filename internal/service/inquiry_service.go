package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/institute-api/internal/dto"
	"github.com/noah-isme/institute-api/internal/models"
	appErrors "github.com/noah-isme/institute-api/pkg/errors"
	"github.com/noah-isme/institute-api/pkg/validation"
)

type inquiryRepository interface {
	List(ctx context.Context, filter models.InquiryFilter) ([]models.Inquiry, int, error)
	FindByID(ctx context.Context, id string) (*models.Inquiry, error)
	Create(ctx context.Context, inquiry *models.Inquiry) error
	Update(ctx context.Context, inquiry *models.Inquiry) error
	UpdateStatus(ctx context.Context, id string, from, to models.InquiryStatus) (bool, error)
	HasEnrollment(ctx context.Context, id string) (bool, error)
	Delete(ctx context.Context, id string) error
}

type courseReader interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
}

type dashboardInvalidator interface {
	Invalidate(ctx context.Context)
}

// InquiryService manages the admission pipeline.
type InquiryService struct {
	repo      inquiryRepository
	courses   courseReader
	dashboard dashboardInvalidator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewInquiryService creates a new inquiry service.
func NewInquiryService(repo inquiryRepository, courses courseReader, dashboard dashboardInvalidator, validate *validator.Validate, logger *zap.Logger) *InquiryService {
	if validate == nil {
		validate = validation.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InquiryService{repo: repo, courses: courses, dashboard: dashboard, validator: validate, logger: logger}
}

// List returns paginated inquiries.
func (s *InquiryService) List(ctx context.Context, filter models.InquiryFilter) ([]models.Inquiry, *models.Pagination, error) {
	if filter.Status != nil && !filter.Status.Valid() {
		return nil, nil, fieldError("status", "unknown inquiry status")
	}
	inquiries, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "failed to list inquiries")
	}
	if inquiries == nil {
		inquiries = []models.Inquiry{}
	}
	page, size, _ := models.Normalize(filter.Page, filter.PageSize)
	return inquiries, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns an inquiry by identifier.
func (s *InquiryService) Get(ctx context.Context, id string) (*models.Inquiry, error) {
	inquiry, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "inquiry")
	}
	return inquiry, nil
}

// Create records a new pending inquiry for an active course.
func (s *InquiryService) Create(ctx context.Context, req dto.CreateInquiryRequest) (*models.Inquiry, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}
	if err := s.requireActiveCourse(ctx, req.CourseID); err != nil {
		return nil, err
	}

	inquiry := &models.Inquiry{
		StudentName:    strings.TrimSpace(req.StudentName),
		CourseID:       req.CourseID,
		Phone:          strings.TrimSpace(req.Phone),
		AlternatePhone: req.AlternatePhone,
		Address:        req.Address,
		Batch:          req.Batch,
		Notes:          req.Notes,
		Status:         models.InquiryStatusPending,
	}
	if err := s.repo.Create(ctx, inquiry); err != nil {
		return nil, appErrors.Internal(err, "failed to create inquiry")
	}
	s.invalidateDashboard(ctx)
	return inquiry, nil
}

// Update patches inquiry details. The course cannot change once the inquiry is enrolled.
func (s *InquiryService) Update(ctx context.Context, id string, req dto.UpdateInquiryRequest) (*models.Inquiry, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}
	inquiry, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.CourseID != nil && *req.CourseID != inquiry.CourseID {
		enrolled, err := s.repo.HasEnrollment(ctx, id)
		if err != nil {
			return nil, appErrors.Internal(err, "failed to check inquiry enrollment")
		}
		if enrolled {
			return nil, appErrors.Clone(appErrors.ErrConflict, "course cannot change after enrollment")
		}
		if err := s.requireActiveCourse(ctx, *req.CourseID); err != nil {
			return nil, err
		}
		inquiry.CourseID = *req.CourseID
	}
	if req.StudentName != nil {
		inquiry.StudentName = strings.TrimSpace(*req.StudentName)
	}
	if req.Phone != nil {
		inquiry.Phone = strings.TrimSpace(*req.Phone)
	}
	if req.AlternatePhone != nil {
		inquiry.AlternatePhone = req.AlternatePhone
	}
	if req.Address != nil {
		inquiry.Address = req.Address
	}
	if req.Batch != nil {
		inquiry.Batch = req.Batch
	}
	if req.Notes != nil {
		inquiry.Notes = req.Notes
	}

	if err := s.repo.Update(ctx, inquiry); err != nil {
		return nil, appErrors.Internal(err, "failed to update inquiry")
	}
	return inquiry, nil
}

// UpdateStatus moves the inquiry along the pipeline. Enrolling goes through conversion,
// and later stages require an enrollment.
func (s *InquiryService) UpdateStatus(ctx context.Context, id string, req dto.UpdateInquiryStatusRequest) (*models.Inquiry, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}
	inquiry, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	next := req.Status
	if inquiry.Status == next {
		return inquiry, nil
	}
	if !inquiry.Status.CanTransitionTo(next) {
		return nil, appErrors.WithDetails(appErrors.ErrInvalidTransition, map[string]string{
			"from": string(inquiry.Status),
			"to":   string(next),
		})
	}
	if next == models.InquiryStatusEnrolled {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "convert the inquiry to an enrollment to mark it enrolled")
	}
	if next.PostEnrollment() && !inquiry.Status.PostEnrollment() && inquiry.Status != models.InquiryStatusEnrolled {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "inquiry must be enrolled first")
	}

	changed, err := s.repo.UpdateStatus(ctx, id, inquiry.Status, next)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to update inquiry status")
	}
	if !changed {
		return nil, appErrors.Clone(appErrors.ErrConflict, "inquiry status changed concurrently")
	}
	s.logger.Info("inquiry status changed",
		zap.String("inquiry_id", id),
		zap.String("from", string(inquiry.Status)),
		zap.String("to", string(next)))
	inquiry.Status = next
	s.invalidateDashboard(ctx)
	return inquiry, nil
}

// Delete removes an inquiry that has not been converted.
func (s *InquiryService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	enrolled, err := s.repo.HasEnrollment(ctx, id)
	if err != nil {
		return appErrors.Internal(err, "failed to check inquiry enrollment")
	}
	if enrolled {
		return appErrors.Clone(appErrors.ErrConflict, "inquiry has an enrollment and cannot be deleted")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Internal(err, "failed to delete inquiry")
	}
	s.invalidateDashboard(ctx)
	return nil
}

func (s *InquiryService) requireActiveCourse(ctx context.Context, courseID string) error {
	course, err := s.courses.FindByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fieldError("course_id", "course does not exist")
		}
		return appErrors.Internal(err, "failed to load course")
	}
	if !course.Active {
		return fieldError("course_id", "course is not accepting inquiries")
	}
	return nil
}

func (s *InquiryService) invalidateDashboard(ctx context.Context) {
	if s.dashboard != nil {
		s.dashboard.Invalidate(ctx)
	}
}
