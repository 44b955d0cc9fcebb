package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/institute-api/internal/dto"
	"github.com/noah-isme/institute-api/internal/models"
	appErrors "github.com/noah-isme/institute-api/pkg/errors"
	"github.com/noah-isme/institute-api/pkg/validation"
)

type courseRepository interface {
	List(ctx context.Context, filter models.CourseFilter) ([]models.Course, error)
	FindByID(ctx context.Context, id string) (*models.Course, error)
	ExistsByCode(ctx context.Context, code, excludeID string) (bool, error)
	Create(ctx context.Context, course *models.Course) error
	Update(ctx context.Context, course *models.Course) error
	IsReferenced(ctx context.Context, id string) (bool, error)
	Deactivate(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}

// CourseService manages the course catalogue.
type CourseService struct {
	repo      courseRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCourseService creates a new course service.
func NewCourseService(repo courseRepository, validate *validator.Validate, logger *zap.Logger) *CourseService {
	if validate == nil {
		validate = validation.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CourseService{repo: repo, validator: validate, logger: logger}
}

// List returns courses, optionally only active ones.
func (s *CourseService) List(ctx context.Context, filter models.CourseFilter) ([]models.Course, error) {
	courses, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list courses")
	}
	if courses == nil {
		courses = []models.Course{}
	}
	return courses, nil
}

// Get returns a course by identifier.
func (s *CourseService) Get(ctx context.Context, id string) (*models.Course, error) {
	course, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "course")
	}
	return course, nil
}

// Create adds a course ensuring code uniqueness.
func (s *CourseService) Create(ctx context.Context, req dto.CourseRequest) (*models.Course, error) {
	course := &models.Course{Active: true}
	if err := s.apply(ctx, course, req, ""); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, course); err != nil {
		return nil, appErrors.Internal(err, "failed to create course")
	}
	s.logger.Info("course created", zap.String("course_id", course.ID), zap.String("code", course.Code))
	return course, nil
}

// Update replaces course fields. Existing enrollments keep the fee they were charged.
func (s *CourseService) Update(ctx context.Context, id string, req dto.CourseRequest) (*models.Course, error) {
	course, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.apply(ctx, course, req, id); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, course); err != nil {
		return nil, appErrors.Internal(err, "failed to update course")
	}
	return course, nil
}

// Delete removes a course, or deactivates it when inquiries or enrollments reference it.
// The boolean reports whether the course was only deactivated.
func (s *CourseService) Delete(ctx context.Context, id string) (bool, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return false, err
	}
	referenced, err := s.repo.IsReferenced(ctx, id)
	if err != nil {
		return false, appErrors.Internal(err, "failed to check course references")
	}
	if referenced {
		if err := s.repo.Deactivate(ctx, id); err != nil {
			return false, appErrors.Internal(err, "failed to deactivate course")
		}
		s.logger.Info("course deactivated", zap.String("course_id", id))
		return true, nil
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return false, appErrors.Internal(err, "failed to delete course")
	}
	return false, nil
}

func (s *CourseService) apply(ctx context.Context, course *models.Course, req dto.CourseRequest, excludeID string) error {
	if err := s.validator.Struct(req); err != nil {
		return validationError(err)
	}
	if req.FirstInstallment.IsPositive() && req.SecondInstallment.IsPositive() &&
		req.FirstInstallment.Add(req.SecondInstallment).GreaterThan(req.InstallmentFee) {
		return fieldError("second_installment", "first and second installments cannot exceed the installment fee")
	}

	code := strings.ToUpper(strings.TrimSpace(req.Code))
	exists, err := s.repo.ExistsByCode(ctx, code, excludeID)
	if err != nil {
		return appErrors.Internal(err, "failed to check course code")
	}
	if exists {
		return appErrors.Clone(appErrors.ErrConflict, "course code already exists")
	}

	course.Name = strings.TrimSpace(req.Name)
	course.Code = code
	course.DurationMonths = req.DurationMonths
	course.FullFee = req.FullFee
	course.InstallmentFee = req.InstallmentFee
	course.FirstInstallment = req.FirstInstallment
	course.SecondInstallment = req.SecondInstallment
	course.FeePlanOptions = models.FeePlanOptions(req.FeePlanOptions)
	if len(course.FeePlanOptions) == 0 {
		course.FeePlanOptions = models.FeePlanOptions{models.FeePlanFull, models.FeePlanInstallments}
	}
	if req.Active != nil {
		course.Active = *req.Active
	}
	return nil
}
