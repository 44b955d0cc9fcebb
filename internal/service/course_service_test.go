package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/institute-api/internal/dto"
	"github.com/noah-isme/institute-api/internal/models"
	appErrors "github.com/noah-isme/institute-api/pkg/errors"
	"github.com/noah-isme/institute-api/pkg/validation"
)

type courseRepoStub struct {
	courses     map[string]*models.Course
	codeTaken   bool
	referenced  bool
	deactivated []string
	deleted     []string
}

func newCourseRepoStub(courses ...models.Course) *courseRepoStub {
	stub := &courseRepoStub{courses: map[string]*models.Course{}}
	for i := range courses {
		c := courses[i]
		stub.courses[c.ID] = &c
	}
	return stub
}

func (s *courseRepoStub) List(context.Context, models.CourseFilter) ([]models.Course, error) {
	return nil, nil
}

func (s *courseRepoStub) FindByID(_ context.Context, id string) (*models.Course, error) {
	c, ok := s.courses[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *c
	return &copied, nil
}

func (s *courseRepoStub) ExistsByCode(context.Context, string, string) (bool, error) {
	return s.codeTaken, nil
}

func (s *courseRepoStub) Create(_ context.Context, course *models.Course) error {
	course.ID = "course-new"
	s.courses[course.ID] = course
	return nil
}

func (s *courseRepoStub) Update(_ context.Context, course *models.Course) error {
	s.courses[course.ID] = course
	return nil
}

func (s *courseRepoStub) IsReferenced(context.Context, string) (bool, error) {
	return s.referenced, nil
}

func (s *courseRepoStub) Deactivate(_ context.Context, id string) error {
	s.deactivated = append(s.deactivated, id)
	return nil
}

func (s *courseRepoStub) Delete(_ context.Context, id string) error {
	s.deleted = append(s.deleted, id)
	return nil
}

func validCourseRequest() dto.CourseRequest {
	return dto.CourseRequest{
		Name:              "Diploma in Computer Applications",
		Code:              " dca ",
		DurationMonths:    6,
		FullFee:           decimal.NewFromInt(12000),
		InstallmentFee:    decimal.NewFromInt(13500),
		FirstInstallment:  decimal.NewFromInt(5000),
		SecondInstallment: decimal.NewFromInt(4500),
	}
}

func TestCourseServiceCreateNormalizesAndDefaults(t *testing.T) {
	svc := NewCourseService(newCourseRepoStub(), validation.New(), nil)

	course, err := svc.Create(context.Background(), validCourseRequest())
	require.NoError(t, err)
	assert.Equal(t, "DCA", course.Code)
	assert.True(t, course.Active)
	assert.Equal(t, models.FeePlanOptions{models.FeePlanFull, models.FeePlanInstallments}, course.FeePlanOptions)
}

func TestCourseServiceCreateValidation(t *testing.T) {
	svc := NewCourseService(newCourseRepoStub(), validation.New(), nil)

	req := validCourseRequest()
	req.Name = "   "
	_, err := svc.Create(context.Background(), req)
	require.True(t, errors.Is(err, appErrors.ErrValidation))
	assert.Contains(t, appErrors.FromError(err).Details, "name")

	req = validCourseRequest()
	req.SecondInstallment = decimal.NewFromInt(9000)
	_, err = svc.Create(context.Background(), req)
	require.True(t, errors.Is(err, appErrors.ErrValidation))
	assert.Contains(t, appErrors.FromError(err).Details, "second_installment")
}

func TestCourseServiceCreateConflict(t *testing.T) {
	repo := newCourseRepoStub()
	repo.codeTaken = true
	svc := NewCourseService(repo, validation.New(), nil)

	_, err := svc.Create(context.Background(), validCourseRequest())
	assert.True(t, errors.Is(err, appErrors.ErrConflict))
}

func TestCourseServiceUpdateKeepsActiveUnlessGiven(t *testing.T) {
	repo := newCourseRepoStub(models.Course{ID: "c1", Code: "DCA", Active: false})
	svc := NewCourseService(repo, validation.New(), nil)

	course, err := svc.Update(context.Background(), "c1", validCourseRequest())
	require.NoError(t, err)
	assert.False(t, course.Active)

	_, err = svc.Update(context.Background(), "missing", validCourseRequest())
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}

func TestCourseServiceDeleteDeactivatesReferencedCourse(t *testing.T) {
	repo := newCourseRepoStub(models.Course{ID: "c1", Active: true})
	repo.referenced = true
	svc := NewCourseService(repo, validation.New(), nil)

	deactivated, err := svc.Delete(context.Background(), "c1")
	require.NoError(t, err)
	assert.True(t, deactivated)
	assert.Equal(t, []string{"c1"}, repo.deactivated)
	assert.Empty(t, repo.deleted)

	repo.referenced = false
	deactivated, err = svc.Delete(context.Background(), "c1")
	require.NoError(t, err)
	assert.False(t, deactivated)
	assert.Equal(t, []string{"c1"}, repo.deleted)
}
