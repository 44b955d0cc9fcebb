package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/institute-api/internal/dto"
	"github.com/noah-isme/institute-api/internal/models"
	appErrors "github.com/noah-isme/institute-api/pkg/errors"
	"github.com/noah-isme/institute-api/pkg/validation"
)

const testCourseID = "6f1c2a9e-3b1d-4c55-9a57-0d7b1e2f3a4b"

type inquiryRepoStub struct {
	inquiries     map[string]*models.Inquiry
	enrolled      bool
	staleStatus   bool
	lastFilter    models.InquiryFilter
	total         int
	statusUpdates int
	deleted       []string
}

func newInquiryRepoStub(inquiries ...models.Inquiry) *inquiryRepoStub {
	stub := &inquiryRepoStub{inquiries: map[string]*models.Inquiry{}}
	for i := range inquiries {
		inq := inquiries[i]
		stub.inquiries[inq.ID] = &inq
	}
	return stub
}

func (s *inquiryRepoStub) List(_ context.Context, filter models.InquiryFilter) ([]models.Inquiry, int, error) {
	s.lastFilter = filter
	return nil, s.total, nil
}

func (s *inquiryRepoStub) FindByID(_ context.Context, id string) (*models.Inquiry, error) {
	inq, ok := s.inquiries[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *inq
	return &copied, nil
}

func (s *inquiryRepoStub) Create(_ context.Context, inquiry *models.Inquiry) error {
	inquiry.ID = "inq-new"
	s.inquiries[inquiry.ID] = inquiry
	return nil
}

func (s *inquiryRepoStub) Update(_ context.Context, inquiry *models.Inquiry) error {
	s.inquiries[inquiry.ID] = inquiry
	return nil
}

func (s *inquiryRepoStub) UpdateStatus(_ context.Context, id string, from, to models.InquiryStatus) (bool, error) {
	s.statusUpdates++
	inq := s.inquiries[id]
	if s.staleStatus || inq.Status != from {
		return false, nil
	}
	inq.Status = to
	return true, nil
}

func (s *inquiryRepoStub) HasEnrollment(context.Context, string) (bool, error) {
	return s.enrolled, nil
}

func (s *inquiryRepoStub) Delete(_ context.Context, id string) error {
	s.deleted = append(s.deleted, id)
	return nil
}

type dashboardSpy struct {
	invalidations int
}

func (d *dashboardSpy) Invalidate(context.Context) {
	d.invalidations++
}

func newInquiryServiceForTest(repo *inquiryRepoStub, courses *courseRepoStub) (*InquiryService, *dashboardSpy) {
	spy := &dashboardSpy{}
	return NewInquiryService(repo, courses, spy, validation.New(), nil), spy
}

func TestInquiryServiceCreateRequiresActiveCourse(t *testing.T) {
	courses := newCourseRepoStub(models.Course{ID: testCourseID, Active: true})
	svc, spy := newInquiryServiceForTest(newInquiryRepoStub(), courses)
	req := dto.CreateInquiryRequest{StudentName: " Priya ", CourseID: testCourseID, Phone: "9876543210"}

	inquiry, err := svc.Create(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "Priya", inquiry.StudentName)
	assert.Equal(t, models.InquiryStatusPending, inquiry.Status)
	assert.Equal(t, 1, spy.invalidations)

	courses.courses[testCourseID].Active = false
	_, err = svc.Create(context.Background(), req)
	require.True(t, errors.Is(err, appErrors.ErrValidation))
	assert.Contains(t, appErrors.FromError(err).Details, "course_id")

	req.CourseID = "0b7a3c8e-1111-4a2b-8c3d-4e5f6a7b8c9d"
	_, err = svc.Create(context.Background(), req)
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
}

func TestInquiryServiceListPagination(t *testing.T) {
	repo := newInquiryRepoStub()
	repo.total = 45
	svc, _ := newInquiryServiceForTest(repo, newCourseRepoStub())

	inquiries, page, err := svc.List(context.Background(), models.InquiryFilter{Page: 2, PageSize: 500})
	require.NoError(t, err)
	assert.NotNil(t, inquiries)
	assert.Equal(t, &models.Pagination{Page: 2, PageSize: 100, TotalCount: 45}, page)

	bogus := models.InquiryStatus("archived")
	_, _, err = svc.List(context.Background(), models.InquiryFilter{Status: &bogus})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
}

func TestInquiryServiceUpdateStatusFollowsPipeline(t *testing.T) {
	cases := []struct {
		name    string
		from    models.InquiryStatus
		to      models.InquiryStatus
		wantErr *appErrors.Error
	}{
		{name: "forward", from: models.InquiryStatusPending, to: models.InquiryStatusContacted},
		{name: "cancel", from: models.InquiryStatusContacted, to: models.InquiryStatusCancelled},
		{name: "skip after enrollment", from: models.InquiryStatusEnrolled, to: models.InquiryStatusExamCompleted},
		{name: "backwards", from: models.InquiryStatusBooksGiven, to: models.InquiryStatusContacted, wantErr: appErrors.ErrInvalidTransition},
		{name: "terminal", from: models.InquiryStatusCancelled, to: models.InquiryStatusPending, wantErr: appErrors.ErrInvalidTransition},
		{name: "enroll needs conversion", from: models.InquiryStatusContacted, to: models.InquiryStatusEnrolled, wantErr: appErrors.ErrInvalidTransition},
		{name: "books before enrollment", from: models.InquiryStatusPending, to: models.InquiryStatusBooksGiven, wantErr: appErrors.ErrInvalidTransition},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := newInquiryRepoStub(models.Inquiry{ID: "i1", Status: tc.from})
			svc, spy := newInquiryServiceForTest(repo, newCourseRepoStub())

			inquiry, err := svc.UpdateStatus(context.Background(), "i1", dto.UpdateInquiryStatusRequest{Status: tc.to})
			if tc.wantErr != nil {
				require.True(t, errors.Is(err, tc.wantErr), "got %v", err)
				assert.Equal(t, 0, repo.statusUpdates)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.to, inquiry.Status)
			assert.Equal(t, 1, spy.invalidations)
		})
	}
}

func TestInquiryServiceUpdateStatusSameStateIsNoop(t *testing.T) {
	repo := newInquiryRepoStub(models.Inquiry{ID: "i1", Status: models.InquiryStatusContacted})
	svc, _ := newInquiryServiceForTest(repo, newCourseRepoStub())

	inquiry, err := svc.UpdateStatus(context.Background(), "i1", dto.UpdateInquiryStatusRequest{Status: models.InquiryStatusContacted})
	require.NoError(t, err)
	assert.Equal(t, models.InquiryStatusContacted, inquiry.Status)
	assert.Equal(t, 0, repo.statusUpdates)
}

func TestInquiryServiceUpdateStatusConcurrentChange(t *testing.T) {
	repo := newInquiryRepoStub(models.Inquiry{ID: "i1", Status: models.InquiryStatusPending})
	repo.staleStatus = true
	svc, _ := newInquiryServiceForTest(repo, newCourseRepoStub())

	_, err := svc.UpdateStatus(context.Background(), "i1", dto.UpdateInquiryStatusRequest{Status: models.InquiryStatusContacted})
	assert.True(t, errors.Is(err, appErrors.ErrConflict))
}

func TestInquiryServiceUpdateBlocksCourseChangeAfterEnrollment(t *testing.T) {
	repo := newInquiryRepoStub(models.Inquiry{ID: "i1", CourseID: "old", Status: models.InquiryStatusEnrolled})
	repo.enrolled = true
	svc, _ := newInquiryServiceForTest(repo, newCourseRepoStub(models.Course{ID: testCourseID, Active: true}))

	course := testCourseID
	_, err := svc.Update(context.Background(), "i1", dto.UpdateInquiryRequest{CourseID: &course})
	assert.True(t, errors.Is(err, appErrors.ErrConflict))

	batch := "Evening-2026"
	inquiry, err := svc.Update(context.Background(), "i1", dto.UpdateInquiryRequest{Batch: &batch})
	require.NoError(t, err)
	assert.Equal(t, "Evening-2026", *inquiry.Batch)
}

func TestInquiryServiceDelete(t *testing.T) {
	repo := newInquiryRepoStub(models.Inquiry{ID: "i1"})
	svc, _ := newInquiryServiceForTest(repo, newCourseRepoStub())

	repo.enrolled = true
	assert.True(t, errors.Is(svc.Delete(context.Background(), "i1"), appErrors.ErrConflict))

	repo.enrolled = false
	require.NoError(t, svc.Delete(context.Background(), "i1"))
	assert.Equal(t, []string{"i1"}, repo.deleted)

	assert.True(t, errors.Is(svc.Delete(context.Background(), "missing"), appErrors.ErrNotFound))
}
