package service

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/institute-api/internal/dto"
	"github.com/noah-isme/institute-api/internal/models"
	"github.com/noah-isme/institute-api/internal/repository"
	appErrors "github.com/noah-isme/institute-api/pkg/errors"
	"github.com/noah-isme/institute-api/pkg/jobs"
	"github.com/noah-isme/institute-api/pkg/storage"
)

const reportCourseID = "3f2b8c1a-9d4e-4f6a-b7c8-d9e0f1a2b3c4"

type exportJobRepoStub struct {
	mu      sync.Mutex
	jobs    map[string]*models.ExportJob
	deleted int64
}

func newExportJobRepoStub() *exportJobRepoStub {
	return &exportJobRepoStub{jobs: map[string]*models.ExportJob{}}
}

func (r *exportJobRepoStub) Create(_ context.Context, job *models.ExportJob) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	r.jobs[job.ID] = job
	return nil
}

func (r *exportJobRepoStub) GetByID(_ context.Context, id string) (*models.ExportJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *job
	return &copied, nil
}

func (r *exportJobRepoStub) Update(_ context.Context, id string, params repository.ExportJobUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok {
		return sql.ErrNoRows
	}
	if params.Status != nil {
		job.Status = *params.Status
	}
	if params.Progress != nil {
		job.Progress = *params.Progress
	}
	if params.ResultURL != nil {
		job.ResultURL = params.ResultURL
	}
	if params.ErrorMessage != nil {
		job.ErrorMessage = params.ErrorMessage
	}
	if params.FinishedAt != nil {
		job.FinishedAt = params.FinishedAt
	}
	return nil
}

func (r *exportJobRepoStub) ListQueued(_ context.Context, _ int) ([]models.ExportJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var queued []models.ExportJob
	for _, job := range r.jobs {
		if job.Status == models.ExportStatusQueued {
			queued = append(queued, *job)
		}
	}
	return queued, nil
}

func (r *exportJobRepoStub) DeleteFinishedBefore(context.Context, time.Time) (int64, error) {
	return r.deleted, nil
}

type queueStub struct {
	jobs []jobs.Job
	err  error
}

func (q *queueStub) Enqueue(_ context.Context, job jobs.Job) error {
	if q.err != nil {
		return q.err
	}
	q.jobs = append(q.jobs, job)
	return nil
}

type enrollmentListerStub struct {
	enrollments []models.EnrollmentDetail
	filter      models.EnrollmentFilter
	err         error
}

func (e *enrollmentListerStub) ListDetailed(_ context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, error) {
	e.filter = filter
	return e.enrollments, e.err
}

func newExportServiceForTest(t *testing.T, lister enrollmentLister) *ExportService {
	t.Helper()
	files, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("secret", time.Hour)
	return NewExportService(lister, NewReportBuilder("Test Institute", "₹"), files, signer, nil, ExportConfig{APIPrefix: "/api/v1"}, zap.NewNop())
}

func newReportServiceForTest(t *testing.T) (*ReportService, *exportJobRepoStub, *queueStub, *ExportService, *enrollmentListerStub) {
	t.Helper()
	repo := newExportJobRepoStub()
	queue := &queueStub{}
	lister := &enrollmentListerStub{enrollments: []models.EnrollmentDetail{
		sampleEnrollment("e1", "Asha", reportCourseID, 50000, 20000),
	}}
	exportSvc := newExportServiceForTest(t, lister)
	svc := NewReportService(repo, queue, exportSvc, nil, zap.NewNop(), ReportServiceConfig{ResultTTL: time.Hour, CleanupInterval: time.Hour})
	return svc, repo, queue, exportSvc, lister
}

func TestReportServiceDownload(t *testing.T) {
	svc, _, _, _, lister := newReportServiceForTest(t)

	report, err := svc.Download(context.Background(), models.ReportTypeEnrollment, dto.ReportQuery{Format: models.ReportFormatCSV, CourseID: reportCourseID})
	require.NoError(t, err)
	assert.Equal(t, reportCourseID, lister.filter.CourseID)
	assert.Equal(t, 1, report.Rows)
	assert.Contains(t, string(report.Data), "Asha")

	_, err = svc.Download(context.Background(), "grades", dto.ReportQuery{})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	_, err = svc.Download(context.Background(), models.ReportTypePayments, dto.ReportQuery{Format: "docx"})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
}

func TestReportServiceRejectsMalformedCourseFilter(t *testing.T) {
	svc, repo, queue, _, lister := newReportServiceForTest(t)

	_, err := svc.Download(context.Background(), models.ReportTypeEnrollment, dto.ReportQuery{CourseID: "foo"})
	require.True(t, errors.Is(err, appErrors.ErrValidation))
	assert.Equal(t, "course_id must be a course id or all", appErrors.FromError(err).Details["course_id"])

	_, err = svc.CreateExport(context.Background(), dto.ExportRequest{Type: models.ReportTypePayments, CourseID: "c1"})
	require.True(t, errors.Is(err, appErrors.ErrValidation))

	assert.Empty(t, repo.jobs)
	assert.Empty(t, queue.jobs)
	assert.Empty(t, lister.filter.CourseID)
}

func TestReportServiceDownloadAllCourses(t *testing.T) {
	svc, _, _, _, lister := newReportServiceForTest(t)
	_, err := svc.Download(context.Background(), models.ReportTypePayments, dto.ReportQuery{CourseID: "all"})
	require.NoError(t, err)
	assert.Empty(t, lister.filter.CourseID)
}

func TestReportServiceCreateExport(t *testing.T) {
	svc, repo, queue, _, _ := newReportServiceForTest(t)
	resp, err := svc.CreateExport(context.Background(), dto.ExportRequest{Type: models.ReportTypeEnrollment})
	require.NoError(t, err)
	require.NotEmpty(t, resp.ID)
	require.Len(t, queue.jobs, 1)
	assert.Equal(t, models.ExportStatusQueued, resp.Status)
	assert.Equal(t, models.ReportFormatCSV, repo.jobs[resp.ID].Params.Format)
}

func TestReportServiceCreateExportEnqueueFailure(t *testing.T) {
	svc, repo, queue, _, _ := newReportServiceForTest(t)
	queue.err = errors.New("queue stopped")

	_, err := svc.CreateExport(context.Background(), dto.ExportRequest{Type: models.ReportTypePayments, Format: models.ReportFormatPDF})
	require.Error(t, err)
	require.Len(t, repo.jobs, 1)
	for _, job := range repo.jobs {
		assert.Equal(t, models.ExportStatusFailed, job.Status)
	}
}

func TestReportServiceGetStatusNotFound(t *testing.T) {
	svc, _, _, _, _ := newReportServiceForTest(t)
	_, err := svc.GetStatus(context.Background(), "missing")
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}

func TestReportServiceResolveDownload(t *testing.T) {
	svc, repo, _, exportSvc, _ := newReportServiceForTest(t)
	job := &models.ExportJob{
		ID:     "job-download",
		Type:   models.ReportTypeEnrollment,
		Params: models.ExportJobParams{Format: models.ReportFormatHTML, IncludeStats: true},
		Status: models.ExportStatusFinished,
	}
	repo.jobs[job.ID] = job
	result, err := exportSvc.Generate(context.Background(), job)
	require.NoError(t, err)
	job.ResultURL = &result.URL

	download, err := svc.ResolveDownload(context.Background(), result.Token)
	require.NoError(t, err)
	assert.Equal(t, result.Filename, download.Filename)
	assert.Equal(t, "text/html; charset=utf-8", download.ContentType)
	assert.Contains(t, string(download.Data), "Total Revenue")

	_, err = svc.ResolveDownload(context.Background(), result.Token+"x")
	assert.True(t, errors.Is(err, appErrors.ErrForbidden))
}

func TestReportServiceRecoverPendingJobs(t *testing.T) {
	svc, repo, queue, _, _ := newReportServiceForTest(t)
	repo.jobs["a"] = &models.ExportJob{ID: "a", Type: models.ReportTypeEnrollment, Status: models.ExportStatusQueued}
	repo.jobs["b"] = &models.ExportJob{ID: "b", Type: models.ReportTypeEnrollment, Status: models.ExportStatusFinished}

	svc.RecoverPendingJobs(context.Background())
	require.Len(t, queue.jobs, 1)
	assert.Equal(t, "a", queue.jobs[0].ID)
}

type exportStub struct {
	result *ExportResult
	err    error
}

func (e exportStub) Generate(context.Context, *models.ExportJob) (*ExportResult, error) {
	if e.err != nil {
		return nil, e.err
	}
	return e.result, nil
}

func TestReportWorkerHandleSuccess(t *testing.T) {
	repo := newExportJobRepoStub()
	repo.jobs["job-1"] = &models.ExportJob{ID: "job-1", Type: models.ReportTypeEnrollment, Status: models.ExportStatusQueued}
	worker := NewReportWorker(repo, exportStub{result: &ExportResult{URL: "/api/v1/export/token"}}, 2, nil)

	require.NoError(t, worker.Handle(context.Background(), jobs.Job{ID: "job-1"}))
	job := repo.jobs["job-1"]
	assert.Equal(t, models.ExportStatusFinished, job.Status)
	assert.Equal(t, 100, job.Progress)
	require.NotNil(t, job.ResultURL)
	assert.Equal(t, "/api/v1/export/token", *job.ResultURL)
	assert.NotNil(t, job.FinishedAt)
}

func TestReportWorkerHandleRetriesThenFails(t *testing.T) {
	repo := newExportJobRepoStub()
	repo.jobs["job-1"] = &models.ExportJob{ID: "job-1", Type: models.ReportTypeEnrollment, Status: models.ExportStatusQueued}
	worker := NewReportWorker(repo, exportStub{err: errors.New("disk full")}, 1, nil)

	require.Error(t, worker.Handle(context.Background(), jobs.Job{ID: "job-1", Attempt: 0}))
	assert.Equal(t, models.ExportStatusQueued, repo.jobs["job-1"].Status)

	require.Error(t, worker.Handle(context.Background(), jobs.Job{ID: "job-1", Attempt: 1}))
	job := repo.jobs["job-1"]
	assert.Equal(t, models.ExportStatusFailed, job.Status)
	require.NotNil(t, job.ErrorMessage)
	assert.Equal(t, "disk full", *job.ErrorMessage)
}

func TestReportServiceEndToEndWithQueue(t *testing.T) {
	repo := newExportJobRepoStub()
	lister := &enrollmentListerStub{enrollments: []models.EnrollmentDetail{}}
	exportSvc := newExportServiceForTest(t, lister)
	worker := NewReportWorker(repo, exportSvc, 0, nil)
	queue := jobs.NewQueue("exports", worker.Handle, jobs.QueueConfig{Workers: 1, RetryDelay: time.Millisecond})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	queue.Start(ctx)
	defer queue.Stop()

	svc := NewReportService(repo, queue, exportSvc, nil, nil, ReportServiceConfig{})
	resp, err := svc.CreateExport(ctx, dto.ExportRequest{Type: models.ReportTypePayments})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		status, err := svc.GetStatus(ctx, resp.ID)
		return err == nil && status.Status == models.ExportStatusFinished && status.DownloadURL != nil
	}, 2*time.Second, 10*time.Millisecond)
}
