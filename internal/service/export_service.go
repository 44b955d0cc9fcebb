package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/institute-api/internal/models"
	"github.com/noah-isme/institute-api/pkg/storage"
	"github.com/noah-isme/institute-api/pkg/validation"
)

type enrollmentLister interface {
	ListDetailed(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, error)
}

type fileStorage interface {
	Save(relPath string, data []byte) (string, error)
	Read(relPath string) ([]byte, error)
	Delete(relPath string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix string
	ResultTTL time.Duration
}

// ExportResult captures successful generation metadata.
type ExportResult struct {
	RelativePath string
	Token        string
	URL          string
	Filename     string
	ExpiresAt    time.Time
}

// ExportService renders reports from live enrollment data and persists them for download.
type ExportService struct {
	enrollments enrollmentLister
	builder     *ReportBuilder
	storage     fileStorage
	signer      *storage.SignedURLSigner
	metrics     *MetricsService
	logger      *zap.Logger
	cfg         ExportConfig
	now         func() time.Time
}

// NewExportService constructs an ExportService.
func NewExportService(enrollments enrollmentLister, builder *ReportBuilder, files fileStorage, signer *storage.SignedURLSigner, metrics *MetricsService, cfg ExportConfig, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if builder == nil {
		builder = NewReportBuilder("", "")
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	return &ExportService{
		enrollments: enrollments,
		builder:     builder,
		storage:     files,
		signer:      signer,
		metrics:     metrics,
		logger:      logger,
		cfg:         cfg,
		now:         time.Now,
	}
}

// Render loads enrollments with their relations and builds the requested report.
func (s *ExportService) Render(ctx context.Context, opts ReportOptions) (*Report, error) {
	if !validation.IsCourseFilter(opts.CourseID) {
		return nil, fieldError("course_id", "course_id must be a course id or all")
	}
	filter := models.EnrollmentFilter{}
	if opts.CourseID != "" && !strings.EqualFold(opts.CourseID, validation.AllCourses) {
		filter.CourseID = opts.CourseID
	}
	enrollments, err := s.enrollments.ListDetailed(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("load report enrollments: %w", err)
	}
	if opts.GeneratedAt.IsZero() {
		opts.GeneratedAt = s.now()
	}
	report, err := s.builder.Build(enrollments, opts)
	if err != nil {
		return nil, err
	}
	if report != nil {
		s.metrics.ReportGenerated(string(opts.Type), string(opts.Format))
	}
	return report, nil
}

// Generate renders the job's report, stores it and signs a download link.
func (s *ExportService) Generate(ctx context.Context, job *models.ExportJob) (*ExportResult, error) {
	if job == nil {
		return nil, fmt.Errorf("job nil")
	}
	report, err := s.Render(ctx, ReportOptions{
		Type:         job.Type,
		Format:       job.Params.Format,
		CourseID:     job.Params.CourseID,
		IncludeStats: job.Params.IncludeStats,
	})
	if err != nil {
		return nil, err
	}
	if report == nil {
		return nil, fmt.Errorf("report for job %s produced no output", job.ID)
	}

	relPath, err := s.storage.Save(job.ID+"/"+report.Filename, report.Data)
	if err != nil {
		return nil, err
	}
	token, expiresAt, err := s.signer.Generate(job.ID, relPath)
	if err != nil {
		return nil, err
	}
	prefix := strings.TrimRight(s.cfg.APIPrefix, "/")
	if prefix == "" {
		prefix = "/api/v1"
	}
	s.logger.Info("export stored", zap.String("job_id", job.ID), zap.String("path", relPath), zap.Int("rows", report.Rows))

	return &ExportResult{
		RelativePath: relPath,
		Token:        token,
		URL:          fmt.Sprintf("%s/export/%s", prefix, token),
		Filename:     report.Filename,
		ExpiresAt:    expiresAt,
	}, nil
}

// ParseToken validates a download token.
func (s *ExportService) ParseToken(token string) (storage.DownloadToken, error) {
	return s.signer.Parse(token)
}

// Read returns a stored export.
func (s *ExportService) Read(relPath string) ([]byte, error) {
	return s.storage.Read(relPath)
}

// Cleanup removes files older than ttl (defaults to configured ResultTTL when ttl <= 0).
func (s *ExportService) Cleanup(ttl time.Duration) ([]string, error) {
	if ttl <= 0 {
		ttl = s.cfg.ResultTTL
	}
	return s.storage.CleanupOlderThan(ttl)
}
