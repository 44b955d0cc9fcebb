package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/institute-api/internal/dto"
	"github.com/noah-isme/institute-api/internal/models"
	"github.com/noah-isme/institute-api/internal/service"
	appErrors "github.com/noah-isme/institute-api/pkg/errors"
)

type reportServiceMock struct {
	reportType  models.ReportType
	query       dto.ReportQuery
	report      *service.Report
	downloadErr error
	createResp  *dto.ExportJobResponse
	statusResp  *dto.ExportStatusResponse
	statusErr   error
	stored      *service.ReportDownload
	storedErr   error
}

func (m *reportServiceMock) Download(_ context.Context, reportType models.ReportType, query dto.ReportQuery) (*service.Report, error) {
	m.reportType, m.query = reportType, query
	return m.report, m.downloadErr
}

func (m *reportServiceMock) CreateExport(_ context.Context, _ dto.ExportRequest) (*dto.ExportJobResponse, error) {
	return m.createResp, nil
}

func (m *reportServiceMock) GetStatus(_ context.Context, _ string) (*dto.ExportStatusResponse, error) {
	return m.statusResp, m.statusErr
}

func (m *reportServiceMock) ResolveDownload(_ context.Context, _ string) (*service.ReportDownload, error) {
	return m.stored, m.storedErr
}

func TestReportHandlerDownloadStreamsAttachment(t *testing.T) {
	mock := &reportServiceMock{report: &service.Report{
		Filename:    "enrollment_report_2026-03-05.csv",
		ContentType: "text/csv",
		Data:        []byte("Student Name\n"),
	}}
	handler := NewReportHandler(mock)

	c, w := newGinContext(http.MethodGet, "/reports/enrollment?format=csv&course_id=all&include_stats=true", nil)
	c.Params = gin.Params{{Key: "type", Value: "enrollment"}}
	handler.Download(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.ReportTypeEnrollment, mock.reportType)
	assert.Equal(t, "all", mock.query.CourseID)
	assert.True(t, mock.query.IncludeStats)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "enrollment_report_2026-03-05.csv")
	assert.Equal(t, "Student Name\n", w.Body.String())
}

func TestReportHandlerDownloadError(t *testing.T) {
	handler := NewReportHandler(&reportServiceMock{downloadErr: appErrors.Clone(appErrors.ErrValidation, "unknown report type")})

	c, w := newGinContext(http.MethodGet, "/reports/unknown", nil)
	c.Params = gin.Params{{Key: "type", Value: "unknown"}}
	handler.Download(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReportHandlerCreateExport(t *testing.T) {
	mock := &reportServiceMock{createResp: &dto.ExportJobResponse{ID: "job-1", Status: models.ExportStatusQueued}}
	handler := NewReportHandler(mock)

	payload, _ := json.Marshal(dto.ExportRequest{Type: models.ReportTypePayments, Format: models.ReportFormatCSV})
	c, w := newGinContext(http.MethodPost, "/reports/exports", payload)
	handler.CreateExport(c)

	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Contains(t, w.Body.String(), "job-1")
}

func TestReportHandlerExportStatusNotFound(t *testing.T) {
	handler := NewReportHandler(&reportServiceMock{statusErr: appErrors.Clone(appErrors.ErrNotFound, "export job not found")})

	c, w := newGinContext(http.MethodGet, "/reports/exports/missing", nil)
	c.Params = gin.Params{{Key: "id", Value: "missing"}}
	handler.ExportStatus(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestReportHandlerDownloadExport(t *testing.T) {
	mock := &reportServiceMock{stored: &service.ReportDownload{
		Data:        []byte("%PDF"),
		Filename:    "payments_report_2026-03-05.pdf",
		ContentType: "application/pdf",
		ExpiresAt:   time.Now().Add(time.Hour),
	}}
	handler := NewReportHandler(mock)

	c, w := newGinContext(http.MethodGet, "/export/token", nil)
	c.Params = gin.Params{{Key: "token", Value: "token"}}
	handler.DownloadExport(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
}
