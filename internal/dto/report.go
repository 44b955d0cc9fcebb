package dto

import "github.com/noah-isme/institute-api/internal/models"

// ReportQuery holds GET /reports/:type query parameters.
type ReportQuery struct {
	Format       models.ReportFormat `form:"format" json:"format" validate:"omitempty,oneof=csv html pdf"`
	CourseID     string              `form:"course_id" json:"course_id" validate:"omitempty,course_filter"`
	IncludeStats bool                `form:"include_stats" json:"include_stats"`
}

// ExportRequest captures POST /reports/exports payload.
type ExportRequest struct {
	Type         models.ReportType   `json:"type" validate:"required,oneof=enrollment payments"`
	Format       models.ReportFormat `json:"format" validate:"omitempty,oneof=csv html pdf"`
	CourseID     string              `json:"course_id" validate:"omitempty,course_filter"`
	IncludeStats bool                `json:"include_stats"`
}

// ExportJobResponse is returned after enqueueing an export.
type ExportJobResponse struct {
	ID       string              `json:"id"`
	Status   models.ExportStatus `json:"status"`
	Progress int                 `json:"progress"`
}

// ExportStatusResponse exposes job progress metadata.
type ExportStatusResponse struct {
	ID          string              `json:"id"`
	Status      models.ExportStatus `json:"status"`
	Progress    int                 `json:"progress"`
	DownloadURL *string             `json:"download_url,omitempty"`
	Error       *string             `json:"error,omitempty"`
}
