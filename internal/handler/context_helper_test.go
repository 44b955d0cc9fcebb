package handler

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/institute-api/internal/service"
)

type errorBody struct {
	Error struct {
		Code    string            `json:"code"`
		Details map[string]string `json:"details"`
	} `json:"error"`
}

func decodeErrorBody(t *testing.T, raw []byte) errorBody {
	t.Helper()
	var body errorBody
	require.NoError(t, json.Unmarshal(raw, &body))
	return body
}

// Handlers built on nil services panic if a malformed id ever reaches them.
func TestMalformedPathIDAnswersNotFound(t *testing.T) {
	enrollments := NewEnrollmentHandler(nil)
	inquiries := NewInquiryHandler(nil)
	payments := NewPaymentHandler(nil)
	reports := NewReportHandler(&reportServiceMock{})

	cases := map[string]func(*gin.Context){
		"enrollment get":     enrollments.Get,
		"enrollment convert": enrollments.Convert,
		"inquiry get":        inquiries.Get,
		"inquiry update":     inquiries.Update,
		"inquiry status":     inquiries.UpdateStatus,
		"inquiry delete":     inquiries.Delete,
		"payment list":       payments.List,
		"payment record":     payments.Record,
		"export status":      reports.ExportStatus,
	}
	for name, run := range cases {
		for _, id := range []string{"foo", "1", "0d6f1c2e3b4a4c5d8e9fa0b1c2d3e4f5", "'; drop table courses; --"} {
			t.Run(name+"/"+id, func(t *testing.T) {
				c, w := newGinContext(http.MethodGet, "/", []byte(`{}`))
				c.Params = gin.Params{{Key: "id", Value: id}}
				require.NotPanics(t, func() { run(c) })

				assert.Equal(t, http.StatusNotFound, w.Code)
				assert.Equal(t, "NOT_FOUND", decodeErrorBody(t, w.Body.Bytes()).Error.Code)
			})
		}
	}
}

func TestMalformedCourseFilterAnswersBadRequest(t *testing.T) {
	enrollments := NewEnrollmentHandler(nil)
	inquiries := NewInquiryHandler(nil)

	for name, run := range map[string]func(*gin.Context){
		"enrollments": enrollments.List,
		"inquiries":   inquiries.List,
	} {
		t.Run(name, func(t *testing.T) {
			c, w := newGinContext(http.MethodGet, "/"+name+"?course_id=foo", nil)
			require.NotPanics(t, func() { run(c) })

			require.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, decodeErrorBody(t, w.Body.Bytes()).Error.Details, "course_id")
		})
	}
}

func TestReportDownloadRejectsMalformedCourseFilter(t *testing.T) {
	// validation runs before the exporter, which is absent here
	reports := service.NewReportService(nil, nil, nil, nil, nil, service.ReportServiceConfig{})
	handler := NewReportHandler(reports)

	for _, courseID := range []string{"foo", "12", "c1"} {
		t.Run(courseID, func(t *testing.T) {
			c, w := newGinContext(http.MethodGet, "/reports/enrollment?format=csv&course_id="+courseID, nil)
			c.Params = gin.Params{{Key: "type", Value: "enrollment"}}
			require.NotPanics(t, func() { handler.Download(c) })

			require.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, "course_id must be a course id or all", decodeErrorBody(t, w.Body.Bytes()).Error.Details["course_id"])
		})
	}
}

func TestReportCreateExportRejectsMalformedCourseFilter(t *testing.T) {
	reports := service.NewReportService(nil, nil, nil, nil, nil, service.ReportServiceConfig{})
	handler := NewReportHandler(reports)

	c, w := newGinContext(http.MethodPost, "/reports/exports", []byte(`{"type":"payments","course_id":"foo"}`))
	require.NotPanics(t, func() { handler.CreateExport(c) })

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
