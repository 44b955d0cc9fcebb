package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/institute-api/internal/dto"
	"github.com/noah-isme/institute-api/internal/models"
	"github.com/noah-isme/institute-api/internal/service"
	"github.com/noah-isme/institute-api/pkg/response"
)

// EnrollmentHandler exposes enrollments and inquiry conversion.
type EnrollmentHandler struct {
	enrollments *service.EnrollmentService
}

// NewEnrollmentHandler constructs EnrollmentHandler.
func NewEnrollmentHandler(enrollments *service.EnrollmentService) *EnrollmentHandler {
	return &EnrollmentHandler{enrollments: enrollments}
}

// List godoc
// @Summary List enrollments with payments
// @Tags Enrollments
// @Produce json
// @Param course_id query string false "Course filter"
// @Success 200 {object} response.Envelope
// @Router /enrollments [get]
func (h *EnrollmentHandler) List(c *gin.Context) {
	courseID, ok := queryCourseID(c)
	if !ok {
		return
	}
	enrollments, err := h.enrollments.List(c.Request.Context(), models.EnrollmentFilter{CourseID: courseID})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, enrollments, nil)
}

// Get godoc
// @Summary Get enrollment with balance and installment schedule
// @Tags Enrollments
// @Produce json
// @Param id path string true "Enrollment ID"
// @Success 200 {object} response.Envelope
// @Router /enrollments/{id} [get]
func (h *EnrollmentHandler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	view, err := h.enrollments.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}

// Convert godoc
// @Summary Enroll the student behind an inquiry
// @Tags Enrollments
// @Accept json
// @Produce json
// @Param id path string true "Inquiry ID"
// @Param payload body dto.ConvertInquiryRequest true "Enrollment details"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /inquiries/{id}/enroll [post]
func (h *EnrollmentHandler) Convert(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req dto.ConvertInquiryRequest
	if !bindJSON(c, &req) {
		return
	}
	view, err := h.enrollments.Convert(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, view)
}
