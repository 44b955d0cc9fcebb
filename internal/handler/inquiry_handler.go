package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/institute-api/internal/dto"
	"github.com/noah-isme/institute-api/internal/models"
	"github.com/noah-isme/institute-api/internal/service"
	appErrors "github.com/noah-isme/institute-api/pkg/errors"
	"github.com/noah-isme/institute-api/pkg/response"
)

// InquiryHandler exposes the inquiry pipeline.
type InquiryHandler struct {
	inquiries *service.InquiryService
}

// NewInquiryHandler constructs InquiryHandler.
func NewInquiryHandler(inquiries *service.InquiryService) *InquiryHandler {
	return &InquiryHandler{inquiries: inquiries}
}

// List godoc
// @Summary List inquiries
// @Tags Inquiries
// @Produce json
// @Param status query string false "Pipeline status"
// @Param course_id query string false "Course filter"
// @Param batch query string false "Batch filter"
// @Param search query string false "Search by name or phone"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /inquiries [get]
func (h *InquiryHandler) List(c *gin.Context) {
	courseID, ok := queryCourseID(c)
	if !ok {
		return
	}
	filter := models.InquiryFilter{
		CourseID: courseID,
		Batch:    strings.TrimSpace(c.Query("batch")),
		Search:   strings.TrimSpace(c.Query("search")),
		Page:     queryInt(c, "page", 1),
		PageSize: queryInt(c, "limit", 20),
	}
	if raw := c.Query("status"); raw != "" {
		status := models.InquiryStatus(raw)
		if !status.Valid() {
			response.Error(c, appErrors.WithDetails(appErrors.ErrValidation, map[string]string{"status": "unknown status"}))
			return
		}
		filter.Status = &status
	}
	inquiries, pagination, err := h.inquiries.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, inquiries, pagination)
}

// Get godoc
// @Summary Get inquiry
// @Tags Inquiries
// @Produce json
// @Param id path string true "Inquiry ID"
// @Success 200 {object} response.Envelope
// @Router /inquiries/{id} [get]
func (h *InquiryHandler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	inquiry, err := h.inquiries.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, inquiry, nil)
}

// Create godoc
// @Summary Record inquiry
// @Tags Inquiries
// @Accept json
// @Produce json
// @Param payload body dto.CreateInquiryRequest true "Inquiry payload"
// @Success 201 {object} response.Envelope
// @Router /inquiries [post]
func (h *InquiryHandler) Create(c *gin.Context) {
	var req dto.CreateInquiryRequest
	if !bindJSON(c, &req) {
		return
	}
	inquiry, err := h.inquiries.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, inquiry)
}

// Update godoc
// @Summary Edit inquiry details
// @Tags Inquiries
// @Accept json
// @Produce json
// @Param id path string true "Inquiry ID"
// @Param payload body dto.UpdateInquiryRequest true "Inquiry fields"
// @Success 200 {object} response.Envelope
// @Router /inquiries/{id} [patch]
func (h *InquiryHandler) Update(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req dto.UpdateInquiryRequest
	if !bindJSON(c, &req) {
		return
	}
	inquiry, err := h.inquiries.Update(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, inquiry, nil)
}

// UpdateStatus godoc
// @Summary Move inquiry to another stage
// @Tags Inquiries
// @Accept json
// @Produce json
// @Param id path string true "Inquiry ID"
// @Param payload body dto.UpdateInquiryStatusRequest true "Target status"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /inquiries/{id}/status [patch]
func (h *InquiryHandler) UpdateStatus(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req dto.UpdateInquiryStatusRequest
	if !bindJSON(c, &req) {
		return
	}
	inquiry, err := h.inquiries.UpdateStatus(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, inquiry, nil)
}

// Delete godoc
// @Summary Delete inquiry
// @Tags Inquiries
// @Param id path string true "Inquiry ID"
// @Success 204
// @Router /inquiries/{id} [delete]
func (h *InquiryHandler) Delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.inquiries.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
