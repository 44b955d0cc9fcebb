package dto

import "github.com/noah-isme/institute-api/internal/models"

// CreateInquiryRequest records a new inquiry.
type CreateInquiryRequest struct {
	StudentName    string  `json:"student_name" validate:"required,notblank,max=120"`
	CourseID       string  `json:"course_id" validate:"required,uuid"`
	Phone          string  `json:"phone" validate:"required,min=7,max=20"`
	AlternatePhone *string `json:"alternate_phone" validate:"omitempty,min=7,max=20"`
	Address        *string `json:"address" validate:"omitempty,max=500"`
	Batch          *string `json:"batch" validate:"omitempty,max=50"`
	Notes          *string `json:"notes" validate:"omitempty,max=2000"`
}

// UpdateInquiryRequest patches inquiry details. Status changes go through UpdateInquiryStatusRequest.
type UpdateInquiryRequest struct {
	StudentName    *string `json:"student_name" validate:"omitempty,notblank,max=120"`
	CourseID       *string `json:"course_id" validate:"omitempty,uuid"`
	Phone          *string `json:"phone" validate:"omitempty,min=7,max=20"`
	AlternatePhone *string `json:"alternate_phone" validate:"omitempty,min=7,max=20"`
	Address        *string `json:"address" validate:"omitempty,max=500"`
	Batch          *string `json:"batch" validate:"omitempty,max=50"`
	Notes          *string `json:"notes" validate:"omitempty,max=2000"`
}

// UpdateInquiryStatusRequest moves an inquiry through the pipeline.
type UpdateInquiryStatusRequest struct {
	Status models.InquiryStatus `json:"status" validate:"required,oneof=pending contacted enrolled books_given exam_completed certificate_issued cancelled"`
}

// ConvertInquiryRequest turns an inquiry into an enrollment.
type ConvertInquiryRequest struct {
	FatherName  *string        `json:"father_name" validate:"omitempty,max=120"`
	FatherPhone *string        `json:"father_phone" validate:"omitempty,min=7,max=20"`
	Address     *string        `json:"address" validate:"omitempty,max=500"`
	StartDate   string         `json:"start_date" validate:"required,datetime=2006-01-02"`
	FeePlan     models.FeePlan `json:"fee_plan" validate:"required,oneof=full installments"`
}
