package models

import "time"

// InquiryStatus is a stage of the admission pipeline.
type InquiryStatus string

const (
	InquiryStatusPending           InquiryStatus = "pending"
	InquiryStatusContacted         InquiryStatus = "contacted"
	InquiryStatusEnrolled          InquiryStatus = "enrolled"
	InquiryStatusBooksGiven        InquiryStatus = "books_given"
	InquiryStatusExamCompleted     InquiryStatus = "exam_completed"
	InquiryStatusCertificateIssued InquiryStatus = "certificate_issued"
	InquiryStatusCancelled         InquiryStatus = "cancelled"
)

// inquiryStages orders the forward pipeline; cancelled sits outside it.
var inquiryStages = map[InquiryStatus]int{
	InquiryStatusPending:           0,
	InquiryStatusContacted:         1,
	InquiryStatusEnrolled:          2,
	InquiryStatusBooksGiven:        3,
	InquiryStatusExamCompleted:     4,
	InquiryStatusCertificateIssued: 5,
}

// Valid reports whether s is a known status.
func (s InquiryStatus) Valid() bool {
	_, ok := inquiryStages[s]
	return ok || s == InquiryStatusCancelled
}

// Terminal reports whether no further transition is possible.
func (s InquiryStatus) Terminal() bool {
	return s == InquiryStatusCertificateIssued || s == InquiryStatusCancelled
}

// CanTransitionTo implements the pipeline state machine. Moves go forward only, stages may
// be skipped, cancelled is reachable from any non-terminal stage, and staying put is allowed.
func (s InquiryStatus) CanTransitionTo(next InquiryStatus) bool {
	if !s.Valid() || !next.Valid() {
		return false
	}
	if s == next {
		return true
	}
	if s.Terminal() {
		return false
	}
	if next == InquiryStatusCancelled {
		return true
	}
	return inquiryStages[next] > inquiryStages[s]
}

// Inquiry is a prospective student's first contact with the institute.
type Inquiry struct {
	ID             string        `db:"id" json:"id"`
	StudentName    string        `db:"student_name" json:"student_name"`
	CourseID       string        `db:"course_id" json:"course_id"`
	Phone          string        `db:"phone" json:"phone"`
	AlternatePhone *string       `db:"alternate_phone" json:"alternate_phone,omitempty"`
	Address        *string       `db:"address" json:"address,omitempty"`
	Batch          *string       `db:"batch" json:"batch,omitempty"`
	Status         InquiryStatus `db:"status" json:"status"`
	Notes          *string       `db:"notes" json:"notes,omitempty"`
	CreatedAt      time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time     `db:"updated_at" json:"updated_at"`
}

// InquiryFilter narrows inquiry listings.
type InquiryFilter struct {
	Status   *InquiryStatus
	CourseID string
	Batch    string
	Search   string
	Page     int
	PageSize int
}

// PostEnrollment reports whether s lies beyond the enrolled stage.
func (s InquiryStatus) PostEnrollment() bool {
	stage, ok := inquiryStages[s]
	return ok && stage > inquiryStages[InquiryStatusEnrolled]
}
