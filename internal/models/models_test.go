package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInquiryStatusTransitions(t *testing.T) {
	cases := []struct {
		from, to InquiryStatus
		allowed  bool
	}{
		{InquiryStatusPending, InquiryStatusContacted, true},
		{InquiryStatusPending, InquiryStatusEnrolled, true},
		{InquiryStatusContacted, InquiryStatusContacted, true},
		{InquiryStatusEnrolled, InquiryStatusPending, false},
		{InquiryStatusExamCompleted, InquiryStatusCertificateIssued, true},
		{InquiryStatusBooksGiven, InquiryStatusCancelled, true},
		{InquiryStatusCancelled, InquiryStatusPending, false},
		{InquiryStatusCertificateIssued, InquiryStatusCancelled, false},
		{InquiryStatusPending, InquiryStatus("archived"), false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.allowed, tc.from.CanTransitionTo(tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestFeePlanOptionsRoundTrip(t *testing.T) {
	opts := FeePlanOptions{FeePlanFull, FeePlanInstallments}
	raw, err := opts.Value()
	require.NoError(t, err)
	assert.Equal(t, `["full","installments"]`, string(raw.([]byte)))

	var scanned FeePlanOptions
	require.NoError(t, scanned.Scan(raw))
	assert.Equal(t, opts, scanned)
	require.NoError(t, scanned.Scan(nil))
	assert.Nil(t, scanned)
	assert.Error(t, scanned.Scan(42))
}

func TestCourseOffersAndFees(t *testing.T) {
	course := Course{FullFee: decimal.NewFromInt(45000), InstallmentFee: decimal.NewFromInt(50000)}
	assert.True(t, course.Offers(FeePlanInstallments))
	assert.True(t, decimal.NewFromInt(50000).Equal(course.FeeFor(FeePlanInstallments)))
	assert.True(t, decimal.NewFromInt(45000).Equal(course.FeeFor(FeePlanFull)))

	course.FeePlanOptions = FeePlanOptions{FeePlanFull}
	assert.False(t, course.Offers(FeePlanInstallments))
}

func TestEnrollmentDetailBalance(t *testing.T) {
	detail := EnrollmentDetail{Enrollment: Enrollment{TotalFee: decimal.NewFromInt(50000)}}
	assert.True(t, decimal.Zero.Equal(detail.PaidAmount()))
	assert.True(t, decimal.NewFromInt(50000).Equal(detail.Balance()))

	detail.Payments = []Payment{{Amount: decimal.NewFromInt(20000)}, {Amount: decimal.NewFromInt(35000)}}
	assert.True(t, decimal.NewFromInt(55000).Equal(detail.PaidAmount()))
	assert.True(t, decimal.NewFromInt(-5000).Equal(detail.Balance()))
}

func TestSessionScopeCovers(t *testing.T) {
	assert.True(t, SessionScopeAdmin.Covers(SessionScopeSite))
	assert.False(t, SessionScopeSite.Covers(SessionScopeAdmin))
	assert.False(t, SessionScope("root").Valid())
}
