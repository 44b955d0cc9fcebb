package service

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/institute-api/internal/models"
	"github.com/noah-isme/institute-api/pkg/export"
	"github.com/noah-isme/institute-api/pkg/validation"
)

type datasetRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

// ReportOptions selects what a report contains and how it is encoded.
type ReportOptions struct {
	Type         models.ReportType
	Format       models.ReportFormat
	CourseID     string
	IncludeStats bool
	GeneratedAt  time.Time
}

// Report is a rendered document ready for download.
type Report struct {
	Filename    string
	ContentType string
	Data        []byte
	Rows        int
}

// ReportBuilder turns loaded enrollments into enrollment or payment reports.
type ReportBuilder struct {
	institute string
	money     *export.MoneyFormatter
	renderers map[models.ReportFormat]datasetRenderer
}

// NewReportBuilder constructs a builder labelling amounts with currencySymbol.
func NewReportBuilder(institute, currencySymbol string) *ReportBuilder {
	if currencySymbol == "" {
		currencySymbol = "₹"
	}
	return &ReportBuilder{
		institute: institute,
		money:     export.NewMoneyFormatter(currencySymbol),
		renderers: map[models.ReportFormat]datasetRenderer{
			models.ReportFormatCSV:  export.NewCSVExporter(),
			models.ReportFormatHTML: export.NewHTMLExporter(),
			models.ReportFormatPDF:  export.NewPDFExporter(),
		},
	}
}

// Build renders enrollments. A nil slice means the data has not been loaded yet and
// yields a nil report without error; an empty slice renders headers only.
func (b *ReportBuilder) Build(enrollments []models.EnrollmentDetail, opts ReportOptions) (*Report, error) {
	if enrollments == nil {
		return nil, nil
	}
	if !opts.Type.Valid() {
		return nil, fieldError("type", "type must be enrollment or payments")
	}
	if opts.Format == "" {
		opts.Format = models.ReportFormatCSV
	}
	renderer, ok := b.renderers[opts.Format]
	if !ok {
		return nil, fieldError("format", "format must be csv, html or pdf")
	}
	if opts.GeneratedAt.IsZero() {
		opts.GeneratedAt = time.Now()
	}

	selected := filterByCourse(enrollments, opts.CourseID)
	data := b.dataset(selected, opts)
	body, err := renderer.Render(data)
	if err != nil {
		return nil, fmt.Errorf("render %s report: %w", opts.Format, err)
	}
	return &Report{
		Filename:    ReportFilename(opts.Type, opts.Format, opts.GeneratedAt),
		ContentType: opts.Format.ContentType(),
		Data:        body,
		Rows:        len(data.Rows),
	}, nil
}

// ReportFilename returns {type}_report_{YYYY-MM-DD}.{ext}.
func ReportFilename(reportType models.ReportType, format models.ReportFormat, at time.Time) string {
	return fmt.Sprintf("%s_report_%s.%s", reportType, at.Format(dateLayout), format)
}

func filterByCourse(enrollments []models.EnrollmentDetail, courseID string) []models.EnrollmentDetail {
	courseID = strings.TrimSpace(courseID)
	if courseID == "" || strings.EqualFold(courseID, validation.AllCourses) {
		return enrollments
	}
	filtered := make([]models.EnrollmentDetail, 0, len(enrollments))
	for _, e := range enrollments {
		if e.CourseID == courseID {
			filtered = append(filtered, e)
		}
	}
	return filtered
}

func (b *ReportBuilder) dataset(enrollments []models.EnrollmentDetail, opts ReportOptions) export.Dataset {
	amount := b.money.Format
	if opts.Format == models.ReportFormatCSV {
		amount = func(d decimal.Decimal) string { return d.StringFixed(2) }
	}

	data := export.Dataset{GeneratedAt: opts.GeneratedAt.Format("2006-01-02 15:04")}
	switch opts.Type {
	case models.ReportTypePayments:
		data.Title = b.title("Payment Report")
		data.Headers = []string{"Student Name", "Course", "Payment Date", "Amount", "Mode", "Transaction ID", "Installment", "Notes"}
		for _, e := range enrollments {
			for _, p := range e.Payments {
				installment := ""
				if p.InstallmentNumber != nil {
					installment = strconv.Itoa(*p.InstallmentNumber)
				}
				data.AddRow(e.StudentName, e.Course.Name, p.PaymentDate.Format(dateLayout), amount(p.Amount),
					string(p.Mode), deref(p.TransactionID), installment, deref(p.Notes))
			}
		}
	default:
		data.Title = b.title("Enrollment Report")
		data.Headers = []string{"Student Name", "Father Name", "Phone", "Course", "Batch", "Start Date", "End Date", "Fee Plan", "Total Fee", "Paid", "Balance"}
		for _, e := range enrollments {
			data.AddRow(e.StudentName, deref(e.FatherName), e.Phone, e.Course.Name, deref(e.Inquiry.Batch),
				e.StartDate.Format(dateLayout), e.EndDate.Format(dateLayout), string(e.FeePlan),
				amount(e.TotalFee), amount(e.PaidAmount()), amount(e.Balance()))
		}
		if opts.IncludeStats && opts.Format != models.ReportFormatCSV {
			data.Stats = b.enrollmentStats(enrollments)
		}
	}
	return data
}

// enrollmentStats sums revenue over all payments and pending fees over all balances.
func (b *ReportBuilder) enrollmentStats(enrollments []models.EnrollmentDetail) []export.Stat {
	revenue := decimal.Zero
	pending := decimal.Zero
	for _, e := range enrollments {
		revenue = revenue.Add(e.PaidAmount())
		pending = pending.Add(e.Balance())
	}
	return []export.Stat{
		{Label: "Total Students", Value: b.money.Count(len(enrollments))},
		{Label: "Total Revenue", Value: b.money.Format(revenue)},
		{Label: "Pending Fees", Value: b.money.Format(pending)},
	}
}

func (b *ReportBuilder) title(kind string) string {
	if b.institute == "" {
		return kind
	}
	return b.institute + " - " + kind
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
