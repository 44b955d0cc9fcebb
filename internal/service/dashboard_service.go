package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/noah-isme/institute-api/internal/dto"
	"github.com/noah-isme/institute-api/internal/models"
	appErrors "github.com/noah-isme/institute-api/pkg/errors"
	"github.com/noah-isme/institute-api/pkg/sequence"
)

const (
	dashboardCachePrefix = "dash:summary"
	monthLayout          = "2006-01"
)

type dashboardRepository interface {
	Counts(ctx context.Context, from, to time.Time) (*models.DashboardCounts, error)
	CourseCounts(ctx context.Context) ([]models.CourseEnrollmentCount, error)
}

// DashboardServiceConfig tunes dashboard behaviour.
type DashboardServiceConfig struct {
	CacheTTL        time.Duration
	DailyTargetDays int
}

// DashboardService composes the admin dashboard from raw aggregates.
type DashboardService struct {
	repo   dashboardRepository
	cache  *CacheService
	guard  *sequence.Guard
	logger *zap.Logger
	now    func() time.Time
	cfg    DashboardServiceConfig
}

// NewDashboardService constructs a DashboardService with sane defaults.
func NewDashboardService(repo dashboardRepository, cache *CacheService, logger *zap.Logger, cfg DashboardServiceConfig) *DashboardService {
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 5 * time.Minute
	}
	if cfg.DailyTargetDays <= 0 {
		cfg.DailyTargetDays = 30
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{
		repo:   repo,
		cache:  cache,
		guard:  sequence.NewGuard(),
		logger: logger,
		now:    time.Now,
		cfg:    cfg,
	}
}

// DeriveMetrics computes the dashboard KPIs. Rates use a denominator floored at 1 and all
// values round half-up to whole numbers.
func DeriveMetrics(counts models.DashboardCounts, dailyTargetDays int) dto.DashboardMetrics {
	if dailyTargetDays <= 0 {
		dailyTargetDays = 30
	}
	total := decimal.NewFromInt(int64(maxInt(counts.TotalInquiries, 1)))
	hundred := decimal.NewFromInt(100)
	return dto.DashboardMetrics{
		ConversionRate:                 decimal.NewFromInt(int64(counts.EnrolledStudents)).Mul(hundred).Div(total).Round(0).IntPart(),
		PendingInquiriesRate:           decimal.NewFromInt(int64(counts.PendingInquiries)).Mul(hundred).Div(total).Round(0).IntPart(),
		AverageMonthlyRevenueThousands: counts.MonthlyRevenue.Div(decimal.NewFromInt(1000)).Round(0).IntPart(),
		DailyRevenueTarget:             counts.MonthlyRevenue.Div(decimal.NewFromInt(int64(dailyTargetDays))).Round(0).IntPart(),
	}
}

// Summary returns the dashboard for month (YYYY-MM, empty means the current month) and
// whether it was served from cache.
func (s *DashboardService) Summary(ctx context.Context, month string) (*dto.DashboardSummary, bool, error) {
	from, err := s.monthStart(month)
	if err != nil {
		return nil, false, err
	}
	key := fmt.Sprintf("%s:%s", dashboardCachePrefix, from.Format(monthLayout))

	var cached dto.DashboardSummary
	if s.cache.Get(ctx, key, &cached) {
		return &cached, true, nil
	}

	ticket := s.guard.Begin(key)
	counts, err := s.repo.Counts(ctx, from, from.AddDate(0, 1, 0))
	if err != nil {
		return nil, false, appErrors.Internal(err, "failed to load dashboard counts")
	}
	courses, err := s.repo.CourseCounts(ctx)
	if err != nil {
		return nil, false, appErrors.Internal(err, "failed to load course enrollment counts")
	}
	if courses == nil {
		courses = []models.CourseEnrollmentCount{}
	}

	summary := &dto.DashboardSummary{
		Month:            from.Format(monthLayout),
		TotalInquiries:   counts.TotalInquiries,
		EnrolledStudents: counts.EnrolledStudents,
		PendingInquiries: counts.PendingInquiries,
		MonthlyRevenue:   counts.MonthlyRevenue,
		TotalPendingFees: counts.TotalPendingFees,
		Metrics:          DeriveMetrics(*counts, s.cfg.DailyTargetDays),
		Courses:          courses,
		GeneratedAt:      s.now().UTC(),
	}

	write := func() { s.cache.Set(ctx, key, summary, s.cfg.CacheTTL) }
	undo := func() { s.cache.Invalidate(ctx, key) }
	if !s.guard.Commit(ticket, write, undo) {
		s.logger.Debug("discarded stale dashboard summary", zap.String("key", key))
	}
	return summary, false, nil
}

// Invalidate drops cached summaries and supersedes computations already in flight.
func (s *DashboardService) Invalidate(ctx context.Context) {
	if s == nil {
		return
	}
	s.guard.Supersede()
	s.cache.Invalidate(ctx, dashboardCachePrefix+":*")
}

func (s *DashboardService) monthStart(month string) (time.Time, error) {
	if month == "" {
		now := s.now().UTC()
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC), nil
	}
	parsed, err := time.Parse(monthLayout, month)
	if err != nil {
		return time.Time{}, fieldError("month", "month must be in YYYY-MM format")
	}
	return parsed, nil
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
