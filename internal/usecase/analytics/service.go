package analytics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/simaogato/dcaflow-backend/internal/domain"
)

// DefaultStatsWindow is the number of days returned when no range is requested
const DefaultStatsWindow = 30

// AnalyticsService records ticker popularity and daily visits.
// Counters live outside the simulation engine; increments are atomic in the store.
type AnalyticsService struct {
	ViewRepo  domain.ViewCountRepository
	VisitRepo domain.VisitRepository

	now func() time.Time
}

// NewAnalyticsService creates a new AnalyticsService instance
func NewAnalyticsService(viewRepo domain.ViewCountRepository, visitRepo domain.VisitRepository) *AnalyticsService {
	return &AnalyticsService{
		ViewRepo:  viewRepo,
		VisitRepo: visitRepo,
		now:       time.Now,
	}
}

// RecordView counts one simulation against ticker
func (s *AnalyticsService) RecordView(ctx context.Context, ticker string) error {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if ticker == "" {
		return fmt.Errorf("%w: ticker cannot be empty", domain.ErrInvalidConfig)
	}
	return s.ViewRepo.Increment(ctx, ticker)
}

// TopTickers returns the most simulated tickers, highest first
func (s *AnalyticsService) TopTickers(ctx context.Context, limit int) ([]domain.TickerViews, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("%w: limit must be positive", domain.ErrInvalidConfig)
	}
	return s.ViewRepo.Top(ctx, limit)
}

// RecordVisit counts a page view for today, and a unique visit on the visitor's first view of the day
func (s *AnalyticsService) RecordVisit(ctx context.Context, firstVisitToday bool) error {
	return s.VisitRepo.Record(ctx, domain.Day(s.now()), firstVisitToday)
}

// DailyStats returns visit counters for every day in [from, to]
// Days without traffic are reported with zero counters
// A zero from defaults to DefaultStatsWindow days before to; a zero to defaults to today
func (s *AnalyticsService) DailyStats(ctx context.Context, from, to time.Time) ([]domain.DailyVisits, error) {
	if to.IsZero() {
		to = s.now()
	}
	to = domain.Day(to)
	if from.IsZero() {
		from = to.AddDate(0, 0, -(DefaultStatsWindow - 1))
	}
	from = domain.Day(from)

	if err := (domain.DateRange{From: from, To: to}).Validate(); err != nil {
		return nil, err
	}

	stored, err := s.VisitRepo.Range(ctx, from, to)
	if err != nil {
		return nil, err
	}

	byDay := make(map[time.Time]domain.DailyVisits, len(stored))
	for _, v := range stored {
		byDay[domain.Day(v.Date)] = v
	}

	var stats []domain.DailyVisits
	for day := from; !day.After(to); day = day.AddDate(0, 0, 1) {
		v := byDay[day]
		v.Date = day
		stats = append(stats, v)
	}
	return stats, nil
}
