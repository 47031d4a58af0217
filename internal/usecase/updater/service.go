package updater

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/simaogato/dcaflow-backend/internal/domain"
)

// DefaultFreshness is how long a refreshed ticker is left alone
const DefaultFreshness = 18 * time.Hour

// Fetcher downloads daily closes from an external provider
type Fetcher interface {
	// Name identifies the provider in logs
	Name() string

	// FetchDailyCloses returns daily closes of ticker in any order.
	// since == nil asks for the full available history, otherwise closes dated on or after since.
	FetchDailyCloses(ctx context.Context, ticker string, since *time.Time) ([]domain.PricePoint, error)
}

// Invalidator drops derived data for a ticker whose prices changed
type Invalidator interface {
	Invalidate(ticker string)
}

// Mode describes what a refresh did
type Mode string

const (
	ModeFull        Mode = "full"
	ModeIncremental Mode = "incremental"
	ModeFresh       Mode = "fresh"
	ModeUpToDate    Mode = "up_to_date"
)

// Report is the outcome of refreshing one ticker
type Report struct {
	Ticker string
	Mode   Mode
	Added  int
	Err    error
}

// UpdaterService keeps the price repository current with an external provider.
// Provider failures stay here; simulations only see stored prices.
type UpdaterService struct {
	PriceRepo   domain.PriceRepository
	Fetcher     Fetcher
	Invalidator Invalidator
	Freshness   time.Duration
	Retry       RetryConfig
	Concurrency int

	now func() time.Time
	log zerolog.Logger
}

// NewUpdaterService creates a new UpdaterService with the default freshness and retry policy
func NewUpdaterService(priceRepo domain.PriceRepository, fetcher Fetcher, invalidator Invalidator, log zerolog.Logger) *UpdaterService {
	return &UpdaterService{
		PriceRepo:   priceRepo,
		Fetcher:     fetcher,
		Invalidator: invalidator,
		Freshness:   DefaultFreshness,
		Retry:       DefaultRetryConfig(),
		Concurrency: 4,
		now:         time.Now,
		log:         log.With().Str("service", "updater").Logger(),
	}
}

// Refresh brings the stored series of ticker up to date
// Logic:
//  1. Skip when the ticker was refreshed within Freshness
//  2. With stored data, fetch from the day after the latest stored date; skip if that is in the future
//  3. Without stored data, fetch the full history
//  4. Store only closes dated after the latest stored date
func (s *UpdaterService) Refresh(ctx context.Context, ticker string) (Report, error) {
	report := Report{Ticker: ticker}
	now := s.now()

	lastUpdated, err := s.PriceRepo.LastUpdatedAt(ctx, ticker)
	if err != nil {
		return report, fmt.Errorf("failed to read last update of %s: %w", ticker, err)
	}
	if lastUpdated != nil && now.Sub(*lastUpdated) < s.Freshness {
		report.Mode = ModeFresh
		return report, nil
	}

	var since *time.Time
	latest, err := s.PriceRepo.Latest(ctx, ticker)
	switch {
	case err == nil:
		next := domain.Day(latest.Date).AddDate(0, 0, 1)
		if next.After(domain.Day(now)) {
			report.Mode = ModeUpToDate
			return report, nil
		}
		since = &next
		report.Mode = ModeIncremental
	case errors.Is(err, domain.ErrPriceNotFound):
		report.Mode = ModeFull
	default:
		return report, fmt.Errorf("failed to read latest price of %s: %w", ticker, err)
	}

	var fetched []domain.PricePoint
	err = WithRetry(ctx, s.Retry, func(ctx context.Context) error {
		var ferr error
		fetched, ferr = s.Fetcher.FetchDailyCloses(ctx, ticker, since)
		return ferr
	})
	if err != nil {
		return report, fmt.Errorf("failed to fetch %s from %s: %w", ticker, s.Fetcher.Name(), err)
	}

	fresh := make([]domain.PricePoint, 0, len(fetched))
	for _, p := range fetched {
		p.Ticker = ticker
		p.Date = domain.Day(p.Date)
		p.UpdatedAt = now
		if latest != nil && !p.Date.After(latest.Date) {
			continue
		}
		if err := p.Validate(); err != nil {
			s.log.Warn().Str("ticker", ticker).Time("date", p.Date).Err(err).Msg("Skipping invalid price point")
			continue
		}
		fresh = append(fresh, p)
	}
	domain.SortPricePoints(fresh)

	if len(fresh) == 0 {
		if report.Mode == ModeFull {
			s.log.Warn().Str("ticker", ticker).Str("provider", s.Fetcher.Name()).Msg("Provider returned no data")
		}
		return report, nil
	}

	added, err := s.PriceRepo.SaveBatch(ctx, fresh)
	if err != nil {
		return report, fmt.Errorf("failed to save prices of %s: %w", ticker, err)
	}
	report.Added = added

	if added > 0 && s.Invalidator != nil {
		s.Invalidator.Invalidate(ticker)
	}

	s.log.Info().
		Str("ticker", ticker).
		Str("mode", string(report.Mode)).
		Int("added", added).
		Msg("Prices refreshed")

	return report, nil
}

// RefreshAll refreshes every ticker with bounded concurrency
// Per-ticker failures are logged and reported, never returned;
// the error is non-nil only when ctx is cancelled.
func (s *UpdaterService) RefreshAll(ctx context.Context, tickers []string) ([]Report, error) {
	reports := make([]Report, len(tickers))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(s.Concurrency, 1))

	for i, ticker := range tickers {
		g.Go(func() error {
			report, err := s.Refresh(gctx, ticker)
			if err != nil {
				report.Err = err
				s.log.Error().Err(err).Str("ticker", ticker).Msg("Price refresh failed")
			}
			reports[i] = report
			return nil
		})
	}

	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return reports, err
	}
	return reports, nil
}
