package ath

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/simaogato/dcaflow-backend/internal/domain"
	"github.com/simaogato/dcaflow-backend/internal/usecase/pricebook"
)

// SeriesSource provides the chronological close series of a ticker
type SeriesSource interface {
	Series(ticker string) []domain.PricePoint
}

// Build computes the running maximum close for each date of a chronological series
func Build(series []domain.PricePoint) []domain.AllTimeHigh {
	highs := make([]domain.AllTimeHigh, 0, len(series))
	high := decimal.Zero
	for i, p := range series {
		if i == 0 || p.Close.GreaterThan(high) {
			high = p.Close
		}
		highs = append(highs, domain.AllTimeHigh{Ticker: p.Ticker, Date: p.Date, High: high})
	}
	return highs
}

// Series is the derived all-time-high series of one ticker
type Series struct {
	ticker string
	highs  []domain.AllTimeHigh
}

// NewSeries derives the all-time-high series from a chronological close series
func NewSeries(ticker string, points []domain.PricePoint) *Series {
	return &Series{ticker: ticker, highs: Build(points)}
}

// HighAsOf returns the all-time high recorded at the latest date <= date
func (s *Series) HighAsOf(date time.Time) (decimal.Decimal, error) {
	i := pricebook.FloorIndex(s.highs, domain.Day(date), func(h domain.AllTimeHigh) time.Time { return h.Date })
	if i < 0 {
		return decimal.Zero, fmt.Errorf("all-time high of %s as of %s: %w", s.ticker, domain.FormatDate(date), domain.ErrPriceNotFound)
	}
	return s.highs[i].High, nil
}

// Tracker answers all-time-high queries for one simulation run.
// Each ticker's series is built at most once per Tracker.
type Tracker struct {
	source SeriesSource
	cache  *Cache
	built  map[string]*Series
}

// NewTracker creates a Tracker over source; cache may be nil
func NewTracker(source SeriesSource, cache *Cache) *Tracker {
	return &Tracker{
		source: source,
		cache:  cache,
		built:  make(map[string]*Series),
	}
}

// Prepare builds the series of the given tickers ahead of the run
func (t *Tracker) Prepare(tickers ...string) {
	for _, ticker := range tickers {
		t.series(ticker)
	}
}

// HighAsOf returns the all-time high of ticker as of date
// Returns an error wrapping domain.ErrPriceNotFound when no close exists at or before date
func (t *Tracker) HighAsOf(ticker string, date time.Time) (decimal.Decimal, error) {
	return t.series(ticker).HighAsOf(date)
}

func (t *Tracker) series(ticker string) *Series {
	if s, ok := t.built[ticker]; ok {
		return s
	}

	points := t.source.Series(ticker)
	s, ok := t.cache.Get(ticker, points)
	if !ok {
		s = NewSeries(ticker, points)
		t.cache.Put(ticker, points, s)
	}
	t.built[ticker] = s
	return s
}
