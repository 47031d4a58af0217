package domain

import (
	"context"
	"time"
)

// PriceRepository defines the interface for daily price persistence operations
type PriceRepository interface {
	// SaveBatch stores new price points, ignoring any (ticker, date) already stored
	// Returns the number of rows actually inserted
	SaveBatch(ctx context.Context, points []PricePoint) (int, error)

	// ListSeries retrieves every price point of a ticker in chronological order
	ListSeries(ctx context.Context, ticker string) ([]PricePoint, error)

	// PriceAsOf retrieves the latest price point with date <= asOf
	// Returns an error wrapping ErrPriceNotFound when none exists
	PriceAsOf(ctx context.Context, ticker string, asOf time.Time) (*PricePoint, error)

	// Latest retrieves the most recent price point of a ticker
	// Returns an error wrapping ErrPriceNotFound when the ticker has no data
	Latest(ctx context.Context, ticker string) (*PricePoint, error)

	// LastUpdatedAt returns when the ticker was last refreshed, nil if never
	LastUpdatedAt(ctx context.Context, ticker string) (*time.Time, error)
}

// ViewCountRepository defines the interface for per-ticker view counters
type ViewCountRepository interface {
	// Increment atomically adds one view to the ticker
	Increment(ctx context.Context, ticker string) error

	// Top retrieves the most viewed tickers, highest first
	Top(ctx context.Context, limit int) ([]TickerViews, error)
}

// VisitRepository defines the interface for daily visit statistics
type VisitRepository interface {
	// Record atomically adds one page view for the day, and one unique visit when unique is true
	Record(ctx context.Context, day time.Time, unique bool) error

	// Range retrieves daily stats for days in [from, to], oldest first
	Range(ctx context.Context, from, to time.Time) ([]DailyVisits, error)
}
